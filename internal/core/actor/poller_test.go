package actor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/core/domain"
	"github.com/berfenger/hostagent2mqtt/internal/util"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// discoveryRecorder records the announcements the poller requests.
type discoveryRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (p *discoveryRecorder) Receive(ctx actor.Context) {
	if req, ok := ctx.Message().(domain.PublishDiscoveryRequest); ok {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.ids = append(p.ids, req.EntityIds...)
	}
}

func (p *discoveryRecorder) announced() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ids...)
}

func TestPollerPublishesAndAnnounces(t *testing.T) {

	assert := assert.New(t)

	as := actor.NewActorSystem()
	defer as.Shutdown()
	cfg := util.LoadTestConfig()
	logger := zap.NewNop()

	host := &fakeHost{}
	host.setVolumes(dataVolume())
	reg := testRegistry(t, host, logger)

	es := eventstream.NewEventStream()
	events := &stateEvents{}
	events.subscribe(es)

	recorder := &discoveryRecorder{}
	recorderPID := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor { return recorder }))

	pid := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewPollerActor(cfg.DiscoveryContext(), reg, es, recorderPID, false, logger)
	}))

	assert.Eventually(func() bool {
		return len(events.onTopic("homeassistant/sensor/testhost/cpu/state")) > 0 &&
			len(events.onTopic("homeassistant/sensor/testhost/disks-id__data/attributes")) > 0
	}, 5*time.Second, 20*time.Millisecond)

	ev := events.onTopic("homeassistant/sensor/testhost/disks-id__data/state")[0]
	assert.Equal("/data", ev.Payload)
	assert.Equal("disks-id", ev.EntityId)

	// children are announced once, on the cycle they first appear
	assert.Eventually(func() bool {
		return len(recorder.announced()) == 2
	}, 5*time.Second, 20*time.Millisecond)
	assert.ElementsMatch([]string{"disks-id__data", "disks-id_total_disk_count"}, recorder.announced())

	res, err := as.Root.RequestFuture(pid, domain.PollSensorRequest{EntityId: "disks-id"}, 5*time.Second).Result()
	assert.NoError(err)
	resp := res.(domain.PollSensorResponse)
	assert.NoError(resp.ResponseError)
	assert.Empty(resp.Added)
	assert.Len(recorder.announced(), 2)
}

func TestPollerUnknownSensor(t *testing.T) {

	assert := assert.New(t)

	as := actor.NewActorSystem()
	defer as.Shutdown()
	cfg := util.LoadTestConfig()
	logger := zap.NewNop()
	reg := testRegistry(t, &fakeHost{}, logger)

	pid := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewPollerActor(cfg.DiscoveryContext(), reg, eventstream.NewEventStream(), nil, false, logger)
	}))

	res, err := as.Root.RequestFuture(pid, domain.PollSensorRequest{EntityId: "nope"}, 5*time.Second).Result()
	assert.NoError(err)
	resp := res.(domain.PollSensorResponse)
	assert.ErrorIs(resp.ResponseError, ErrUnknownSensor)
}

func TestPollerReadPrunesStaleChildren(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	cfg := util.LoadTestConfig()
	logger := zap.NewNop()
	host := &fakeHost{}
	host.setVolumes(dataVolume())
	reg := testRegistry(t, host, logger)

	poller := NewPollerActor(cfg.DiscoveryContext(), reg, nil, nil, true, logger)
	storage, ok := reg.Sensor("disks-id")
	require.True(ok)

	res := poller.read(storage)
	assert.NoError(res.Err)
	assert.Equal([]string{"disks-id__data", "disks-id_total_disk_count"}, res.Children)
	assert.Empty(res.Pruned)

	host.setVolumes()
	res = poller.read(storage)
	assert.Equal([]string{"disks-id_total_disk_count"}, res.Children)
	assert.Equal([]string{"disks-id__data"}, res.Pruned)

	last := res.Messages[len(res.Messages)-1]
	assert.Equal("homeassistant/sensor/testhost/disks-id__data/config", last.Topic)
	assert.Empty(last.Payload)
	assert.True(last.Retain)
}

func TestPollerReadKeepsChildrenWhenEnumerationFails(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	cfg := util.LoadTestConfig()
	logger := zap.NewNop()
	host := &fakeHost{}
	host.setVolumes(dataVolume())
	reg := testRegistry(t, host, logger)

	poller := NewPollerActor(cfg.DiscoveryContext(), reg, nil, nil, true, logger)
	storage, ok := reg.Sensor("disks-id")
	require.True(ok)

	res := poller.read(storage)
	assert.Len(res.Children, 2)

	host.failVolumes(errors.New("mounts unreadable"))
	res = poller.read(storage)
	assert.Empty(res.Children)
	assert.Empty(res.Pruned)
	for _, m := range res.Messages {
		assert.NotContains(m.Topic, "/config")
	}

	host.failVolumes(nil)
	res = poller.read(storage)
	assert.Equal([]string{"disks-id__data", "disks-id_total_disk_count"}, res.Children)
	assert.Empty(res.Pruned)
}

func TestPollerReadPlainSensor(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	cfg := util.LoadTestConfig()
	logger := zap.NewNop()
	reg := testRegistry(t, &fakeHost{}, logger)

	poller := NewPollerActor(cfg.DiscoveryContext(), reg, nil, nil, false, logger)
	cpu, ok := reg.Sensor("cpu-id")
	require.True(ok)

	res := poller.read(cpu)
	assert.NoError(res.Err)
	assert.Empty(res.Children)
	require.Len(res.Messages, 1)
	assert.Equal("homeassistant/sensor/testhost/cpu/state", res.Messages[0].Topic)
	assert.Equal("42", res.Messages[0].Payload)
}
