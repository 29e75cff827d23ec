package actor

import (
	"sync"
	"testing"
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/core/domain"
	"github.com/berfenger/hostagent2mqtt/internal/util"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stateEvents struct {
	mu     sync.Mutex
	events []domain.EntityStateEvent
}

func (s *stateEvents) subscribe(es *eventstream.EventStream) {
	es.Subscribe(func(evt any) {
		if ev, ok := evt.(domain.EntityStateEvent); ok {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.events = append(s.events, ev)
		}
	})
}

func (s *stateEvents) onTopic(topic string) []domain.EntityStateEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.EntityStateEvent{}
	for _, ev := range s.events {
		if ev.Topic == topic {
			out = append(out, ev)
		}
	}
	return out
}

func spawnDispatcher(t *testing.T, host *fakeHost) (*actor.ActorSystem, *actor.PID, *stateEvents) {
	as := actor.NewActorSystem()
	cfg := util.LoadTestConfig()
	logger := zap.NewNop()
	reg := testRegistry(t, host, logger)

	es := eventstream.NewEventStream()
	events := &stateEvents{}
	events.subscribe(es)

	pid := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewDispatcherActor(cfg.DiscoveryContext(), reg, es, logger)
	}))
	return as, pid, events
}

func TestDispatcherSetOn(t *testing.T) {

	assert := assert.New(t)

	host := &fakeHost{}
	as, pid, events := spawnDispatcher(t, host)
	defer as.Shutdown()

	res, err := as.Root.RequestFuture(pid, domain.CommandRequest{
		Domain:   "switch",
		ObjectId: "run",
		Kind:     domain.COMMAND_KIND_SET,
		Payload:  "ON",
	}, 5*time.Second).Result()
	assert.NoError(err)
	resp, ok := res.(domain.CommandResponse)
	assert.True(ok)
	assert.NoError(resp.ResponseError)
	assert.Equal("run-id", resp.EntityId)
	assert.Equal("OFF", resp.State)
	assert.Equal([]string{"echo hi"}, host.Launched())

	// initial state plus the one after the command
	assert.Eventually(func() bool {
		return len(events.onTopic("homeassistant/switch/testhost/run/state")) == 2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDispatcherAction(t *testing.T) {

	assert := assert.New(t)

	host := &fakeHost{}
	as, pid, _ := spawnDispatcher(t, host)
	defer as.Shutdown()

	res, err := as.Root.RequestFuture(pid, domain.CommandRequest{
		Domain:   "switch",
		ObjectId: "run",
		Kind:     domain.COMMAND_KIND_ACTION,
		Payload:  "there",
	}, 5*time.Second).Result()
	assert.NoError(err)
	resp := res.(domain.CommandResponse)
	assert.NoError(resp.ResponseError)
	assert.Equal([]string{"echo hi there"}, host.Launched())
}

func TestDispatcherSetOffDoesNotLaunch(t *testing.T) {

	assert := assert.New(t)

	host := &fakeHost{}
	as, pid, _ := spawnDispatcher(t, host)
	defer as.Shutdown()

	res, err := as.Root.RequestFuture(pid, domain.CommandRequest{
		Domain:   "switch",
		ObjectId: "run",
		Kind:     domain.COMMAND_KIND_SET,
		Payload:  "OFF",
	}, 5*time.Second).Result()
	assert.NoError(err)
	resp := res.(domain.CommandResponse)
	assert.NoError(resp.ResponseError)
	assert.Equal("OFF", resp.State)
	assert.Empty(host.Launched())
}

func TestDispatcherRejects(t *testing.T) {

	assert := assert.New(t)

	host := &fakeHost{}
	as, pid, _ := spawnDispatcher(t, host)
	defer as.Shutdown()

	res, err := as.Root.RequestFuture(pid, domain.CommandRequest{
		Domain:   "switch",
		ObjectId: "missing",
		Kind:     domain.COMMAND_KIND_SET,
		Payload:  "ON",
	}, 5*time.Second).Result()
	assert.NoError(err)
	resp := res.(domain.CommandResponse)
	assert.ErrorIs(resp.ResponseError, ErrUnknownCommand)

	res, err = as.Root.RequestFuture(pid, domain.CommandRequest{
		Domain:   "switch",
		ObjectId: "run",
		Kind:     domain.COMMAND_KIND_SET,
		Payload:  "MAYBE",
	}, 5*time.Second).Result()
	assert.NoError(err)
	resp = res.(domain.CommandResponse)
	assert.ErrorIs(resp.ResponseError, ErrInvalidPayload)
	assert.Empty(host.Launched())
}
