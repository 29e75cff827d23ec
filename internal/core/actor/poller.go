package actor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/core/domain"
	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/registry"
	"github.com/berfenger/hostagent2mqtt/internal/core/sensors"
	"github.com/berfenger/hostagent2mqtt/internal/mqtt"
	. "github.com/berfenger/hostagent2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

// POLL_TIMEOUT bounds a single sensor read, aggregators included.
const POLL_TIMEOUT = 15 * time.Second

var ErrUnknownSensor = errors.New("unknown sensor")

// aggregator is a multi-value sensor with generation tracking.
type aggregator interface {
	entity.MultiValue
	Generation() uint64
	ChildGeneration(childId string) (uint64, bool)
	Completed() bool
	Prune() []string
}

// PollerActor reads every registered sensor on its own interval and publishes
// the results on the event stream.
type PollerActor struct {
	behavior       actor.Behavior
	stash          *Stash
	registry       *registry.Registry
	discovery      entity.DiscoveryContext
	eventStream    *eventstream.EventStream
	discoveryActor *actor.PID
	scheduler      *PollScheduler
	pruneStale     bool
	readTimeout    time.Duration
	announced      map[string]bool
	stopWatchers   context.CancelFunc

	logger *zap.Logger
}

type pollResult struct {
	EntityId string
	ReplyTo  *actor.PID
	Messages []mqtt.Message
	Children []string
	Pruned   []string
	Err      error
}

func NewPollerActor(discovery entity.DiscoveryContext, registry *registry.Registry, eventStream *eventstream.EventStream,
	discoveryActor *actor.PID, pruneStale bool, logger *zap.Logger) *PollerActor {
	act := &PollerActor{
		behavior:       actor.NewBehavior(),
		stash:          &Stash{},
		registry:       registry,
		discovery:      discovery,
		eventStream:    eventStream,
		discoveryActor: discoveryActor,
		pruneStale:     pruneStale,
		readTimeout:    POLL_TIMEOUT,
		announced:      map[string]bool{},
		logger:         ActorLogger(domain.ACTOR_ID_POLLER, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *PollerActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PollerActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("poller@starting started")

		root := ctx.ActorSystem().Root
		self := ctx.Self()

		state.scheduler = NewPollScheduler()
		state.scheduler.Start()
		for _, s := range state.registry.Sensors() {
			id := s.Identity().Id
			err := state.scheduler.Every(id, s.UpdateInterval(), func() {
				root.Send(self, domain.PollSensorRequest{EntityId: id})
			})
			if err != nil {
				state.logger.Error("poller@starting could not schedule sensor", zap.String("entity", s.Identity().EntityName), zap.Error(err))
			}
			// first read right away
			ctx.Send(self, domain.PollSensorRequest{EntityId: id})
		}
		state.watchAudio(root, self)

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("poller@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PollerActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("poller@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_POLLER,
			Healthy: true,
			State:   "idle",
		})
	case domain.PollSensorRequest:
		state.logger.Debug("poller@default: PollSensorRequest", zap.String("entity", msg.EntityId))
		replyTo := ForRequest(msg).ReplyTo(ctx)
		sensor, ok := state.registry.Sensor(msg.EntityId)
		if !ok {
			if replyTo != nil {
				ctx.Send(replyTo, domain.PollSensorResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: ErrUnknownSensor},
					EntityId:           msg.EntityId,
				})
			}
			return
		}
		NewBackgroundTask(ctx, func() (*pollResult, error) {
			res := state.read(sensor)
			res.ReplyTo = replyTo
			return res, nil
		}).Recover(func(err error) pollResult {
			return pollResult{EntityId: msg.EntityId, ReplyTo: replyTo, Err: err}
		}).WithTimeout(state.readTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingReadReceive)
	default:
		state.logger.Debug("poller@default: unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *PollerActor) WaitingReadReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case pollResult:
		if msg.Err != nil {
			state.logger.Error("poller@waiting read failed", zap.String("entity", msg.EntityId), zap.Error(msg.Err))
		}
		for _, m := range msg.Messages {
			state.eventStream.Publish(domain.EntityStateEvent{
				EntityId: msg.EntityId,
				Topic:    m.Topic,
				Payload:  m.Payload,
				Retain:   m.Retain,
			})
		}
		for _, id := range msg.Pruned {
			delete(state.announced, id)
		}
		added := state.markAnnounced(msg.Children)
		if len(added) > 0 && state.discoveryActor != nil {
			ctx.Send(state.discoveryActor, domain.PublishDiscoveryRequest{EntityIds: added})
		}
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, domain.PollSensorResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: msg.Err},
				EntityId:           msg.EntityId,
				Added:              added,
			})
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("poller@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// read runs off the actor loop. Aggregators are refreshed first and only the
// children refreshed by this cycle are published.
func (state *PollerActor) read(s entity.Sensor) (res *pollResult) {
	res = &pollResult{EntityId: s.Identity().Id}
	defer func() {
		if r := recover(); r != nil {
			res = &pollResult{EntityId: s.Identity().Id, Err: fmt.Errorf("sensor read panicked: %v", r)}
		}
	}()

	agg, ok := s.(aggregator)
	if !ok {
		res.Messages = mqtt.StateMessages(state.discovery, s)
		return res
	}

	agg.UpdateSensorValues()
	gen := agg.Generation()
	children := agg.Sensors()
	ids := make([]string, 0, len(children))
	for id := range children {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if g, _ := agg.ChildGeneration(id); g != gen {
			continue
		}
		res.Children = append(res.Children, id)
		res.Messages = append(res.Messages, mqtt.StateMessages(state.discovery, children[id])...)
	}
	// a failed enumeration leaves every child stale; keep them until a cycle completes
	if state.pruneStale && agg.Completed() {
		for _, id := range agg.Prune() {
			res.Pruned = append(res.Pruned, id)
			// an empty retained config removes the entity from the hub
			res.Messages = append(res.Messages, mqtt.Message{
				Topic:  entity.ConfigTopic(state.discovery, children[id].Identity()),
				Retain: true,
			})
		}
	}
	return res
}

// markAnnounced returns the ids not announced before and records them.
func (state *PollerActor) markAnnounced(ids []string) []string {
	added := []string{}
	for _, id := range ids {
		if !state.announced[id] {
			state.announced[id] = true
			added = append(added, id)
		}
	}
	return added
}

// watchAudio turns audio change signals into early polls.
func (state *PollerActor) watchAudio(root *actor.RootContext, self *actor.PID) {
	audioSensors := state.registry.AudioSensors()
	if len(audioSensors) == 0 {
		return
	}
	wctx, cancel := context.WithCancel(context.Background())
	state.stopWatchers = cancel
	for _, a := range audioSensors {
		go func(a *sensors.AudioSensors) {
			for {
				select {
				case <-wctx.Done():
					return
				case <-a.Changes():
					root.Send(self, domain.PollSensorRequest{EntityId: a.Identity().Id})
				}
			}
		}(a)
	}
}

func (state *PollerActor) stop() {
	if state.scheduler != nil {
		state.scheduler.Stop()
		state.scheduler = nil
	}
	if state.stopWatchers != nil {
		state.stopWatchers()
		state.stopWatchers = nil
	}
}
