package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/core/domain"
	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/registry"
	"github.com/berfenger/hostagent2mqtt/internal/mqtt"
	"github.com/berfenger/hostagent2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// DiscoveryActor publishes the retained discovery configs of registered
// entities once the MQTT actor is healthy.
type DiscoveryActor struct {
	behavior  actor.Behavior
	stash     *actorutil.Stash
	registry  *registry.Registry
	discovery entity.DiscoveryContext
	mqttActor *actor.PID

	logger *zap.Logger
}

func NewDiscoveryActor(discovery entity.DiscoveryContext, registry *registry.Registry, mqttActor *actor.PID, logger *zap.Logger) *DiscoveryActor {
	act := &DiscoveryActor{
		discovery: discovery,
		registry:  registry,
		mqttActor: mqttActor,
		behavior:  actor.NewBehavior(),
		stash:     &actorutil.Stash{},
		logger:    actorutil.ActorLogger(domain.ACTOR_ID_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *DiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *DiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("discovery@starting started")

		// wait for the MQTT actor to be healthy
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("discovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *DiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("discovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		if !msg.Healthy {
			panic(errors.New("MQTT Actor is not healthy"))
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("discovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *DiscoveryActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_DISCOVERY,
			Healthy: true,
			State:   "idle",
		})
	case domain.PublishDiscoveryRequest:
		state.logger.Debug("discovery@default PublishDiscoveryRequest", zap.Strings("entities", msg.EntityIds))
		published := state.publish(ctx, msg.EntityIds)
		if replyTo := actorutil.ForRequest(msg).ReplyTo(ctx); replyTo != nil {
			ctx.Send(replyTo, domain.PublishDiscoveryResponse{Published: published})
		}
	default:
		state.logger.Debug("discovery@default: unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// publish sends the config of every selected entity to the MQTT actor. An
// empty selection means every registered entity.
func (state *DiscoveryActor) publish(ctx actor.Context, entityIds []string) int {
	selected := map[string]bool{}
	for _, id := range entityIds {
		selected[id] = true
	}
	published := 0
	for _, e := range state.registry.Discoverables() {
		if len(selected) > 0 && !selected[e.Identity().Id] {
			continue
		}
		msg, err := mqtt.DiscoveryMessage(state.discovery, e)
		if err != nil {
			state.logger.Error("discovery@publish could not build config", zap.String("entity", e.Identity().EntityName), zap.Error(err))
			continue
		}
		if msg == nil {
			continue
		}
		ctx.Send(state.mqttActor, domain.PublishMessageRequest{
			Topic:   msg.Topic,
			Payload: msg.Payload,
			Retain:  msg.Retain,
		})
		published++
	}
	return published
}
