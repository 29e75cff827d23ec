package actor

import (
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/hostagent2mqtt/internal/adapter/actor"
	"github.com/berfenger/hostagent2mqtt/internal/config"
	"github.com/berfenger/hostagent2mqtt/internal/core/domain"
	"github.com/berfenger/hostagent2mqtt/internal/core/registry"
	. "github.com/berfenger/hostagent2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash
	registry *registry.Registry

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	mqttActor          *actor.PID
	pollerActor        *actor.PID
	dispatcherActor    *actor.PID
	discoveryActor     *actor.PID
	mqttActorProvider  MQTTActorProvider
	logger             *zap.Logger
}

type healthCheckResult struct {
	healthy        map[string]bool
	checksReceived int
	respondTo      *actor.PID
}

// healthCheckedActors are the children asked on every health check.
var healthCheckedActors = []string{domain.ACTOR_ID_MQTT, domain.ACTOR_ID_POLLER, domain.ACTOR_ID_DISPATCHER}

func NewMasterOfPuppetsActor(config config.Config, registry *registry.Registry, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:            config,
		behavior:          actor.NewBehavior(),
		stash:             &Stash{},
		registry:          registry,
		logger:            ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:       eventstream.NewEventStream(),
		mqttActorProvider: mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset()

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start discovery
		if state.config.MQTT.DiscoveryEnable {
			discoveryPID, err := state.startDiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
			state.discoveryActor = discoveryPID
		}

		// start poller child
		pollerPID, err := state.startPollerActor(ctx)
		if err != nil {
			panic(err)
		}
		state.pollerActor = pollerPID

		// start dispatcher child
		dispatcherPID, err := state.startDispatcherActor(ctx)
		if err != nil {
			panic(err)
		}
		state.dispatcherActor = dispatcherPID

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ForRequest(msg).ReplyTo(ctx)
		children := map[string]*actor.PID{
			domain.ACTOR_ID_MQTT:       state.mqttActor,
			domain.ACTOR_ID_POLLER:     state.pollerActor,
			domain.ACTOR_ID_DISPATCHER: state.dispatcherActor,
		}
		for _, id := range healthCheckedActors {
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(children[id], domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      id,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case adactor.MQTTReady:
		// (re)publish retained discovery after every connect
		state.logger.Debug("master@default MQTTReady")
		if state.discoveryActor != nil {
			ctx.Send(state.discoveryActor, domain.PublishDiscoveryRequest{})
		}
	case adactor.ParsedCommand:
		// redirect parsedCommand to dispatcher
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			ctx.Send(state.dispatcherActor, ParsedMQTTCommandToRequest(*msg.Command))
		}
	case domain.CommandRequest:
		ctx.RequestWithCustomSender(state.dispatcherActor, msg, ctx.Sender())
	case domain.PollSensorRequest:
		ctx.RequestWithCustomSender(state.pollerActor, msg, ctx.Sender())
	case domain.PublishDiscoveryRequest:
		if state.discoveryActor != nil {
			ctx.RequestWithCustomSender(state.discoveryActor, msg, ctx.Sender())
		} else if ctx.Sender() != nil {
			ctx.Respond(domain.PublishDiscoveryResponse{})
		}
	case domain.ListEntitiesRequest:
		state.logger.Debug("master@default ListEntitiesRequest")
		ForRequest(msg).Respond(ctx, domain.ListEntitiesResponse{
			Entities: state.registry.Info(),
		})
	case *actor.Terminated:
		state.logger.Error("master@default child terminated", zap.String("child", msg.Who.Id))
	default:
		state.logger.Debug("master@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		ctx.CancelReceiveTimeout()
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			state.currentHealthCheck.healthy[msg.Id] = true
		}
		if state.currentHealthCheck.allReceived() {
			ctx.CancelReceiveTimeout()

			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *MasterOfPuppetsActor) startDiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(10, 10*time.Second, decider)

	discoveryProps := actor.PropsFromProducer(func() actor.Actor {
		return NewDiscoveryActor(state.config.DiscoveryContext(), state.registry, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(discoveryProps, domain.ACTOR_ID_DISCOVERY)
}

func (state *MasterOfPuppetsActor) startPollerActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(10, 10*time.Second, decider)

	pollerProps := actor.PropsFromProducer(func() actor.Actor {
		return NewPollerActor(state.config.DiscoveryContext(), state.registry, state.eventStream, state.discoveryActor,
			state.config.PruneStale, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(pollerProps, domain.ACTOR_ID_POLLER)
}

func (state *MasterOfPuppetsActor) startDispatcherActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(10, 10*time.Second, decider)

	dispatcherProps := actor.PropsFromProducer(func() actor.Actor {
		return NewDispatcherActor(state.config.DiscoveryContext(), state.registry, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(dispatcherProps, domain.ACTOR_ID_DISPATCHER)
}

func (state *healthCheckResult) reset() {
	state.healthy = map[string]bool{}
	state.checksReceived = 0
	state.respondTo = nil
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == len(healthCheckedActors)
}

func (state *healthCheckResult) allHealthy() bool {
	for _, id := range healthCheckedActors {
		if !state.healthy[id] {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
