package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/core/commands"
	"github.com/berfenger/hostagent2mqtt/internal/core/domain"
	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/registry"
	"github.com/berfenger/hostagent2mqtt/internal/mqtt"
	. "github.com/berfenger/hostagent2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

// COMMAND_TIMEOUT bounds how long the dispatcher waits for a command to
// return. Fire-and-forget effects return before they complete.
const COMMAND_TIMEOUT = commands.EFFECT_TIMEOUT + 2*time.Second

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidPayload = errors.New("invalid command payload")
)

// DispatcherActor invokes commands addressed by inbound messages and publishes
// their state afterwards.
type DispatcherActor struct {
	ActorWithStates
	stash       *Stash
	registry    *registry.Registry
	discovery   entity.DiscoveryContext
	eventStream *eventstream.EventStream
	timeout     time.Duration

	logger *zap.Logger
}

type commandResult struct {
	Command entity.Command
	ReplyTo *actor.PID
	Err     error
}

type dispatcherIdle struct {
	act *DispatcherActor
}

type dispatcherRunning struct {
	act *DispatcherActor
}

func NewDispatcherActor(discovery entity.DiscoveryContext, registry *registry.Registry, eventStream *eventstream.EventStream, logger *zap.Logger) *DispatcherActor {
	act := &DispatcherActor{
		ActorWithStates: ActorWithStates{Behavior: actor.NewBehavior()},
		stash:           &Stash{},
		registry:        registry,
		discovery:       discovery,
		eventStream:     eventStream,
		timeout:         COMMAND_TIMEOUT,
		logger:          ActorLogger(domain.ACTOR_ID_DISPATCHER, logger),
	}
	act.Become(dispatcherIdle{act: act})
	return act
}

func (state *DispatcherActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

func (s dispatcherIdle) Name() string {
	return "idle"
}

func (s dispatcherIdle) Receive(ctx actor.Context) {
	state := s.act
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("dispatcher@idle started")
		for _, c := range state.registry.Commands() {
			state.publishState(c)
		}
	case domain.ActorHealthRequest:
		state.logger.Debug("dispatcher@idle: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_DISPATCHER,
			Healthy: true,
			State:   s.Name(),
		})
	case domain.CommandRequest:
		state.logger.Debug("dispatcher@idle: CommandRequest", zap.String("key", msg.Key()), zap.String("kind", msg.Kind))
		replyTo := ForRequest(msg).ReplyTo(ctx)
		cmd, ok := state.registry.Command(msg.Domain, msg.ObjectId)
		if !ok {
			state.logger.Warn("dispatcher@idle: unknown command", zap.String("key", msg.Key()))
			state.respond(ctx, replyTo, msg.Key(), "", ErrUnknownCommand)
			return
		}
		invoke, err := invocation(cmd, msg)
		if err != nil {
			state.logger.Warn("dispatcher@idle: invalid command", zap.String("key", msg.Key()), zap.Error(err))
			state.respond(ctx, replyTo, cmd.Identity().Id, cmd.State(), err)
			return
		}
		NewBackgroundTaskErr(ctx, invoke).
			WithTimeout(state.timeout).
			OnError(func(err error) {
				ctx.Send(ctx.Self(), commandResult{Command: cmd, ReplyTo: replyTo, Err: err})
			}).
			OnSuccess(func(any) {
				ctx.Send(ctx.Self(), commandResult{Command: cmd, ReplyTo: replyTo})
			}).
			Run()
		state.BecomeStacked(dispatcherRunning{act: state})
	default:
		state.logger.Debug("dispatcher@idle: unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (s dispatcherRunning) Name() string {
	return "running"
}

func (s dispatcherRunning) Receive(ctx actor.Context) {
	state := s.act
	switch msg := ctx.Message().(type) {
	case commandResult:
		id := msg.Command.Identity()
		if msg.Err != nil {
			state.logger.Error("dispatcher@running command did not return", zap.String("entity", id.EntityName), zap.Error(msg.Err))
		}
		state.publishState(msg.Command)
		state.respond(ctx, msg.ReplyTo, id.Id, msg.Command.State(), msg.Err)
		state.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("dispatcher@running: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// invocation maps a request to the command entry point it triggers: `set`
// with ON or OFF, or `action` with the raw payload.
func invocation(cmd entity.Command, req domain.CommandRequest) (func() error, error) {
	switch req.Kind {
	case domain.COMMAND_KIND_SET:
		switch req.Payload {
		case entity.STATE_ON:
			return func() error { cmd.TurnOn(); return nil }, nil
		case entity.STATE_OFF:
			return func() error { cmd.TurnOff(); return nil }, nil
		}
		return nil, fmt.Errorf("%w: %q", ErrInvalidPayload, req.Payload)
	case domain.COMMAND_KIND_ACTION:
		payload := req.Payload
		return func() error { cmd.TurnOnWithAction(payload); return nil }, nil
	default:
		return nil, fmt.Errorf("%w: kind %q", ErrInvalidPayload, req.Kind)
	}
}

func (state *DispatcherActor) publishState(c entity.Command) {
	if !state.discovery.Available() {
		return
	}
	m := mqtt.CommandStateMessage(state.discovery, c)
	state.eventStream.Publish(domain.EntityStateEvent{
		EntityId: c.Identity().Id,
		Topic:    m.Topic,
		Payload:  m.Payload,
		Retain:   m.Retain,
	})
}

func (state *DispatcherActor) respond(ctx actor.Context, replyTo *actor.PID, entityId, commandState string, err error) {
	if replyTo == nil {
		return
	}
	ctx.Send(replyTo, domain.CommandResponse{
		ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
		EntityId:           entityId,
		State:              commandState,
	})
}
