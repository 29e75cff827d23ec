package audio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type EventKind int

const (
	EVENT_DEVICE_STATE_CHANGED EventKind = iota
	EVENT_DEVICE_ADDED
	EVENT_DEVICE_REMOVED
	EVENT_DEFAULT_DEVICE_CHANGED
	EVENT_DEVICE_PROPERTY_CHANGED
)

func (k EventKind) String() string {
	switch k {
	case EVENT_DEVICE_STATE_CHANGED:
		return "device_state_changed"
	case EVENT_DEVICE_ADDED:
		return "device_added"
	case EVENT_DEVICE_REMOVED:
		return "device_removed"
	case EVENT_DEFAULT_DEVICE_CHANGED:
		return "default_device_changed"
	case EVENT_DEVICE_PROPERTY_CHANGED:
		return "device_property_changed"
	default:
		return "unknown"
	}
}

// Event is a typed hardware notification. Only the fields relevant to Kind
// are set.
type Event struct {
	Kind     EventKind
	DeviceId string
	State    string
	Type     DeviceType
	Role     DeviceRole
	Property string
}

const DEFAULT_EVENT_BUFFER = 64

// NotificationClient receives callbacks from the native audio stack. Every On*
// method returns immediately: events go into a bounded queue and are dropped
// when it is full.
type NotificationClient struct {
	mu      sync.RWMutex
	closed  bool
	events  chan Event
	dropped atomic.Uint64
}

func NewNotificationClient(buffer int) *NotificationClient {
	if buffer <= 0 {
		buffer = DEFAULT_EVENT_BUFFER
	}
	return &NotificationClient{events: make(chan Event, buffer)}
}

func (c *NotificationClient) OnDeviceStateChanged(deviceId string, state string) {
	c.push(Event{Kind: EVENT_DEVICE_STATE_CHANGED, DeviceId: deviceId, State: state})
}

func (c *NotificationClient) OnDeviceAdded(deviceId string) {
	c.push(Event{Kind: EVENT_DEVICE_ADDED, DeviceId: deviceId})
}

func (c *NotificationClient) OnDeviceRemoved(deviceId string) {
	c.push(Event{Kind: EVENT_DEVICE_REMOVED, DeviceId: deviceId})
}

func (c *NotificationClient) OnDefaultDeviceChanged(deviceType DeviceType, role DeviceRole, deviceId string) {
	c.push(Event{Kind: EVENT_DEFAULT_DEVICE_CHANGED, DeviceId: deviceId, Type: deviceType, Role: role})
}

func (c *NotificationClient) OnPropertyValueChanged(deviceId string, property string) {
	c.push(Event{Kind: EVENT_DEVICE_PROPERTY_CHANGED, DeviceId: deviceId, Property: property})
}

func (c *NotificationClient) push(ev Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	default:
		c.dropped.Add(1)
	}
}

func (c *NotificationClient) Events() <-chan Event {
	return c.events
}

// Dropped counts the events discarded because the queue was full.
func (c *NotificationClient) Dropped() uint64 {
	return c.dropped.Load()
}

func (c *NotificationClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
}

type Handler func(Event)

// Listener drains a NotificationClient on its own goroutine and multicasts
// each event to the subscribed handlers. Handlers run on the listener
// goroutine, never on the native callback thread, and may see duplicates.
type Listener struct {
	client *NotificationClient
	stream *eventstream.EventStream
	logger *zap.Logger
	done   chan struct{}
	start  sync.Once
}

func NewListener(client *NotificationClient, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		client: client,
		stream: eventstream.NewEventStream(),
		logger: logger.With(zap.String("component", "audio_listener")),
		done:   make(chan struct{}),
	}
}

// Subscribe registers h and returns a function removing it.
func (l *Listener) Subscribe(h Handler) (unsubscribe func()) {
	sub := l.stream.Subscribe(func(evt any) {
		ev, ok := evt.(Event)
		if !ok {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error("audio event handler panicked", zap.Stringer("event", ev.Kind), zap.Error(fmt.Errorf("%v", r)))
			}
		}()
		h(ev)
	})
	return func() {
		l.stream.Unsubscribe(sub)
	}
}

// Start launches the dispatch goroutine. It stops when ctx is done or the
// client is closed.
func (l *Listener) Start(ctx context.Context) {
	l.start.Do(func() {
		go l.run(ctx)
	})
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-l.client.Events():
			if !ok {
				return
			}
			l.logger.Debug("audio event", zap.Stringer("event", ev.Kind), zap.String("device", ev.DeviceId))
			l.stream.Publish(ev)
		}
	}
}

// Done is closed once the dispatch goroutine has exited.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}
