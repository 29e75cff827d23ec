package domain

// EntityStateEvent is published on the event stream whenever an entity has a
// new state to put on the bus.
type EntityStateEvent struct {
	EntityId string
	Topic    string
	Payload  string
	Retain   bool
}
