package domain

import "fmt"

const (
	COMMAND_KIND_SET    = "set"
	COMMAND_KIND_ACTION = "action"
)

// CommandRequest is an inbound invocation of a command entity, addressed by
// the domain and object id found in its topic.
type CommandRequest struct {
	ActorRequestMixIn
	Domain   string
	ObjectId string
	Kind     string
	Payload  string
}

func (r CommandRequest) Key() string {
	return CommandKey(r.Domain, r.ObjectId)
}

type CommandResponse struct {
	ActorResponseMixIn
	EntityId string
	State    string
}

func CommandKey(domain, objectId string) string {
	return fmt.Sprintf("%s/%s", domain, objectId)
}
