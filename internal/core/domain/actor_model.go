package domain

const (
	ACTOR_ID_MASTER     = "master"
	ACTOR_ID_MQTT       = "mqtt"
	ACTOR_ID_POLLER     = "poller"
	ACTOR_ID_DISPATCHER = "dispatcher"
	ACTOR_ID_DISCOVERY  = "discovery"
)

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

// PublishDiscoveryRequest asks the discovery actor to announce the given
// entities. An empty list announces every registered entity.
type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	EntityIds []string
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
	Published int
}

type PollSensorRequest struct {
	ActorRequestMixIn
	EntityId string
}

type PollSensorResponse struct {
	ActorResponseMixIn
	EntityId string
	Added    []string
}

type ListEntitiesRequest struct {
	ActorRequestMixIn
}

type ListEntitiesResponse struct {
	ActorResponseMixIn
	Entities []EntityInfo
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
