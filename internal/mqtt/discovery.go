package mqtt

import (
	"encoding/json"
	"sort"

	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
)

// Message is a single outbound publication.
type Message struct {
	Topic   string
	Payload string
	Retain  bool
}

// DiscoveryMessage renders the retained config publication of e. It returns
// nil when e has no discovery config in ctx.
func DiscoveryMessage(ctx entity.DiscoveryContext, e entity.Discoverable) (*Message, error) {
	cfg := e.GetAutoDiscoveryConfig(ctx)
	if cfg == nil {
		return nil, nil
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	return &Message{
		Topic:   entity.ConfigTopic(ctx, e.Identity()),
		Payload: string(payload),
		Retain:  true,
	}, nil
}

// AvailabilityMessages publishes payload on the shared sensor availability
// topic and on the availability topic of every domain in use.
func AvailabilityMessages(ctx entity.DiscoveryContext, domains []string, payload string) []Message {
	seen := map[string]bool{entity.DOMAIN_SENSOR: true}
	all := []string{entity.DOMAIN_SENSOR}
	for _, d := range domains {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		all = append(all, d)
	}
	sort.Strings(all[1:])

	msgs := make([]Message, 0, len(all))
	for _, d := range all {
		msgs = append(msgs, Message{
			Topic:   entity.AvailabilityTopic(ctx, d),
			Payload: payload,
			Retain:  true,
		})
	}
	return msgs
}

// StateMessages renders the state publication of s, plus its attributes when
// the sensor publishes them.
func StateMessages(ctx entity.DiscoveryContext, s entity.Sensor) []Message {
	id := s.Identity()
	msgs := []Message{{
		Topic:   entity.StateTopic(ctx, id),
		Payload: s.State(),
	}}
	if id.UseAttributes {
		msgs = append(msgs, Message{
			Topic:   entity.AttributesTopic(ctx, id),
			Payload: s.Attributes(),
		})
	}
	return msgs
}

// CommandStateMessage renders the retained state publication of c.
func CommandStateMessage(ctx entity.DiscoveryContext, c entity.Command) Message {
	return Message{
		Topic:   entity.StateTopic(ctx, c.Identity()),
		Payload: c.State(),
		Retain:  true,
	}
}
