package domain

// EntityInfo describes a registered entity for introspection.
type EntityInfo struct {
	Id             string   `json:"id"`
	Name           string   `json:"name,omitempty"`
	EntityName     string   `json:"entity_name"`
	ObjectId       string   `json:"object_id"`
	Domain         string   `json:"domain"`
	Kind           string   `json:"kind"`
	State          string   `json:"state"`
	UpdateInterval float64  `json:"update_interval,omitempty"`
	Children       []string `json:"children,omitempty"`
	Stale          []string `json:"stale,omitempty"`
}
