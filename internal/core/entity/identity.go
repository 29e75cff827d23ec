package entity

import (
	"regexp"
	"sync"
)

const (
	DOMAIN_SENSOR        = "sensor"
	DOMAIN_BINARY_SENSOR = "binary_sensor"
	DOMAIN_SWITCH        = "switch"
	DOMAIN_BUTTON        = "button"
)

var objectIdInvalidChars = regexp.MustCompile("[^a-zA-Z0-9_-]")

// DeriveObjectId replaces every character outside [A-Za-z0-9_-] with '_'.
// Names that normalize to the same value collide on the bus.
func DeriveObjectId(rawName string) string {
	return objectIdInvalidChars.ReplaceAllString(rawName, "_")
}

// Identity holds the immutable identity fields shared by sensors and commands.
type Identity struct {
	Domain             string
	EntityName         string
	Name               string
	Id                 string
	UseAttributes      bool
	IgnoreAvailability bool

	objectIdMu sync.Mutex
	objectId   string
}

func NewIdentity(domain, entityName, name, id string) *Identity {
	return &Identity{
		Domain:     domain,
		EntityName: entityName,
		Name:       name,
		Id:         id,
	}
}

// ObjectId is derived from EntityName on first use and memoized afterwards.
func (i *Identity) ObjectId() string {
	i.objectIdMu.Lock()
	defer i.objectIdMu.Unlock()
	if i.objectId != "" {
		return i.objectId
	}
	i.objectId = DeriveObjectId(i.EntityName)
	return i.objectId
}

// SetObjectId overrides the memoized object id, normalizing the value.
func (i *Identity) SetObjectId(value string) {
	i.objectIdMu.Lock()
	defer i.objectIdMu.Unlock()
	i.objectId = DeriveObjectId(value)
}

// DisplayName returns Name, falling back to EntityName.
func (i *Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.EntityName
}
