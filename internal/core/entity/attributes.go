package entity

import (
	"encoding/json"
	"strings"
)

const EMPTY_ATTRIBUTES = "{}"

// MarshalAttributes renders v as pretty-printed JSON. Empty, null or
// unmarshalable values render as "{}".
func MarshalAttributes(v any) string {
	if v == nil {
		return EMPTY_ATTRIBUTES
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return EMPTY_ATTRIBUTES
	}
	return NormalizeAttributes(string(b))
}

func NormalizeAttributes(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == "null" {
		return EMPTY_ATTRIBUTES
	}
	return value
}
