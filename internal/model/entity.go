package model

import "fmt"

// EntityType is the kind of schedulable resource.
type EntityType string

const (
	EntityAircraft EntityType = "aircraft"
	EntityCFI      EntityType = "cfi"
	EntityStudent  EntityType = "student"
)

// ParseEntityType validates a raw entity type string.
func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(s) {
	case EntityAircraft, EntityCFI, EntityStudent:
		return EntityType(s), nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// EntityRef is a roster entry: an opaque id plus a human-readable label
// (full name for people, tail number + model for aircraft).
type EntityRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
