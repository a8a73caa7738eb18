package model

import "fmt"

// Role is the closed set of user roles the service dispatches on.
type Role string

const (
	RoleStudent       Role = "student"
	RoleInstructor    Role = "instructor"
	RoleAdministrator Role = "administrator"
)

// ParseRole validates a raw role claim.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleInstructor, RoleAdministrator:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Actor identifies the authenticated user performing an operation.
// It is resolved once per request by the auth middleware and passed
// explicitly into every service call.
type Actor struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

func (a Actor) IsStudent() bool       { return a.Role == RoleStudent }
func (a Actor) IsInstructor() bool    { return a.Role == RoleInstructor }
func (a Actor) IsAdministrator() bool { return a.Role == RoleAdministrator }
