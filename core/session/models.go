package session

import (
	"github.com/go-playground/validator/v10"
)

// Roles
const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

var AllRoles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

type Role string

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// RoleValidation is the validator.Func behind the `role` validation tag.
func RoleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).Valid()
}

// Session is the complete authenticated identity held for a logged-in user:
// identity fields plus the access/refresh token pair.
// Tokens are opaque strings from the client's point of view.
type Session struct {
	UserID         int    `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`

	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
}

// Valid reports whether the session is fully present: identity and both
// tokens non-empty. Anything less is treated as logged out.
func (s Session) Valid() bool {
	return s.Username != "" && s.Role.Valid() && s.AccessToken != "" && s.RefreshToken != ""
}

func (s Session) IsStudent() bool { return s.Role == RoleStudent }
func (s Session) IsTeacher() bool { return s.Role == RoleTeacher }
func (s Session) IsAdmin() bool   { return s.Role == RoleAdmin }

// Name returns the user's display name.
func (s Session) Name() string {
	switch {
	case s.FirstName != "" && s.LastName != "":
		return s.FirstName + " " + s.LastName
	case s.FirstName != "":
		return s.FirstName
	default:
		return s.Username
	}
}

// Allowed is the role guard predicate: it reports whether the session may
// access a region restricted to the given roles. An invalid (absent)
// session is denied regardless of the requirement; an empty requirement
// only demands a valid session.
func Allowed(s Session, roles ...Role) bool {
	if !s.Valid() {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if s.Role == role {
			return true
		}
	}
	return false
}
