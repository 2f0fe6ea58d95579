package directory

import "time"

// Role decides which menu and flows a participant gets.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleSteward Role = "steward"
	RoleAgent   Role = "agent"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSteward, RoleAgent:
		return true
	}
	return false
}

// Label is the human-readable role name.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleSteward:
		return "Steward"
	case RoleAgent:
		return "Sales agent"
	}
	return string(r)
}

// Participant is a registered chat user.
type Participant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Number returns the phone number part of the channel address.
func (p Participant) Number() string {
	return Number(p.ID)
}
