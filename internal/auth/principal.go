package auth

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleCoach  Role = "coach"
	RoleClient Role = "client"
)

func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleCoach:
		return Role(s)
	}
	return RoleClient
}

type Capability uint8

const (
	// CapManageBookings lets a principal act on any user's bookings and waitlist entries.
	CapManageBookings Capability = 1 << iota
	// CapManageWaitlist covers manual waitlist notification and roster views.
	CapManageWaitlist
	// CapManageSessions covers session creation, status changes and deletion.
	CapManageSessions
)

var roleCapabilities = map[Role]Capability{
	RoleAdmin:  CapManageBookings | CapManageWaitlist | CapManageSessions,
	RoleCoach:  CapManageWaitlist,
	RoleClient: 0,
}

// Principal is the authenticated caller. Its capability set is fixed when it is
// built at the HTTP boundary; core logic only asks Can/Owns.
type Principal struct {
	UserID uuid.UUID
	Role   Role
	caps   Capability
}

func NewPrincipal(userID uuid.UUID, role Role) Principal {
	return Principal{UserID: userID, Role: role, caps: roleCapabilities[role]}
}

func (p Principal) Can(c Capability) bool {
	return c != 0 && p.caps&c == c
}

func (p Principal) Owns(userID uuid.UUID) bool {
	return p.UserID != uuid.Nil && p.UserID == userID
}

// IsStaff is true for admins and coaches.
func (p Principal) IsStaff() bool {
	return p.Can(CapManageWaitlist)
}
