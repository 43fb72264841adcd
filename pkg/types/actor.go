package types

import "github.com/angelmondragon/servicedesk-backend/pkg/enums"

// Actor is the authenticated caller an operation runs on behalf of.
type Actor struct {
	UserID uint
	Role   enums.UserRole
}

func (a Actor) IsZero() bool {
	return a.UserID == 0
}

func (a Actor) IsAdmin() bool {
	return a.Role.IsAdmin()
}
