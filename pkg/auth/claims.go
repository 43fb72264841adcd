package auth

import (
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uint
	Role   enums.UserRole
	// JTI doubles as the session id; a fresh one is generated when empty.
	JTI string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID uint           `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
