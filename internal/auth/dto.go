package auth

import "github.com/angelmondragon/servicedesk-backend/internal/users"

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest trades a refresh token for a new access token. The access token
// may already be expired.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponse carries the token pair and the signed-in user.
type TokenResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}
