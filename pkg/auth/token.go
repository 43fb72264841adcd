package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintAccessToken issues a signed JWT for the provided payload using the configured TTL.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return "", fmt.Errorf("jwt expiration minutes must be positive")
	}
	if payload.UserID == 0 {
		return "", fmt.Errorf("user id is required")
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", payload.Role)
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := AccessTokenClaims{
		UserID: payload.UserID,
		Role:   payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   fmt.Sprintf("%d", payload.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates the JWT string and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	return parse(cfg, tokenString, jwt.WithIssuer(cfg.Issuer))
}

// ParseAccessTokenAllowExpired skips exp/nbf validation so refresh can read the jti
// of an expired token.
func ParseAccessTokenAllowExpired(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	return parse(cfg, tokenString, jwt.WithoutClaimsValidation(), jwt.WithIssuer(cfg.Issuer))
}

func parse(cfg config.JWTConfig, tokenString string, opts ...jwt.ParserOption) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	opts = append(opts, jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}))
	claims := &AccessTokenClaims{}
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwtSigningMethod {
			return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims.UserID == 0 || !claims.Role.IsValid() {
		return nil, fmt.Errorf("token is missing user or role")
	}
	return claims, nil
}
