package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/servicedesk-backend/internal/users"
	pkgAuth "github.com/angelmondragon/servicedesk-backend/pkg/auth"
	"github.com/angelmondragon/servicedesk-backend/pkg/auth/session"
	"github.com/angelmondragon/servicedesk-backend/pkg/config"
	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/security"
	"gorm.io/gorm"
)

const invalidCredentialsMessage = "invalid credentials"

// Service signs staff in and out.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	users   userRepository
	session sessionManager
	jwtCfg  config.JWTConfig
	now     func() time.Time
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	Now            func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		users:   params.UserRepo,
		session: params.SessionManager,
		jwtCfg:  params.JWTConfig,
		now:     now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	accessID := session.NewAccessID()
	accessToken, err := s.mint(user, accessID, now)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	return &TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken, User: users.FromModel(user)}, nil
}

// Refresh re-reads the user so role changes and deactivation apply on the next token.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, refreshToken, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		_ = s.session.Revoke(ctx, newAccessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is not active")
	}

	accessToken, err := s.mint(user, newAccessID, s.now())
	if err != nil {
		return nil, err
	}
	return &TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken, User: users.FromModel(user)}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) mint(user *models.User, accessID string, now time.Time) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.ToLower(strings.TrimSpace(email))
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive || !user.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}
