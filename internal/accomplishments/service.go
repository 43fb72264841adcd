package accomplishments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/ipcr"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
	"github.com/angelmondragon/servicedesk-backend/pkg/types"
)

// Output is one option offered for ipcr_code_id.
type Output struct {
	ID                      int64           `json:"id"`
	IndividualOutput        string          `json:"individual_output"`
	IndividualFinalOutputID json.RawMessage `json:"individual_final_output_id"`
}

// Service lists the output codes the caller can report against.
type Service interface {
	ListOutputs(ctx context.Context, actor types.Actor) ([]Output, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// ServiceParams bundles the output listing dependencies.
type ServiceParams struct {
	Users  userLookup
	Client Client
	Cache  OutputCache
	Logger *logger.Logger
}

type service struct {
	users  userLookup
	client Client
	cache  OutputCache
	logg   *logger.Logger
}

func NewService(p ServiceParams) (Service, error) {
	if p.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if p.Client == nil {
		return nil, fmt.Errorf("accomplishment client required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{users: p.Users, client: p.Client, cache: p.Cache, logg: p.Logger}, nil
}

// ListOutputs reads through the cache; a cache failure only costs a remote call.
func (s *service) ListOutputs(ctx context.Context, actor types.Actor) ([]Output, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.FromRepo(err, "user", actor.UserID)
	}
	empCode := user.EmployeeCode()
	if empCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, MessageNoEmpCode)
	}

	codes, hit := s.cached(ctx, empCode)
	if !hit {
		codes, err = s.client.ListOutputCodes(ctx, empCode)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, empCode, codes); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "accomplishment.output_cache_write_failed")
			}
		}
	}

	out := make([]Output, 0, len(codes))
	for _, c := range codes {
		out = append(out, Output{ID: c.ID, IndividualOutput: c.Label(), IndividualFinalOutputID: c.IndividualFinalOutputID})
	}
	return out, nil
}

func (s *service) cached(ctx context.Context, empCode string) ([]ipcr.OutputCode, bool) {
	if s.cache == nil {
		return nil, false
	}
	codes, ok, err := s.cache.Get(ctx, empCode)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "accomplishment.output_cache_read_failed")
		return nil, false
	}
	return codes, ok
}
