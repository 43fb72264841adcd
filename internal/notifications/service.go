package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/pagination"
	"github.com/angelmondragon/servicedesk-backend/pkg/types"
)

// Service defines notification create/list/read operations.
type Service interface {
	Notify(ctx context.Context, userID uint, level enums.NotificationLevel, title, message string) (*models.Notification, error)
	List(ctx context.Context, actor types.Actor, params ListParams) (*types.List[models.Notification], error)
	MarkRead(ctx context.Context, actor types.Actor, notificationID uint) error
	MarkAllRead(ctx context.Context, actor types.Actor) (int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ListParams configures pagination for notifications.
type ListParams struct {
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Notify persists a dismissible notice for userID.
func (s *service) Notify(ctx context.Context, userID uint, level enums.NotificationLevel, title, message string) (*models.Notification, error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !level.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid notification level %q", level)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification title required")
	}

	n := &models.Notification{
		UserID:    userID,
		Level:     level,
		Title:     title,
		Message:   strings.TrimSpace(message),
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return n, nil
}

func (s *service) List(ctx context.Context, actor types.Actor, params ListParams) (*types.List[models.Notification], error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	query := listParams{
		UserID:     actor.UserID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	if rows == nil {
		rows = []models.Notification{}
	}

	out := &types.List[models.Notification]{Items: rows}
	if next != nil {
		out.NextCursor = pagination.EncodeCursor(*next)
	}
	return out, nil
}

func (s *service) MarkRead(ctx context.Context, actor types.Actor, notificationID uint) error {
	if actor.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if notificationID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, actor.UserID, notificationID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "notification %d not found", notificationID)
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, actor types.Actor) (int64, error) {
	if actor.IsZero() {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	count, err := s.repo.MarkAllRead(ctx, actor.UserID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
