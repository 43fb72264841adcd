// Package bookings tracks resource reservations through release and return.
package bookings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/servicedesk-backend/internal/accomplishments"
	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
	"github.com/angelmondragon/servicedesk-backend/pkg/metrics"
	"github.com/angelmondragon/servicedesk-backend/pkg/types"
)

const defaultReportDescription = "Booking completed"

// Reporter submits a booking to the accomplishment service.
type Reporter interface {
	Report(ctx context.Context, actor types.Actor, store accomplishments.ReportStore, target accomplishments.Target) accomplishments.Outcome
}

type catalogChecker interface {
	EnsureOffice(ctx context.Context, officeID uint) (*models.Office, error)
	EnsureService(ctx context.Context, serviceID uint) (*models.Service, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Service defines booking operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Result, error)
	Update(ctx context.Context, input UpdateInput) (*Result, error)
	Get(ctx context.Context, actor types.Actor, id uint) (*BookingDTO, error)
	List(ctx context.Context, actor types.Actor, filter RangeFilter) ([]CalendarEvent, error)
	SetReleased(ctx context.Context, input ReleaseInput) (*BookingDTO, error)
	SetReturned(ctx context.Context, input ReturnInput) (*BookingDTO, error)
	LinkAccomplishment(ctx context.Context, input LinkInput) (*Result, error)
}

type CreateInput struct {
	Actor      types.Actor
	ServiceID  uint
	OfficeID   uint
	Purpose    string
	BookedAt   time.Time
	ReturnedAt *time.Time
	IPCRCodeID *int64
}

type UpdateInput struct {
	Actor      types.Actor
	BookingID  uint
	Edit       Edit
	IPCRCodeID *int64
}

type ReleaseInput struct {
	Actor     types.Actor
	BookingID uint
	Released  bool
	ReleaseTo string
	ReleaseBy string
}

type ReturnInput struct {
	Actor     types.Actor
	BookingID uint
	Returned  bool
	ReturnBy  string
}

type LinkInput struct {
	Actor      types.Actor
	BookingID  uint
	IPCRCodeID int64
}

// ServiceParams bundles the booking service dependencies.
type ServiceParams struct {
	Repo     Repository
	Catalog  catalogChecker
	Users    userLookup
	Reporter Reporter
	Logger   *logger.Logger
	Metrics  *metrics.LifecycleMetrics
	Now      func() time.Time
}

type service struct {
	repo     Repository
	catalog  catalogChecker
	users    userLookup
	reporter Reporter
	logg     *logger.Logger
	metrics  *metrics.LifecycleMetrics
	now      func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Repo == nil:
		return nil, fmt.Errorf("bookings repository required")
	case p.Catalog == nil:
		return nil, fmt.Errorf("catalog required")
	case p.Users == nil:
		return nil, fmt.Errorf("users repository required")
	case p.Reporter == nil:
		return nil, fmt.Errorf("accomplishment reporter required")
	case p.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	now := p.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:     p.Repo,
		catalog:  p.Catalog,
		users:    p.Users,
		reporter: p.Reporter,
		logg:     p.Logger,
		metrics:  p.Metrics,
		now:      now,
	}, nil
}

// Create stores a Pending booking and reports it right away when it carries a code.
func (s *service) Create(ctx context.Context, input CreateInput) (*Result, error) {
	if input.Actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	purpose := strings.TrimSpace(input.Purpose)
	if purpose == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purpose is required").WithDetails(map[string]any{"field": "purpose"})
	}
	if err := validateDates(input.BookedAt, input.ReturnedAt); err != nil {
		return nil, err
	}
	if err := validateCode(input.IPCRCodeID); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, &input.ServiceID, &input.OfficeID); err != nil {
		return nil, err
	}

	b := &models.Booking{
		ServiceID:    input.ServiceID,
		OfficeID:     input.OfficeID,
		Purpose:      purpose,
		BookedAt:     input.BookedAt,
		ReturnedAt:   input.ReturnedAt,
		Status:       enums.BookingStatusPending,
		ReportStatus: enums.ReportStatusUnlinked,
		CreatedBy:    &input.Actor.UserID,
	}
	if input.IPCRCodeID != nil {
		b.IPCRCodeID = input.IPCRCodeID
		b.ReportStatus = enums.ReportStatusLinked
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
	}
	s.logg.Info(s.logg.WithField(ctx, "booking_id", b.ID), "booking.created")

	return s.reportIfNeeded(ctx, input.Actor, b.ID)
}

// Update edits booking details while Pending. An output code sent along is
// reported whatever the status.
func (s *service) Update(ctx context.Context, input UpdateInput) (*Result, error) {
	if input.Actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := validateCode(input.IPCRCodeID); err != nil {
		return nil, err
	}
	current, err := s.repo.FindByID(ctx, input.BookingID)
	if err != nil {
		return nil, pkgerrors.FromRepo(err, "booking", input.BookingID)
	}

	updates, err := PlanEdit(*current, input.Edit)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, input.Edit.ServiceID, input.Edit.OfficeID); err != nil {
		return nil, err
	}

	edited := len(updates) > 0
	if input.IPCRCodeID != nil {
		for k, v := range accomplishments.LinkUpdates(current.IPCRCodeID, current.ReportStatus, *input.IPCRCodeID) {
			updates[k] = v
		}
	}
	if err := s.write(ctx, current.ID, edited, updates); err != nil {
		return nil, err
	}

	if input.IPCRCodeID == nil {
		fresh, err := s.load(ctx, current.ID)
		if err != nil {
			return nil, err
		}
		return &Result{Booking: FromModel(*fresh)}, nil
	}
	return s.reportIfNeeded(ctx, input.Actor, current.ID)
}

func (s *service) Get(ctx context.Context, actor types.Actor, id uint) (*BookingDTO, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*b)
	return &dto, nil
}

// List feeds the booking calendar for a date range.
func (s *service) List(ctx context.Context, actor types.Actor, filter RangeFilter) ([]CalendarEvent, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "to must not be before from")
	}
	rows, err := s.repo.ListRange(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	events := make([]CalendarEvent, 0, len(rows))
	for _, b := range rows {
		events = append(events, EventOf(b))
	}
	return events, nil
}

func (s *service) SetReleased(ctx context.Context, input ReleaseInput) (*BookingDTO, error) {
	if input.Actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	current, err := s.load(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	change, err := PlanRelease(*current, input.Released, input.ReleaseTo, input.ReleaseBy, s.now())
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, current.ID, change)
}

func (s *service) SetReturned(ctx context.Context, input ReturnInput) (*BookingDTO, error) {
	if input.Actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	current, err := s.load(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	change, err := PlanReturn(*current, input.Returned, input.ReturnBy)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, current.ID, change)
}

// LinkAccomplishment attaches an output code to a booking. A confirmed code is
// not sent again; a failed one is retried.
func (s *service) LinkAccomplishment(ctx context.Context, input LinkInput) (*Result, error) {
	if input.Actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	code := input.IPCRCodeID
	if err := validateCode(&code); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if updates := accomplishments.LinkUpdates(current.IPCRCodeID, current.ReportStatus, code); len(updates) > 0 {
		if err := s.repo.UpdateReport(ctx, current.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link accomplishment")
		}
	}
	return s.reportIfNeeded(ctx, input.Actor, current.ID)
}

// write stores an edit. Detail changes only land while the row is still
// Pending; a code alone is attached in any status.
func (s *service) write(ctx context.Context, id uint, edited bool, updates map[string]any) error {
	if !edited {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking")
		}
		return nil
	}
	affected, err := s.repo.Transition(ctx, id, enums.BookingStatusPending, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "booking details are locked once released")
	}
	return nil
}

func (s *service) apply(ctx context.Context, id uint, change Change) (*BookingDTO, error) {
	affected, err := s.repo.Transition(ctx, id, change.From, change.Updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking changed concurrently; reload and retry")
	}
	to := change.Updates["status"].(enums.BookingStatus)
	s.metrics.IncTransition("booking", string(to))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"booking_id": id, "status": to}), "booking.status_changed")

	fresh, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*fresh)
	return &dto, nil
}

// reportIfNeeded reloads the booking and reports it under the acting user's
// employee code when its report status calls for it.
func (s *service) reportIfNeeded(ctx context.Context, actor types.Actor, id uint) (*Result, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.IPCRCodeID == nil || !accomplishments.NeedsReport(b.ReportStatus) {
		return &Result{Booking: FromModel(*b)}, nil
	}

	target := accomplishments.Target{
		Kind:        enums.ReportTargetBooking,
		ID:          b.ID,
		IPCRCodeID:  *b.IPCRCodeID,
		Description: defaultReportDescription,
	}
	if purpose := strings.TrimSpace(b.Purpose); purpose != "" {
		target.Description = purpose
	}
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"booking_id": b.ID, "error": err.Error()}), "booking.reporter_lookup_failed")
	} else {
		target.EmpCode = user.EmployeeCode()
	}

	outcome := s.reporter.Report(ctx, actor, s.repo, target)
	if b, err = s.load(ctx, id); err != nil {
		return nil, err
	}
	return &Result{Booking: FromModel(*b), Report: &outcome}, nil
}

func (s *service) load(ctx context.Context, id uint) (*models.Booking, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromRepo(err, "booking", id)
	}
	return b, nil
}

func (s *service) checkRefs(ctx context.Context, serviceID, officeID *uint) error {
	if serviceID != nil {
		if _, err := s.catalog.EnsureService(ctx, *serviceID); err != nil {
			return err
		}
	}
	if officeID != nil {
		if _, err := s.catalog.EnsureOffice(ctx, *officeID); err != nil {
			return err
		}
	}
	return nil
}

func validateCode(code *int64) error {
	if code != nil && *code <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "ipcr_code_id must be positive").
			WithDetails(map[string]any{"field": "ipcr_code_id"})
	}
	return nil
}
