package assignments

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
	"gorm.io/gorm"
)

const defaultReportDescription = "Ticket resolved"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Reporter submits completed work to the accomplishment service.
type Reporter interface {
	Report(ctx context.Context, actor types.Actor, store accomplishments.ReportStore, target accomplishments.Target) accomplishments.Outcome
}

// Service drives an assignee through Proceed, Save Time and Complete.
type Service interface {
	ProceedToWork(ctx context.Context, actor types.Actor, assignmentID uint) (*Result, error)
	SaveTime(ctx context.Context, input SaveTimeInput) (*Result, error)
	CompleteWork(ctx context.Context, input CompleteInput) (*Result, error)
	LinkAccomplishment(ctx context.Context, input LinkInput) (*Result, error)
	ListMine(ctx context.Context, actor types.Actor, includeCompleted bool) ([]AssignmentDTO, error)
}

type SaveTimeInput struct {
	Actor        types.Actor
	AssignmentID uint
	Minutes      int
	Seconds      int
}

type CompleteInput struct {
	Actor        types.Actor
	AssignmentID uint
	Details      WorkDetails
}

type LinkInput struct {
	Actor        types.Actor
	AssignmentID uint
	IPCRCodeID   int64
}

// ServiceParams bundles the assignment service dependencies.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Reporter Reporter
	Logger   *logger.Logger
	Metrics  *metrics.LifecycleMetrics
	Now      func() time.Time
}

type service struct {
	repo     Repository
	tx       txRunner
	reporter Reporter
	logg     *logger.Logger
	metrics  *metrics.LifecycleMetrics
	now      func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Reporter == nil {
		return nil, fmt.Errorf("accomplishment reporter required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := p.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:     p.Repo,
		tx:       p.Tx,
		reporter: p.Reporter,
		logg:     p.Logger,
		metrics:  p.Metrics,
		now:      now,
	}, nil
}

// ProceedToWork opens time entry. The parent request row is locked first so a
// concurrent reassignment cannot delete the assignment between check and update.
func (s *service) ProceedToWork(ctx context.Context, actor types.Actor, assignmentID uint) (*Result, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	var updated *models.Assignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.loadOwned(ctx, repo, actor, assignmentID)
		if err != nil {
			return err
		}
		if err := repo.LockRequest(ctx, current.RequestID); err != nil {
			return pkgerrors.FromRepo(err, "request", current.RequestID)
		}
		current, err = s.loadOwned(ctx, repo, actor, assignmentID)
		if err != nil {
			return err
		}

		change, err := PlanProceed(*current, s.now())
		if err != nil {
			return err
		}
		if err := apply(ctx, repo, assignmentID, change); err != nil {
			return err
		}
		updated, err = repo.FindByID(ctx, assignmentID)
		return pkgerrors.FromRepo(err, "assignment", assignmentID)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition("assignment", string(enums.WorkStatusOnProcess))
	s.logg.Info(s.logg.WithField(ctx, "assignment_id", assignmentID), "assignment.proceeded")
	return &Result{Assignment: FromModel(*updated)}, nil
}

func (s *service) SaveTime(ctx context.Context, input SaveTimeInput) (*Result, error) {
	if err := ValidateTime(input.Minutes, input.Seconds); err != nil {
		return nil, err
	}
	if input.Actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	current, err := s.loadOwned(ctx, s.repo, input.Actor, input.AssignmentID)
	if err != nil {
		return nil, err
	}
	change, err := PlanSaveTime(*current, input.Minutes, input.Seconds)
	if err != nil {
		return nil, err
	}
	if err := apply(ctx, s.repo, input.AssignmentID, change); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, input.AssignmentID)
	if err != nil {
		return nil, pkgerrors.FromRepo(err, "assignment", input.AssignmentID)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"assignment_id": input.AssignmentID,
		"time":          FormatTime(*updated),
	}), "assignment.time_saved")
	return &Result{Assignment: FromModel(*updated)}, nil
}

// CompleteWork commits the findings first; the accomplishment report runs only
// after the Completed row is persisted and cannot undo it.
func (s *service) CompleteWork(ctx context.Context, input CompleteInput) (*Result, error) {
	if input.Actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	current, err := s.loadOwned(ctx, s.repo, input.Actor, input.AssignmentID)
	if err != nil {
		return nil, err
	}
	change, err := PlanComplete(*current, input.Details, s.now())
	if err != nil {
		return nil, err
	}
	if err := apply(ctx, s.repo, input.AssignmentID, change); err != nil {
		return nil, err
	}
	s.metrics.IncTransition("assignment", string(enums.WorkStatusCompleted))

	updated, err := s.repo.FindByID(ctx, input.AssignmentID)
	if err != nil {
		return nil, pkgerrors.FromRepo(err, "assignment", input.AssignmentID)
	}
	s.logg.Info(s.logg.WithField(ctx, "assignment_id", input.AssignmentID), "assignment.completed")

	result := &Result{}
	if updated.IPCRCodeID != nil && accomplishments.NeedsReport(updated.ReportStatus) {
		outcome := s.report(ctx, input.Actor, *updated)
		result.Report = &outcome
		if updated, err = s.reload(ctx, updated); err != nil {
			return nil, err
		}
	}
	result.Assignment = FromModel(*updated)
	return result, nil
}

// LinkAccomplishment attaches an output code to completed work after the fact.
// Re-linking a confirmed code is a no-op; a failed one is retried.
func (s *service) LinkAccomplishment(ctx context.Context, input LinkInput) (*Result, error) {
	if input.Actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if input.IPCRCodeID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ipcr_code_id must be positive").
			WithDetails(map[string]any{"field": "ipcr_code_id"})
	}

	current, err := s.repo.FindByID(ctx, input.AssignmentID)
	if err != nil {
		return nil, pkgerrors.FromRepo(err, "assignment", input.AssignmentID)
	}
	if current.UserID != input.Actor.UserID && !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the assignee can link this assignment")
	}
	if current.Status != enums.WorkStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only completed work can be reported")
	}

	if updates := accomplishments.LinkUpdates(current.IPCRCodeID, current.ReportStatus, input.IPCRCodeID); len(updates) > 0 {
		if err := s.repo.UpdateReport(ctx, current.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link accomplishment")
		}
		if current, err = s.reload(ctx, current); err != nil {
			return nil, err
		}
	}

	result := &Result{}
	if accomplishments.NeedsReport(current.ReportStatus) {
		outcome := s.report(ctx, input.Actor, *current)
		result.Report = &outcome
		if current, err = s.reload(ctx, current); err != nil {
			return nil, err
		}
	}
	result.Assignment = FromModel(*current)
	return result, nil
}

func (s *service) ListMine(ctx context.Context, actor types.Actor, includeCompleted bool) ([]AssignmentDTO, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	rows, err := s.repo.ListForUser(ctx, actor.UserID, includeCompleted)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	out := make([]AssignmentDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) loadOwned(ctx context.Context, repo Repository, actor types.Actor, id uint) (*models.Assignment, error) {
	a, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromRepo(err, "assignment", id)
	}
	if a.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the assignee can work on this assignment")
	}
	return a, nil
}

func (s *service) reload(ctx context.Context, a *models.Assignment) (*models.Assignment, error) {
	fresh, err := s.repo.FindByID(ctx, a.ID)
	if err != nil {
		return nil, pkgerrors.FromRepo(err, "assignment", a.ID)
	}
	return fresh, nil
}

// report files the assignment under the assignee's employee code, whoever
// triggers it, dated on the day the work was completed.
func (s *service) report(ctx context.Context, actor types.Actor, a models.Assignment) accomplishments.Outcome {
	target := accomplishments.Target{
		Kind:        enums.ReportTargetAssignment,
		ID:          a.ID,
		IPCRCodeID:  *a.IPCRCodeID,
		Description: defaultReportDescription,
	}
	if a.User != nil {
		target.EmpCode = a.User.EmployeeCode()
	}
	if a.CompletedAt != nil {
		target.Date = *a.CompletedAt
	}
	if a.Resolution != nil && strings.TrimSpace(*a.Resolution) != "" {
		target.Description = strings.TrimSpace(*a.Resolution)
	}
	return s.reporter.Report(ctx, actor, s.repo, target)
}

// apply runs a guarded transition; no matching row means another call moved the
// assignment first.
func apply(ctx context.Context, repo Repository, id uint, change Change) error {
	affected, err := repo.Transition(ctx, id, change.Guard, change.Updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update assignment")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment changed concurrently; reload and retry")
	}
	return nil
}
