// Package requests manages service tickets: intake, classification, assignee
// reconciliation and the derived status listings are ordered by.
package requests

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/servicedesk-backend/internal/assignments"
	"github.com/angelmondragon/servicedesk-backend/pkg/db"
	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
	"github.com/angelmondragon/servicedesk-backend/pkg/metrics"
	"github.com/angelmondragon/servicedesk-backend/pkg/pagination"
	"github.com/angelmondragon/servicedesk-backend/pkg/types"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogChecker interface {
	EnsureOffice(ctx context.Context, officeID uint) (*models.Office, error)
	EnsureServiceInCategory(ctx context.Context, serviceID uint, categoryCode int) (*models.Service, error)
}

type activeUsers interface {
	ActiveIDs(ctx context.Context, ids []uint) ([]uint, error)
}

// Service defines request operations.
type Service interface {
	SubmitPublic(ctx context.Context, input PublicInput) (*RequestDTO, error)
	Create(ctx context.Context, input CreateInput) (*RequestDTO, error)
	UpdateClassification(ctx context.Context, input ClassificationInput) (*RequestDTO, error)
	Get(ctx context.Context, actor types.Actor, id uint) (*RequestDTO, error)
	GetStatus(ctx context.Context, actor types.Actor, id uint) (*Status, error)
	List(ctx context.Context, actor types.Actor, params ListParams) (*types.List[RequestDTO], error)
	ServiceTimes(ctx context.Context, actor types.Actor, id uint) (*ServiceTimes, error)
	AssignUsers(ctx context.Context, input AssignInput) (*AssignResult, error)
	SetReturnBy(ctx context.Context, input ReturnByInput) (int64, error)
	Delete(ctx context.Context, actor types.Actor, id uint) error
	Restore(ctx context.Context, actor types.Actor, id uint) error
}

// PublicInput is an unauthenticated submission from the intake form.
type PublicInput struct {
	CatsNo   string
	Name     string
	OfficeID uint
	Remarks  string
}

type CreateInput struct {
	Actor          types.Actor
	CatsNo         string
	Name           string
	OfficeID       uint
	Remarks        string
	Classification Classification
}

// ClassificationInput patches triage fields. Clear names columns to reset to null.
type ClassificationInput struct {
	Actor          types.Actor
	RequestID      uint
	Classification Classification
	Clear          []string
}

type ListParams struct {
	Status *enums.AggregateStatus
	Offset int
	Limit  int
}

type AssignInput struct {
	Actor     types.Actor
	RequestID uint
	UserIDs   []uint
}

type ReturnByInput struct {
	Actor     types.Actor
	RequestID uint
	ReturnBy  string
}

// ServiceParams bundles the request service dependencies.
type ServiceParams struct {
	Repo        Repository
	Assignments assignments.Repository
	Catalog     catalogChecker
	Users       activeUsers
	Tx          txRunner
	Logger      *logger.Logger
	Metrics     *metrics.LifecycleMetrics
}

type service struct {
	repo        Repository
	assignments assignments.Repository
	catalog     catalogChecker
	users       activeUsers
	tx          txRunner
	logg        *logger.Logger
	metrics     *metrics.LifecycleMetrics
}

func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Repo == nil:
		return nil, fmt.Errorf("requests repository required")
	case p.Assignments == nil:
		return nil, fmt.Errorf("assignments repository required")
	case p.Catalog == nil:
		return nil, fmt.Errorf("catalog required")
	case p.Users == nil:
		return nil, fmt.Errorf("users repository required")
	case p.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case p.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        p.Repo,
		assignments: p.Assignments,
		catalog:     p.Catalog,
		users:       p.Users,
		tx:          p.Tx,
		logg:        p.Logger,
		metrics:     p.Metrics,
	}, nil
}

// SubmitPublic records an intake request. It carries no classification, so it
// lists as Update Required until staff triage it.
func (s *service) SubmitPublic(ctx context.Context, input PublicInput) (*RequestDTO, error) {
	req, err := s.intake(ctx, input.CatsNo, input.Name, input.OfficeID, input.Remarks)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create request")
	}
	s.logg.Info(s.logg.WithField(ctx, "request_id", req.ID), "request.submitted")
	return s.load(ctx, req.ID)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*RequestDTO, error) {
	if input.Actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	req, err := s.intake(ctx, input.CatsNo, input.Name, input.OfficeID, input.Remarks)
	if err != nil {
		return nil, err
	}
	plan, err := PlanClassification(*req, input.Classification, nil, false)
	if err != nil {
		return nil, err
	}
	if err := s.checkService(ctx, plan); err != nil {
		return nil, err
	}

	created := plan.Merged
	created.CreatedBy = &input.Actor.UserID
	if err := s.repo.Create(ctx, &created); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create request")
	}
	s.logg.Info(s.logg.WithField(ctx, "request_id", created.ID), "request.created")
	return s.load(ctx, created.ID)
}

func (s *service) intake(ctx context.Context, catsNo, name string, officeID uint, remarks string) (*models.Request, error) {
	name = strings.TrimSpace(name)
	remarks = strings.TrimSpace(remarks)
	switch {
	case name == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required").WithDetails(map[string]any{"field": "name"})
	case remarks == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "remarks are required").WithDetails(map[string]any{"field": "remarks"})
	case officeID == 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "office is required").WithDetails(map[string]any{"field": "office_id"})
	}
	if _, err := s.catalog.EnsureOffice(ctx, officeID); err != nil {
		return nil, err
	}

	req := &models.Request{
		OfficeID: &officeID,
		Name:     name,
		Remarks:  remarks,
		Status:   enums.WorkStatusPending,
	}
	if cats := strings.TrimSpace(catsNo); cats != "" {
		req.CatsNo = &cats
	}
	return req, nil
}

// UpdateClassification patches triage fields. The catalog check runs against the
// pre-lock snapshot; the lock then guards the assignment-dependent clear rule.
func (s *service) UpdateClassification(ctx context.Context, input ClassificationInput) (*RequestDTO, error) {
	if input.Actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	current, err := s.repo.FindByID(ctx, input.RequestID)
	if err != nil {
		return nil, pkgerrors.FromRepo(err, "request", input.RequestID)
	}
	plan, err := PlanClassification(*current, input.Classification, input.Clear, len(current.Assignments) > 0)
	if err != nil {
		return nil, err
	}
	if err := s.checkService(ctx, plan); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.assignments.WithTx(tx).LockRequest(ctx, input.RequestID); err != nil {
			return pkgerrors.FromRepo(err, "request", input.RequestID)
		}
		if len(input.Clear) > 0 {
			existing, err := s.assignments.WithTx(tx).ListByRequest(ctx, input.RequestID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignments")
			}
			if _, err := PlanClassification(*current, input.Classification, input.Clear, len(existing) > 0); err != nil {
				return err
			}
		}
		if err := s.repo.WithTx(tx).Update(ctx, input.RequestID, plan.Updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "request_id", input.RequestID), "request.classified")
	return s.load(ctx, input.RequestID)
}

func (s *service) checkService(ctx context.Context, plan ClassificationPlan) error {
	if !plan.ServiceChanged || plan.Merged.ServiceID == nil || plan.Merged.CategoryID == nil {
		return nil
	}
	_, err := s.catalog.EnsureServiceInCategory(ctx, *plan.Merged.ServiceID, *plan.Merged.CategoryID)
	return err
}

func (s *service) Get(ctx context.Context, actor types.Actor, id uint) (*RequestDTO, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return s.load(ctx, id)
}

func (s *service) load(ctx context.Context, id uint) (*RequestDTO, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromRepo(err, "request", id)
	}
	dto := FromModel(*req)
	return &dto, nil
}

// GetStatus recomputes the aggregate status from the current assignments.
func (s *service) GetStatus(ctx context.Context, actor types.Actor, id uint) (*Status, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromRepo(err, "request", id)
	}
	status := Evaluate(*req, req.Assignments)
	return &status, nil
}

// List orders by status rank then newest first, recomputed on every call.
func (s *service) List(ctx context.Context, actor types.Actor, params ListParams) (*types.List[RequestDTO], error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requests")
	}

	ranked := Rank(rows)
	if params.Status != nil {
		filtered := ranked[:0]
		for _, item := range ranked {
			if item.Status.Status == *params.Status {
				filtered = append(filtered, item)
			}
		}
		ranked = filtered
	}
	SortByStatusPriority(ranked)

	total := len(ranked)
	start, end := pagination.Page{Offset: params.Offset, Limit: params.Limit}.Window(total)
	items := make([]RequestDTO, 0, end-start)
	for _, item := range ranked[start:end] {
		items = append(items, toDTO(item.Request, item.Status))
	}
	return &types.List[RequestDTO]{Items: items, Total: &total}, nil
}

func (s *service) ServiceTimes(ctx context.Context, actor types.Actor, id uint) (*ServiceTimes, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromRepo(err, "request", id)
	}
	times := ComputeServiceTimes(*req, req.Assignments)
	return &times, nil
}

// AssignUsers reconciles the assignee set in one transaction. The request row lock
// serialises it with ProceedToWork, and the Pending guard on delete catches any
// assignment that started anyway.
func (s *service) AssignUsers(ctx context.Context, input AssignInput) (*AssignResult, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return nil, err
	}
	desired := uniqueIDs(input.UserIDs)
	if err := s.checkAssignees(ctx, desired); err != nil {
		return nil, err
	}

	var plan ReassignmentPlan
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		assignRepo := s.assignments.WithTx(tx)
		if err := assignRepo.LockRequest(ctx, input.RequestID); err != nil {
			return pkgerrors.FromRepo(err, "request", input.RequestID)
		}
		req, err := s.repo.WithTx(tx).FindByID(ctx, input.RequestID)
		if err != nil {
			return pkgerrors.FromRepo(err, "request", input.RequestID)
		}
		if err := CheckAssignable(*req, req.Assignments); err != nil {
			return err
		}

		plan = PlanReassignment(req.Assignments, desired)
		removed, err := assignRepo.DeletePending(ctx, req.ID, plan.ToRemove)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove assignees")
		}
		if int(removed) != len(plan.ToRemove) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "an assignee started work during reassignment")
		}

		rows := make([]models.Assignment, 0, len(plan.ToAdd))
		for _, userID := range plan.ToAdd {
			rows = append(rows, models.Assignment{
				RequestID:    req.ID,
				UserID:       userID,
				Status:       enums.WorkStatusPending,
				ReportStatus: enums.ReportStatusUnlinked,
			})
		}
		if err := assignRepo.CreateBatch(ctx, rows); err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "assignee already assigned")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add assignees")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition("request", "reassigned")
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"request_id": input.RequestID,
		"added":      len(plan.ToAdd),
		"removed":    len(plan.ToRemove),
	}), "request.assigned")
	return &AssignResult{Added: len(plan.ToAdd), Removed: len(plan.ToRemove), UserIDs: desired}, nil
}

func (s *service) checkAssignees(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	active, err := s.users.ActiveIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignees")
	}
	known := make(map[uint]struct{}, len(active))
	for _, id := range active {
		known[id] = struct{}{}
	}
	var unknown []uint
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown or inactive assignees").
			WithDetails(map[string]any{"user_ids": unknown})
	}
	return nil
}

// SetReturnBy is the admin override recording who returned completed work.
func (s *service) SetReturnBy(ctx context.Context, input ReturnByInput) (int64, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return 0, err
	}
	returnBy := strings.TrimSpace(input.ReturnBy)
	if returnBy == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "return_by is required").WithDetails(map[string]any{"field": "return_by"})
	}
	if _, err := s.repo.FindByID(ctx, input.RequestID); err != nil {
		return 0, pkgerrors.FromRepo(err, "request", input.RequestID)
	}

	affected, err := s.assignments.SetReturnByOnCompleted(ctx, input.RequestID, returnBy)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set return_by")
	}
	if affected == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "no completed assignments to update")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"request_id": input.RequestID, "updated": affected}), "request.return_by_set")
	return affected, nil
}

func (s *service) Delete(ctx context.Context, actor types.Actor, id uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	affected, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete request")
	}
	if affected == 0 {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "request %d not found", id)
	}
	s.logg.Info(s.logg.WithField(ctx, "request_id", id), "request.deleted")
	return nil
}

func (s *service) Restore(ctx context.Context, actor types.Actor, id uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	affected, err := s.repo.Restore(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore request")
	}
	if affected == 0 {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "deleted request %d not found", id)
	}
	s.logg.Info(s.logg.WithField(ctx, "request_id", id), "request.restored")
	return nil
}

// uniqueIDs drops zero and duplicate ids and sorts the rest.
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sortIDs(out)
	return out
}

func requireAdmin(actor types.Actor) error {
	if actor.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}
