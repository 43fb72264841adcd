// Package catalog serves the offices, service categories and services that
// requests and bookings are classified against.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
)

// Category is a service classification. Codes are fixed.
type Category struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// Categories lists every classification, ordered by name.
var Categories = []Category{
	{Code: 6, Name: "Application Development Services"},
	{Code: 1, Name: "Application Managed Services"},
	{Code: 8, Name: "Communication Services"},
	{Code: 2, Name: "Connectivity Management Services"},
	{Code: 7, Name: "Equipment/Tool Borrowing"},
	{Code: 4, Name: "ICT Support Repair"},
	{Code: 5, Name: "Other Technical Services"},
	{Code: 3, Name: "Preventive Maintenance"},
}

// CategoryName returns the classification name for code.
func CategoryName(code int) (string, bool) {
	for _, c := range Categories {
		if c.Code == code {
			return c.Name, true
		}
	}
	return "", false
}

// Service defines catalog reads plus the membership checks used when classifying.
type Service interface {
	ListOffices(ctx context.Context) ([]models.Office, error)
	ListCategories() []Category
	ListServices(ctx context.Context, categoryCode *int) ([]models.Service, error)
	EnsureServiceInCategory(ctx context.Context, serviceID uint, categoryCode int) (*models.Service, error)
	EnsureOffice(ctx context.Context, officeID uint) (*models.Office, error)
	EnsureService(ctx context.Context, serviceID uint) (*models.Service, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListOffices(ctx context.Context) ([]models.Office, error) {
	rows, err := s.repo.ListOffices(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offices")
	}
	return rows, nil
}

func (s *service) ListCategories() []Category {
	out := append([]Category(nil), Categories...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *service) ListServices(ctx context.Context, categoryCode *int) ([]models.Service, error) {
	if categoryCode != nil {
		if _, ok := CategoryName(*categoryCode); !ok {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown category %d", *categoryCode)
		}
	}
	rows, err := s.repo.ListServices(ctx, categoryCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list services")
	}
	return rows, nil
}

// EnsureServiceInCategory rejects a service that is not classified under categoryCode.
func (s *service) EnsureServiceInCategory(ctx context.Context, serviceID uint, categoryCode int) (*models.Service, error) {
	if _, ok := CategoryName(categoryCode); !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown category %d", categoryCode).
			WithDetails(map[string]any{"field": "category_id"})
	}
	svc, err := s.EnsureService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.ClassificationCode != categoryCode {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "service %d does not belong to category %d", serviceID, categoryCode).
			WithDetails(map[string]any{"field": "service_id"})
	}
	return svc, nil
}

func (s *service) EnsureService(ctx context.Context, serviceID uint) (*models.Service, error) {
	svc, err := s.repo.FindService(ctx, serviceID)
	if err != nil {
		return nil, asValidation(pkgerrors.FromRepo(err, "service", serviceID), "service_id")
	}
	return svc, nil
}

func (s *service) EnsureOffice(ctx context.Context, officeID uint) (*models.Office, error) {
	office, err := s.repo.FindOffice(ctx, officeID)
	if err != nil {
		return nil, asValidation(pkgerrors.FromRepo(err, "office", officeID), "office_id")
	}
	return office, nil
}

// asValidation turns a missing reference into a field error; other failures pass through.
func asValidation(err error, field string) error {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
		return pkgerrors.New(pkgerrors.CodeValidation, typed.Message()).WithDetails(map[string]any{"field": field})
	}
	return err
}
