package requests

import (
	"sort"
	"strings"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
)

// Classification carries the triage fields staff fill in. Nil leaves a field as it is.
type Classification struct {
	CategoryID   *int
	ServiceID    *uint
	Priority     *enums.Priority
	P3Agreed     *bool
	NoOfAffected *int
	ControlNo    *string
	Details      *string
	Checked      *bool
}

var clearableColumns = map[string]struct{}{
	"category_id":    {},
	"service_id":     {},
	"prio":           {},
	"no_of_affected": {},
	"control_no":     {},
	"details":        {},
}

// requiredColumns can only be cleared while nobody is assigned.
var requiredColumns = map[string]struct{}{
	"category_id":    {},
	"service_id":     {},
	"prio":           {},
	"no_of_affected": {},
}

// ClassificationPlan is the merged request plus the column updates that produce it.
type ClassificationPlan struct {
	Merged  models.Request
	Updates map[string]any
	// ServiceChanged is set when the service/category pair must be re-checked against the catalog.
	ServiceChanged bool
}

// PlanClassification applies c and clear to req and validates the result.
// hasAssignments forbids clearing any column that classification requires.
func PlanClassification(req models.Request, c Classification, clear []string, hasAssignments bool) (ClassificationPlan, error) {
	plan := ClassificationPlan{Merged: req, Updates: map[string]any{}}
	m := &plan.Merged

	cleared := make([]string, 0, len(clear))
	for _, raw := range clear {
		column := strings.TrimSpace(raw)
		if _, ok := clearableColumns[column]; !ok {
			return ClassificationPlan{}, pkgerrors.Newf(pkgerrors.CodeValidation, "%q cannot be cleared", raw)
		}
		if _, required := requiredColumns[column]; required && hasAssignments {
			return ClassificationPlan{}, pkgerrors.Newf(pkgerrors.CodeStateConflict, "%s cannot be cleared once staff are assigned", column)
		}
		cleared = append(cleared, column)
	}
	sort.Strings(cleared)
	for _, column := range cleared {
		plan.Updates[column] = nil
		switch column {
		case "category_id":
			m.CategoryID = nil
			plan.ServiceChanged = true
		case "service_id":
			m.ServiceID = nil
			plan.ServiceChanged = true
		case "prio":
			m.Priority = nil
		case "no_of_affected":
			m.NoOfAffected = nil
		case "control_no":
			m.ControlNo = nil
		case "details":
			m.Details = nil
		}
	}

	if c.CategoryID != nil {
		m.CategoryID = c.CategoryID
		plan.Updates["category_id"] = *c.CategoryID
		plan.ServiceChanged = true
	}
	if c.ServiceID != nil {
		m.ServiceID = c.ServiceID
		plan.Updates["service_id"] = *c.ServiceID
		plan.ServiceChanged = true
	}
	if c.Priority != nil {
		p, err := enums.ParsePriority(string(*c.Priority))
		if err != nil {
			return ClassificationPlan{}, pkgerrors.New(pkgerrors.CodeValidation, err.Error()).
				WithDetails(map[string]any{"field": "prio"})
		}
		m.Priority = &p
		plan.Updates["prio"] = p
	}
	if c.P3Agreed != nil {
		m.P3Agreed = *c.P3Agreed
		plan.Updates["p3_agreed"] = *c.P3Agreed
	}
	if c.NoOfAffected != nil {
		m.NoOfAffected = c.NoOfAffected
		plan.Updates["no_of_affected"] = *c.NoOfAffected
	}
	if c.ControlNo != nil {
		v := strings.TrimSpace(*c.ControlNo)
		m.ControlNo = &v
		plan.Updates["control_no"] = v
	}
	if c.Details != nil {
		v := strings.TrimSpace(*c.Details)
		m.Details = &v
		plan.Updates["details"] = v
	}
	if c.Checked != nil {
		m.Checked = *c.Checked
		plan.Updates["checked"] = *c.Checked
	}

	if err := validateClassification(*m); err != nil {
		return ClassificationPlan{}, err
	}
	return plan, nil
}

func validateClassification(r models.Request) error {
	if r.NoOfAffected != nil && *r.NoOfAffected < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no_of_affected must be at least 1").
			WithDetails(map[string]any{"field": "no_of_affected"})
	}
	if r.Priority != nil && *r.Priority == enums.PriorityP3 && !r.P3Agreed {
		return pkgerrors.New(pkgerrors.CodeValidation, "p3 priority requires the requester's agreement").
			WithDetails(map[string]any{"field": "p3_agreed"})
	}
	if r.ServiceID != nil && r.CategoryID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "choose a category before the service").
			WithDetails(map[string]any{"field": "category_id"})
	}
	return nil
}
