package requests

import (
	"sort"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
)

// Status is the derived status of a request as shown in listings and badges.
type Status struct {
	Status      enums.AggregateStatus `json:"status"`
	Rank        int                   `json:"priority_rank"`
	Description string                `json:"description"`
}

// AggregateStatus derives the request status from its assignments. The rules are
// evaluated in order and the first match wins; missing classification always wins.
func AggregateStatus(req models.Request, assignments []models.Assignment) enums.AggregateStatus {
	if len(req.MissingClassification()) > 0 {
		return enums.AggregateStatusUpdateRequired
	}
	if len(assignments) == 0 {
		return enums.AggregateStatusPending
	}

	var started, onProcess, completed int
	for _, a := range assignments {
		switch a.Status {
		case enums.WorkStatusOnProcess:
			started++
			onProcess++
		case enums.WorkStatusCompleted:
			started++
			completed++
		}
	}

	switch {
	case started == 0:
		return enums.AggregateStatusPending
	case onProcess > 0:
		return enums.AggregateStatusOnProcess
	case completed == len(assignments):
		return enums.AggregateStatusClosed
	default:
		return enums.AggregateStatusMixed
	}
}

// Evaluate wraps AggregateStatus with its rank and description.
func Evaluate(req models.Request, assignments []models.Assignment) Status {
	status := AggregateStatus(req, assignments)
	return Status{Status: status, Rank: status.Rank(), Description: status.Description()}
}

// Ranked pairs a request with its status for ordering.
type Ranked struct {
	Request models.Request
	Status  Status
}

// Rank evaluates every request using its preloaded Assignments.
func Rank(reqs []models.Request) []Ranked {
	out := make([]Ranked, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, Ranked{Request: r, Status: Evaluate(r, r.Assignments)})
	}
	return out
}

// SortByStatusPriority orders by rank ascending, newest first within a rank. Ties on
// creation time fall back to the higher id first so the order is total.
func SortByStatusPriority(items []Ranked) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Status.Rank != b.Status.Rank {
			return a.Status.Rank < b.Status.Rank
		}
		if !a.Request.CreatedAt.Equal(b.Request.CreatedAt) {
			return a.Request.CreatedAt.After(b.Request.CreatedAt)
		}
		return a.Request.ID > b.Request.ID
	})
}

// ReassignmentPlan is the difference between the current and the desired assignee sets.
type ReassignmentPlan struct {
	ToAdd    []uint
	ToRemove []uint
	Kept     []uint
}

// PlanReassignment reconciles existing assignments against the desired user ids.
// Duplicate and zero ids in desired are ignored; output slices are sorted.
func PlanReassignment(existing []models.Assignment, desired []uint) ReassignmentPlan {
	want := make(map[uint]struct{}, len(desired))
	for _, id := range desired {
		if id != 0 {
			want[id] = struct{}{}
		}
	}
	have := make(map[uint]struct{}, len(existing))
	for _, a := range existing {
		have[a.UserID] = struct{}{}
	}

	var plan ReassignmentPlan
	for id := range want {
		if _, ok := have[id]; ok {
			plan.Kept = append(plan.Kept, id)
		} else {
			plan.ToAdd = append(plan.ToAdd, id)
		}
	}
	for id := range have {
		if _, ok := want[id]; !ok {
			plan.ToRemove = append(plan.ToRemove, id)
		}
	}
	sortIDs(plan.ToAdd)
	sortIDs(plan.ToRemove)
	sortIDs(plan.Kept)
	return plan
}

// CheckAssignable enforces the preconditions for changing the assignee set:
// classification complete, aggregate Pending, and no assignment started.
func CheckAssignable(req models.Request, assignments []models.Assignment) error {
	if missing := req.MissingClassification(); len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "request classification is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}

	var started []uint
	for _, a := range assignments {
		if a.Status.Started() {
			started = append(started, a.ID)
		}
	}
	if len(started) > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "work has already started on this request").
			WithDetails(map[string]any{"started_assignment_ids": started})
	}

	if status := AggregateStatus(req, assignments); status != enums.AggregateStatusPending {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "request is %s", status)
	}
	return nil
}

func sortIDs(ids []uint) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
