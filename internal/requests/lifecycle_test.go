package requests

import (
	"testing"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classified() models.Request {
	service, category, affected := uint(3), 4, 1
	prio := enums.PriorityP1
	return models.Request{ID: 1, ServiceID: &service, CategoryID: &category, Priority: &prio, NoOfAffected: &affected}
}

func withStatus(userID uint, status enums.WorkStatus) models.Assignment {
	return models.Assignment{ID: userID * 10, UserID: userID, Status: status}
}

func TestAggregateStatusProgression(t *testing.T) {
	req := classified()
	assert.Equal(t, enums.AggregateStatusPending, AggregateStatus(req, nil))

	a := withStatus(1, enums.WorkStatusPending)
	assert.Equal(t, enums.AggregateStatusPending, AggregateStatus(req, []models.Assignment{a}))

	a.Status = enums.WorkStatusOnProcess
	assert.Equal(t, enums.AggregateStatusOnProcess, AggregateStatus(req, []models.Assignment{a}))

	a.Status = enums.WorkStatusCompleted
	assert.Equal(t, enums.AggregateStatusClosed, AggregateStatus(req, []models.Assignment{a}))

	mixed := []models.Assignment{withStatus(1, enums.WorkStatusCompleted), withStatus(2, enums.WorkStatusPending)}
	assert.Equal(t, enums.AggregateStatusMixed, AggregateStatus(req, mixed))
	assert.Equal(t, 5, Evaluate(req, mixed).Rank)

	onProcess := []models.Assignment{withStatus(1, enums.WorkStatusCompleted), withStatus(2, enums.WorkStatusOnProcess)}
	assert.Equal(t, enums.AggregateStatusOnProcess, AggregateStatus(req, onProcess))
}

func TestMissingClassificationWins(t *testing.T) {
	req := classified()
	req.NoOfAffected = nil
	done := []models.Assignment{withStatus(1, enums.WorkStatusCompleted)}

	status := Evaluate(req, done)
	assert.Equal(t, enums.AggregateStatusUpdateRequired, status.Status)
	assert.Equal(t, 1, status.Rank)
}

func TestSortByStatusPriority(t *testing.T) {
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	older, newer := classified(), classified()
	older.ID, older.CreatedAt = 1, base
	newer.ID, newer.CreatedAt = 2, base.Add(time.Hour)
	closed := classified()
	closed.ID, closed.CreatedAt = 3, base.Add(2*time.Hour)
	closed.Assignments = []models.Assignment{withStatus(1, enums.WorkStatusCompleted)}
	untriaged := models.Request{ID: 4, CreatedAt: base}
	tie := classified()
	tie.ID, tie.CreatedAt = 5, base.Add(time.Hour)

	items := Rank([]models.Request{older, closed, newer, untriaged, tie})
	SortByStatusPriority(items)

	var ids []uint
	for _, item := range items {
		ids = append(ids, item.Request.ID)
	}
	assert.Equal(t, []uint{4, 5, 2, 1, 3}, ids)
}

func TestPlanReassignment(t *testing.T) {
	existing := []models.Assignment{withStatus(1, enums.WorkStatusPending), withStatus(2, enums.WorkStatusPending)}

	plan := PlanReassignment(existing, []uint{3, 2, 3, 0})
	assert.Equal(t, []uint{3}, plan.ToAdd)
	assert.Equal(t, []uint{1}, plan.ToRemove)
	assert.Equal(t, []uint{2}, plan.Kept)

	empty := PlanReassignment(existing, nil)
	assert.Empty(t, empty.ToAdd)
	assert.Equal(t, []uint{1, 2}, empty.ToRemove)
}

func TestCheckAssignable(t *testing.T) {
	req := classified()
	assert.NoError(t, CheckAssignable(req, nil))
	assert.NoError(t, CheckAssignable(req, []models.Assignment{withStatus(1, enums.WorkStatusPending)}))

	err := CheckAssignable(req, []models.Assignment{withStatus(1, enums.WorkStatusPending), withStatus(2, enums.WorkStatusCompleted)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, map[string]any{"started_assignment_ids": []uint{20}}, pkgerrors.As(err).Details())

	untriaged := models.Request{}
	assert.True(t, pkgerrors.IsCode(CheckAssignable(untriaged, nil), pkgerrors.CodeValidation))
}
