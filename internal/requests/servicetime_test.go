package requests

import (
	"testing"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "1h 2m 3s", FormatSeconds(3723))
	assert.Equal(t, "2m 0s", FormatSeconds(120))
	assert.Equal(t, "45s", FormatSeconds(45))
	assert.Equal(t, "0s", FormatSeconds(0))
}

func TestComputeServiceTimes(t *testing.T) {
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	req := models.Request{CreatedAt: created}

	none := ComputeServiceTimes(req, []models.Assignment{{Status: enums.WorkStatusOnProcess}})
	assert.Equal(t, "N/A", none.Formatted)
	assert.Nil(t, none.TotalSeconds)

	fast := created.Add(90 * time.Second)
	slow := created.Add(time.Hour + 5*time.Second)
	times := ComputeServiceTimes(req, []models.Assignment{
		{UserID: 1, Status: enums.WorkStatusCompleted, CompletedAt: &slow, User: &models.User{FirstName: "Ana", LastName: "Reyes"}},
		{UserID: 2, Status: enums.WorkStatusCompleted, CompletedAt: &fast},
		{UserID: 3, Status: enums.WorkStatusPending},
	})

	require.Len(t, times.Individual, 2)
	assert.Equal(t, "Ana Reyes", times.Individual[0].FullName)
	assert.Equal(t, "Unknown", times.Individual[1].UserName)
	assert.EqualValues(t, 3605, *times.TotalSeconds)
	assert.EqualValues(t, 90, *times.BadgeSeconds)
	assert.Equal(t, "Reyes: 1h 0m 5s\nUnknown: 1m 30s", times.Formatted)
}
