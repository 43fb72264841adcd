package users

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repo *Repository, first, last, email string) *models.User {
	t.Helper()
	u := &models.User{
		FirstName:    first,
		LastName:     last,
		Username:     email,
		Email:        email,
		PasswordHash: "x",
		Role:         enums.UserRoleStaff,
		IsActive:     true,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestRepositoryLookups(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	ana := seedUser(t, repo, "Ana", "Reyes", "ana@example.gov")
	ben := seedUser(t, repo, "Ben", "Cruz", "ben@example.gov")
	// is_active has a true default, so deactivate after insert.
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", ben.ID).Update("is_active", false).Error)

	got, err := repo.FindByEmail(ctx, "ana@example.gov")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, got.ID)

	byID, err := repo.FindByID(ctx, ben.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cruz", byID.LastName)

	active, err := repo.ActiveIDs(ctx, []uint{ana.ID, ben.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, []uint{ana.ID}, active)

	listed, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, ana.ID, listed[0].ID)

	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, ana.ID, at))
	got, err = repo.FindByID(ctx, ana.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, at.Equal(got.LastLoginAt.UTC()))
}

func TestFromModelHidesCredentials(t *testing.T) {
	code := "00123"
	dto := FromModel(&models.User{ID: 3, FirstName: "Ana", LastName: "Reyes", Cats: &code, PasswordHash: "secret", Role: enums.UserRoleAdmin})
	assert.True(t, dto.HasEmpCode)
	assert.Equal(t, "Ana Reyes", dto.FullName)
	assert.Nil(t, FromModel(nil))
	assert.Equal(t, &Summary{ID: 3, FullName: "Ana Reyes", LastName: "Reyes"}, SummaryOf(&models.User{ID: 3, FirstName: "Ana", LastName: "Reyes"}))
}
