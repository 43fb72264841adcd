package accomplishments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/ipcr"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
	"github.com/angelmondragon/servicedesk-backend/pkg/types"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubUsers map[uint]*models.User

func (s stubUsers) FindByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type memoryStore struct {
	values map[string]string
	getErr error
	ttls   map[string]time.Duration
	sets   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.sets++
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryStore) OutputCodesKey(empCode string) string {
	return "sd:ipcr_outputs:" + empCode
}

func staffWithCode(code string) *models.User {
	return &models.User{ID: 5, FirstName: "Ana", LastName: "Reyes", Cats: &code, Role: enums.UserRoleStaff}
}

func TestListOutputsReadsThroughCache(t *testing.T) {
	client := &stubClient{codes: []ipcr.OutputCode{outputCode(12)}}
	store := newMemoryStore()
	svc, err := NewService(ServiceParams{
		Users:  stubUsers{5: staffWithCode("00123")},
		Client: client,
		Cache:  NewRedisOutputCache(store, 10*time.Minute),
		Logger: logger.Nop(),
	})
	require.NoError(t, err)

	first, err := svc.ListOutputs(context.Background(), actor)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, int64(12), first[0].ID)
	assert.Equal(t, "Resolved ICT tickets", first[0].IndividualOutput)
	assert.Equal(t, 10*time.Minute, store.ttls["sd:ipcr_outputs:00123"])

	second, err := svc.ListOutputs(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, client.listed, 1, "second call is served from cache")
}

func TestListOutputsIgnoresBrokenCache(t *testing.T) {
	client := &stubClient{codes: []ipcr.OutputCode{outputCode(12)}}
	store := newMemoryStore()
	store.getErr = errors.New("redis down")
	svc, err := NewService(ServiceParams{
		Users:  stubUsers{5: staffWithCode("00123")},
		Client: client,
		Cache:  NewRedisOutputCache(store, time.Minute),
		Logger: logger.Nop(),
	})
	require.NoError(t, err)

	out, err := svc.ListOutputs(context.Background(), actor)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Len(t, client.listed, 1)
}

func TestListOutputsErrors(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Users:  stubUsers{5: {ID: 5, FirstName: "Ana", LastName: "Reyes"}},
		Client: &stubClient{listErr: pkgerrors.New(pkgerrors.CodeDependency, "output code request failed")},
		Logger: logger.Nop(),
	})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.ListOutputs(ctx, types.Actor{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.ListOutputs(ctx, types.Actor{UserID: 77})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.ListOutputs(ctx, actor)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, MessageNoEmpCode, pkgerrors.As(err).Message())

	withCode, err := NewService(ServiceParams{
		Users:  stubUsers{5: staffWithCode("00123")},
		Client: &stubClient{listErr: pkgerrors.New(pkgerrors.CodeDependency, "output code request failed")},
		Logger: logger.Nop(),
	})
	require.NoError(t, err)
	_, err = withCode.ListOutputs(ctx, actor)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestLogRepositoryPersistsAttempts(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewLogRepository(db)
	status := 502
	msg := MessageFetchFailed

	require.NoError(t, repo.Create(context.Background(), &models.AccomplishmentReport{
		TargetKind:  enums.ReportTargetBooking,
		TargetID:    3,
		ActorUserID: 5,
		IPCRCodeID:  12,
		Outcome:     enums.ReportStatusFailed,
		HTTPStatus:  &status,
		Error:       &msg,
	}))

	var rows []models.AccomplishmentReport
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.ReportTargetBooking, rows[0].TargetKind)
	assert.Equal(t, 502, *rows[0].HTTPStatus)
}
