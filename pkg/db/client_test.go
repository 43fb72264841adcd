package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID   uint
	Name string `gorm:"uniqueIndex"`
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	conn, err := Open(sqlite.Open("file:" + t.Name() + "?mode=memory&cache=shared"))
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&widget{}))
	return NewFromGorm(conn)
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&widget{Name: "committed"}).Error
	}))

	var count int64
	require.NoError(t, client.DB().Model(&widget{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&widget{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	require.NoError(t, client.DB().Model(&widget{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPing(t *testing.T) {
	client := newTestClient(t)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestIsUniqueViolation(t *testing.T) {
	client := newTestClient(t)
	require.NoError(t, client.DB().Create(&widget{Name: "dup"}).Error)

	err := client.DB().Create(&widget{Name: "dup"}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
	assert.False(t, IsUniqueViolation(nil))
}
