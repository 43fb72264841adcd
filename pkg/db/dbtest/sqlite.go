// Package dbtest opens throwaway sqlite databases carrying the full schema.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/angelmondragon/servicedesk-backend/pkg/db"
	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var seq atomic.Int64

// Open returns a private in-memory database with every model migrated. The
// database lives until the test ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=off", name, seq.Add(1))

	conn, err := db.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// One connection: statements issued during a transaction must go through tx.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return conn
}

// Client wraps Open in a db.Client so services can run real transactions.
func Client(t testing.TB) *db.Client {
	t.Helper()
	return db.NewFromGorm(Open(t))
}
