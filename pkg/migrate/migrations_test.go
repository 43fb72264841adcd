package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestEmbeddedMigrationsMatchDirectory(t *testing.T) {
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)

	inFS, err := fs.Glob(embedded, embeddedDir+"/*.sql")
	require.NoError(t, err)

	assert.Len(t, inFS, len(onDisk))
}

func TestCheckrequestsMigrationEnforcesNaturalKey(t *testing.T) {
	content := readMigration(t, "*_create_checkrequests.sql")

	for _, sub := range []string{
		"CONSTRAINT ux_checkrequests_request_user UNIQUE (formrequest_id, user_id)",
		"CHECK (NOT start_pause OR status = 'On Process')",
		"CHECK (seconds_time BETWEEN 0 AND 59)",
		"DROP TABLE IF EXISTS checkrequests",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestBookingsMigrationTiesFieldsToStatus(t *testing.T) {
	content := readMigration(t, "*_create_bookings.sql")
	assert.Contains(t, content, "ck_bookings_released_fields")
	assert.Contains(t, content, "CHECK ((status = 'Returned') = (return_by IS NOT NULL))")
}

func TestValidateEmbedded(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
}

func TestValidateDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_no_down.sql"), []byte("-- +goose Up\n"), 0o644))

	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad-name.sql")
	assert.Contains(t, err.Error(), "20260101000000_no_down.sql")
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add  Report-Index!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_report_index.sql"))
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}
