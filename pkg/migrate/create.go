package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const versionLayout = "20060102150405"

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
SELECT 1;
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
SELECT 1;
-- +goose StatementEnd
`

// CreateSQLMigration writes an empty goose migration named
// <dir>/<YYYYMMDDHHMMSS>_<slug>.sql and returns its path.
func CreateSQLMigration(dir string, name string) (string, error) {
	slug := slugify(name)
	switch {
	case dir == "":
		return "", errors.New("dir is required")
	case slug == "":
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	file := filepath.Join(dir, time.Now().UTC().Format(versionLayout)+"_"+slug+".sql")
	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, migrationTemplate, slug); err != nil {
		return "", fmt.Errorf("write migration: %w", err)
	}
	return file, nil
}

// slugify lowercases name and folds every run of other characters into one underscore.
func slugify(name string) string {
	var b strings.Builder
	gap := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if gap && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			gap = false
			continue
		}
		gap = true
	}
	return b.String()
}
