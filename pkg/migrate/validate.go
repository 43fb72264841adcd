package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var migrationName = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

var requiredMarkers = []string{"-- +goose Up", "-- +goose Down"}

// ValidateDir checks the migrations in dir on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return validateFS(os.DirFS(dir), ".")
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	return validateFS(embedded, embeddedDir)
}

// validateFS reports every bad file at once rather than stopping at the first.
func validateFS(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	var errs error
	versions := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		match := migrationName.FindStringSubmatch(name)
		if match == nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: name must look like YYYYMMDDHHMMSS_snake_name.sql", name))
			continue
		}
		if other, dup := versions[match[1]]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %s already used by %s", name, match[1], other))
		}
		versions[match[1]] = name

		body, err := fs.ReadFile(fsys, path.Join(root, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, checkBody(name, string(body)))
	}
	if len(versions) == 0 && errs == nil {
		return fmt.Errorf("no migrations found")
	}
	return errs
}

func checkBody(name, body string) error {
	var errs error
	for _, marker := range requiredMarkers {
		if !strings.Contains(body, marker) {
			errs = multierr.Append(errs, fmt.Errorf("%s: missing %q", name, marker))
		}
	}
	if begin, end := strings.Count(body, "-- +goose StatementBegin"), strings.Count(body, "-- +goose StatementEnd"); begin != end {
		errs = multierr.Append(errs, fmt.Errorf("%s: %d StatementBegin vs %d StatementEnd", name, begin, end))
	}
	return errs
}
