package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// embeddedDir is the path of the migrations inside the embedded FS.
const embeddedDir = "migrations"

// prepare points goose at the embedded migrations when dir is empty and at the
// filesystem otherwise, returning the directory goose should read.
func prepare(dir string) (string, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}
	if dir == "" {
		goose.SetBaseFS(embedded)
		return embeddedDir, nil
	}
	goose.SetBaseFS(nil)
	return dir, nil
}

// Run executes a standard goose command that requires a DB connection.
func Run(ctx context.Context, db *sql.DB, dir string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	dir, err := prepare(dir)
	if err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	dir, err = prepare(dir)
	if err != nil {
		return err
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}
