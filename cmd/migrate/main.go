package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/angelmondragon/servicedesk-backend/pkg/config"
	"github.com/angelmondragon/servicedesk-backend/pkg/db"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
	"github.com/angelmondragon/servicedesk-backend/pkg/migrate"
	"github.com/joho/godotenv"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

// offline commands work on the migrations directory only.
var offline = map[string]func(options) error{
	"create": func(o options) error {
		if o.name == "" {
			return fmt.Errorf("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(o.dir, o.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	},
	"validate": func(o options) error {
		if err := migrate.ValidateDir(o.dir); err != nil {
			return err
		}
		fmt.Println("migrations are valid")
		return nil
	},
}

var online = map[string]func(context.Context, *sql.DB, options) error{
	"up":     gooseCommand("up"),
	"down":   gooseCommand("down"),
	"status": gooseCommand("status"),
	"redo":   gooseCommand("redo"),
	"version": func(ctx context.Context, sqlDB *sql.DB, o options) error {
		if o.version == "" {
			return fmt.Errorf("missing -version for version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, o.dir, o.version)
	},
}

func gooseCommand(name string) func(context.Context, *sql.DB, options) error {
	return func(ctx context.Context, sqlDB *sql.DB, o options) error {
		return migrate.Run(ctx, sqlDB, o.dir, name)
	}
}

func main() {
	var o options
	flag.StringVar(&o.cmd, "cmd", "up", "up|down|status|redo|version|create|validate")
	flag.StringVar(&o.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&o.name, "name", "", "migration name (create)")
	flag.StringVar(&o.version, "version", "", "target version YYYYMMDDHHMMSS (version)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "servicedesk-migrate"})
	_ = godotenv.Load()

	if err := run(logg, o); err != nil {
		logg.Error(logg.WithField(context.Background(), "cmd", o.cmd), "migrate.failed", err)
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", o.cmd, err)
		os.Exit(1)
	}
}

func run(logg *logger.Logger, o options) error {
	if fn, ok := offline[o.cmd]; ok {
		return fn(o)
	}
	fn, ok := online[o.cmd]
	if !ok {
		return fmt.Errorf("unknown -cmd value %q", o.cmd)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "servicedesk-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.LogFormat == "console",
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": o.cmd, "dir": o.dir})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}

	logg.Info(ctx, "migrate.start")
	if err := fn(ctx, sqlDB, o); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.done")
	return nil
}
