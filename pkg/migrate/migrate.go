package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/pressly/goose/v3"
)

// DefaultDir is the on-disk migrations directory, relative to the repo root.
const DefaultDir = "pkg/migrate/migrations"

// EmbeddedDir is the directory name inside the embedded filesystem.
const EmbeddedDir = "migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Embedded exposes the migrations compiled into the binary.
func Embedded() fs.FS {
	return embedded
}

// Source selects where goose reads migrations from. A nil FS means the OS filesystem.
type Source struct {
	FS  fs.FS
	Dir string
}

// DiskSource reads migrations from dir on the local filesystem.
func DiskSource(dir string) Source {
	return Source{Dir: dir}
}

// EmbeddedSource reads the migrations compiled into the binary.
func EmbeddedSource() Source {
	return Source{FS: embedded, Dir: EmbeddedDir}
}

// Dialect maps a configured database driver onto a goose dialect.
func Dialect(driver string) string {
	switch driver {
	case "sqlite":
		return "sqlite3"
	default:
		return "postgres"
	}
}

func prepare(src Source, dialect string) error {
	if src.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	goose.SetBaseFS(src.FS)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Run executes a standard goose command that requires a DB connection.
func Run(ctx context.Context, db *sql.DB, src Source, dialect string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if err := prepare(src, dialect); err != nil {
		return err
	}

	// RunContext prints status output to stdout (goose internal)
	if err := goose.RunContext(ctx, command, db, src.Dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, src Source, dialect string, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}
	if err := prepare(src, dialect); err != nil {
		return err
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil

	case current < target:
		if err := goose.UpToContext(ctx, db, src.Dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return nil

	default:
		if err := goose.DownToContext(ctx, db, src.Dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	}
}
