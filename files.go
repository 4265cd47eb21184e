package identity

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// ApplyMigrations executes the embedded up migrations in filename
// order. Statements are idempotent, so running this on every boot is
// safe. Each migration file holds a single statement.
func ApplyMigrations(ctx context.Context, db *bun.DB) error {
	names, err := fs.Glob(migrationsFS, "data/sql/migrations/*.up.sql")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "could not list migrations")
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := migrationsFS.ReadFile(name)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "could not read migration "+name)
		}

		if _, err := db.ExecContext(ctx, string(raw)); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "migration failed: "+name)
		}
	}

	return nil
}
