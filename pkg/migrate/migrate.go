package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where new migrations are written by the create command.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Source is the set of settlement migrations a Runner applies.
type Source struct {
	fsys fs.FS
	name string
}

// Embedded returns the migrations compiled into the binary.
func Embedded() Source {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(fmt.Sprintf("embedded migrations: %v", err))
	}
	return Source{fsys: sub, name: "embedded"}
}

// Dir reads migrations from disk. An empty dir falls back to Embedded.
func Dir(dir string) Source {
	if strings.TrimSpace(dir) == "" {
		return Embedded()
	}
	return Source{fsys: os.DirFS(dir), name: dir}
}

func (s Source) String() string {
	return s.name
}

// FS exposes the migration files, for validation.
func (s Source) FS() fs.FS {
	return s.fsys
}

// Applied is one migration goose ran, in either direction.
type Applied struct {
	Version   int64
	Path      string
	Direction string
}

// Runner applies settlement migrations to a postgres database.
type Runner struct {
	provider *goose.Provider
	source   Source
}

func NewRunner(db *sql.DB, source Source) (*Runner, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if source.fsys == nil {
		return nil, fmt.Errorf("migration source is required")
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, source.fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider for %s: %w", source, err)
	}
	return &Runner{provider: provider, source: source}, nil
}

func (r *Runner) Up(ctx context.Context) ([]Applied, error) {
	results, err := r.provider.Up(ctx)
	if err != nil {
		return appliedFrom(results), fmt.Errorf("goose up: %w", err)
	}
	return appliedFrom(results), nil
}

// Down rolls back the latest migration only.
func (r *Runner) Down(ctx context.Context) ([]Applied, error) {
	result, err := r.provider.Down(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose down: %w", err)
	}
	return appliedFrom([]*goose.MigrationResult{result}), nil
}

// To migrates up or down until the database sits at version.
func (r *Runner) To(ctx context.Context, version string) ([]Applied, error) {
	target, err := strconv.ParseInt(strings.TrimSpace(version), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", version, err)
	}
	current, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("get db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == target:
		return nil, nil
	case current < target:
		results, err = r.provider.UpTo(ctx, target)
	default:
		results, err = r.provider.DownTo(ctx, target)
	}
	if err != nil {
		return appliedFrom(results), fmt.Errorf("goose migrate to %d: %w", target, err)
	}
	return appliedFrom(results), nil
}

// Pending lists the versions not yet applied, oldest first.
func (r *Runner) Pending(ctx context.Context) ([]int64, error) {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose status: %w", err)
	}
	pending := []int64{}
	for _, st := range statuses {
		if st == nil || st.Source == nil {
			continue
		}
		if st.State == goose.StatePending {
			pending = append(pending, st.Source.Version)
		}
	}
	return pending, nil
}

func appliedFrom(results []*goose.MigrationResult) []Applied {
	out := make([]Applied, 0, len(results))
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		out = append(out, Applied{
			Version:   res.Source.Version,
			Path:      res.Source.Path,
			Direction: res.Direction,
		})
	}
	return out
}
