package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/aire-backend/internal/testutil/containers"
)

// Tables created by InitSchema, in creation order.
var Tables = []string{"incidents", "benchmarks", "evaluations", "model_versions", "model_catalog"}

// TestDB is a containerised Postgres with the collection tables created.
type TestDB struct {
	t                *testing.T
	db               *sql.DB
	connectionString string
}

// NewTestDB starts a Postgres container for the calling test. It is skipped
// under -short and when no container runtime is reachable.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()
	container, err := containers.NewPostgresContainer(ctx)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	db, err := sql.Open("postgres", container.ConnectionString)
	require.NoError(t, err)
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.PingContext(ctx))

	tdb := &TestDB{t: t, db: db, connectionString: container.ConnectionString}
	tdb.InitSchema()
	return tdb
}

// DB returns the database/sql handle used for setup and assertions.
func (tdb *TestDB) DB() *sql.DB {
	return tdb.db
}

// ConnectionString returns a URL suitable for config.DatabaseConfig.URL.
func (tdb *TestDB) ConnectionString() string {
	return tdb.connectionString
}

// InitSchema creates the collection tables.
func (tdb *TestDB) InitSchema() {
	tdb.t.Helper()

	tdb.execMulti(context.Background(), `
		CREATE TABLE incidents (
			id UUID PRIMARY KEY,
			title TEXT,
			headline TEXT,
			description TEXT,
			date TIMESTAMPTZ,
			category TEXT,
			severity DOUBLE PRECISION,
			reporting_date TIMESTAMPTZ,
			risk_cats TEXT[],
			actors_origin TEXT[],
			quarter TEXT,
			attributes JSONB NOT NULL DEFAULT '{}'
		);

		CREATE TABLE benchmarks (
			id UUID PRIMARY KEY,
			name TEXT,
			metric TEXT,
			value DOUBLE PRECISION,
			category TEXT,
			benchmark TEXT,
			publication TEXT,
			availability TEXT,
			risk_cats TEXT[],
			dataset_link TEXT,
			date TIMESTAMPTZ,
			attributes JSONB NOT NULL DEFAULT '{}'
		);

		CREATE TABLE evaluations (
			id UUID PRIMARY KEY,
			assessment TEXT,
			score DOUBLE PRECISION,
			category TEXT,
			date TIMESTAMPTZ,
			publication TEXT,
			public_id TEXT,
			organizations TEXT[],
			models TEXT[],
			risk_cats TEXT[],
			release_date TIMESTAMPTZ,
			reviewed BOOLEAN,
			attributes JSONB NOT NULL DEFAULT '{}'
		);

		CREATE TABLE model_versions (
			id UUID PRIMARY KEY,
			name TEXT,
			attributes JSONB NOT NULL DEFAULT '{}'
		);

		CREATE TABLE model_catalog (
			id UUID PRIMARY KEY,
			name TEXT,
			attributes JSONB NOT NULL DEFAULT '{}'
		);
	`)
}

// Truncate empties every collection table.
func (tdb *TestDB) Truncate() {
	tdb.t.Helper()
	_, err := tdb.db.ExecContext(context.Background(),
		fmt.Sprintf("TRUNCATE %s", strings.Join(Tables, ", ")))
	require.NoError(tdb.t, err)
}

func (tdb *TestDB) execMulti(ctx context.Context, statements string) {
	tdb.t.Helper()
	for _, stmt := range strings.Split(statements, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := tdb.db.ExecContext(ctx, stmt)
		require.NoError(tdb.t, err, "executing %s", stmt)
	}
}
