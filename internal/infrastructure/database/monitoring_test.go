package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/davidleathers/aire-backend/internal/infrastructure/config"
	"github.com/davidleathers/aire-backend/internal/testutil"
)

func TestNewMonitor(t *testing.T) {
	logger := zaptest.NewLogger(t)
	pool := &ConnectionPool{}

	t.Run("with default config", func(t *testing.T) {
		monitor := NewMonitor(pool, logger, nil)

		assert.NotNil(t, monitor)
		assert.Equal(t, 80.0, monitor.config.PoolSaturationThreshold)
		assert.Equal(t, 30.0, monitor.config.DeadTupleThreshold)
		assert.Equal(t, 5*time.Minute, monitor.config.LongRunningAfter)
	})

	t.Run("with custom config", func(t *testing.T) {
		cfg := &MonitorConfig{
			PoolSaturationThreshold: 50,
			DeadTupleThreshold:      10,
			LongRunningAfter:        time.Minute,
		}
		monitor := NewMonitor(pool, logger, cfg)
		assert.Same(t, cfg, monitor.config)
	})
}

func TestStatsHelpers(t *testing.T) {
	assert.Equal(t, 0.0, TableStats{DeadTuples: 4}.DeadTuplePercent())
	assert.Equal(t, 25.0, TableStats{LiveTuples: 8, DeadTuples: 2}.DeadTuplePercent())

	assert.Equal(t, 0.0, ConnectionStats{PoolAcquired: 3}.Saturation())
	assert.Equal(t, 50.0, ConnectionStats{PoolAcquired: 5, PoolMax: 10}.Saturation())
}

func TestMonitor_Evaluate(t *testing.T) {
	tables := []string{"incidents", "benchmarks"}
	healthyConns := &ConnectionStats{PoolAcquired: 1, PoolMax: 10}

	tests := []struct {
		name        string
		report      HealthReport
		healthy     bool
		missing     []string
		vacuum      []string
		connHealthy bool
	}{
		{
			name: "all good",
			report: HealthReport{
				Ping:        true,
				Connections: healthyConns,
				Tables: []TableStats{
					{TableName: "benchmarks", LiveTuples: 10},
					{TableName: "incidents", LiveTuples: 10},
				},
			},
			healthy:     true,
			connHealthy: true,
		},
		{
			name: "missing table",
			report: HealthReport{
				Ping:        true,
				Connections: healthyConns,
				Tables:      []TableStats{{TableName: "incidents"}},
			},
			missing:     []string{"benchmarks"},
			connHealthy: true,
		},
		{
			name: "saturated pool",
			report: HealthReport{
				Ping:        true,
				Connections: &ConnectionStats{PoolAcquired: 9, PoolMax: 10},
				Tables:      []TableStats{{TableName: "benchmarks"}, {TableName: "incidents"}},
			},
		},
		{
			name: "dead tuples are reported only",
			report: HealthReport{
				Ping:        true,
				Connections: healthyConns,
				Tables: []TableStats{
					{TableName: "benchmarks", LiveTuples: 10, DeadTuples: 9},
					{TableName: "incidents", LiveTuples: 10},
				},
			},
			healthy:     true,
			vacuum:      []string{"benchmarks"},
			connHealthy: true,
		},
		{
			name: "long running queries",
			report: HealthReport{
				Ping:               true,
				Connections:        healthyConns,
				LongRunningQueries: 2,
				Tables:             []TableStats{{TableName: "benchmarks"}, {TableName: "incidents"}},
			},
			connHealthy: true,
		},
		{
			name:   "no ping",
			report: HealthReport{Errors: []string{"ping database: refused"}},
		},
		{
			name: "probe error",
			report: HealthReport{
				Ping:        true,
				Connections: healthyConns,
				Tables:      []TableStats{{TableName: "benchmarks"}, {TableName: "incidents"}},
				Errors:      []string{"failed to count long running queries"},
			},
			connHealthy: true,
		},
	}

	m := NewMonitor(nil, zaptest.NewLogger(t), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := tt.report
			m.evaluate(&report, tables)

			assert.Equal(t, tt.healthy, report.Healthy)
			assert.Equal(t, tt.connHealthy, report.ConnectionsHealthy)
			assert.Equal(t, tt.missing, report.MissingTables)
			assert.Equal(t, tt.vacuum, report.VacuumNeeded)
		})
	}
}

func TestMonitor_RunHealthCheck(t *testing.T) {
	logger := zaptest.NewLogger(t)
	db := testutil.NewTestDB(t)

	cfg := config.Defaults().Database
	cfg.URL = db.ConnectionString()

	ctx := context.Background()
	pool, err := NewConnectionPool(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	monitor := NewMonitor(pool, logger, nil)

	t.Run("table stats", func(t *testing.T) {
		stats, err := monitor.GetTableStats(ctx, []string{"incidents", "model_catalog", "nonexistent"})
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, "incidents", stats[0].TableName)
		assert.Equal(t, "model_catalog", stats[1].TableName)
		assert.Positive(t, stats[0].TotalSizeBytes)
	})

	t.Run("connection stats", func(t *testing.T) {
		stats, err := monitor.GetConnectionStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, cfg.MaxConns, stats.PoolMax)
		assert.Positive(t, stats.MaxConnections)
	})

	t.Run("healthy schema", func(t *testing.T) {
		report := monitor.RunHealthCheck(ctx, testutil.Tables)
		assert.True(t, report.Ping)
		assert.Empty(t, report.MissingTables)
		assert.Empty(t, report.Errors)
		assert.Len(t, report.Tables, len(testutil.Tables))
		assert.True(t, report.TablesHealthy)
	})

	t.Run("missing table", func(t *testing.T) {
		report := monitor.RunHealthCheck(ctx, []string{"incidents", "absent_table"})
		assert.False(t, report.Healthy)
		assert.Equal(t, []string{"absent_table"}, report.MissingTables)
	})
}
