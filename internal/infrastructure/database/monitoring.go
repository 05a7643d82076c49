package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Monitor inspects the connection pool and the activity statistics Postgres
// keeps for the collection tables.
type Monitor struct {
	pool   *ConnectionPool
	logger *zap.Logger
	config *MonitorConfig
}

// MonitorConfig holds the thresholds a health check is judged against.
type MonitorConfig struct {
	// PoolSaturationThreshold is the acquired/max percentage above which the
	// pool counts as saturated.
	PoolSaturationThreshold float64
	// DeadTupleThreshold is the dead/live percentage above which a table is
	// reported as needing a vacuum.
	DeadTupleThreshold float64
	LongRunningAfter   time.Duration
}

// DefaultMonitorConfig returns the thresholds used when none are given.
func DefaultMonitorConfig() *MonitorConfig {
	return &MonitorConfig{
		PoolSaturationThreshold: 80,
		DeadTupleThreshold:      30,
		LongRunningAfter:        5 * time.Minute,
	}
}

// TableStats is one row of pg_stat_user_tables.
type TableStats struct {
	TableName       string     `json:"table"`
	LiveTuples      int64      `json:"live_tuples"`
	DeadTuples      int64      `json:"dead_tuples"`
	TotalSizeBytes  int64      `json:"total_size_bytes"`
	LastAutovacuum  *time.Time `json:"last_autovacuum,omitempty"`
	LastAutoanalyze *time.Time `json:"last_autoanalyze,omitempty"`
}

// DeadTuplePercent is dead tuples relative to live ones; 0 for an empty table.
func (s TableStats) DeadTuplePercent() float64 {
	if s.LiveTuples == 0 {
		return 0
	}
	return float64(s.DeadTuples) / float64(s.LiveTuples) * 100
}

// ConnectionStats combines client-side pool counters with the server's view.
type ConnectionStats struct {
	PoolTotal         int32 `json:"pool_total"`
	PoolAcquired      int32 `json:"pool_acquired"`
	PoolIdle          int32 `json:"pool_idle"`
	PoolMax           int32 `json:"pool_max"`
	ServerConnections int64 `json:"server_connections"`
	ClientConnections int64 `json:"client_connections"`
	MaxConnections    int   `json:"max_connections"`
}

// Saturation is the percentage of the pool currently acquired.
func (s ConnectionStats) Saturation() float64 {
	if s.PoolMax <= 0 {
		return 0
	}
	return float64(s.PoolAcquired) / float64(s.PoolMax) * 100
}

// HealthReport is the outcome of RunHealthCheck.
type HealthReport struct {
	Ping               bool             `json:"ping"`
	Connections        *ConnectionStats `json:"connections,omitempty"`
	ConnectionsHealthy bool             `json:"connections_healthy"`
	LongRunningQueries int64            `json:"long_running_queries"`
	QueriesHealthy     bool             `json:"queries_healthy"`
	Tables             []TableStats     `json:"tables"`
	MissingTables      []string         `json:"missing_tables,omitempty"`
	VacuumNeeded       []string         `json:"vacuum_needed,omitempty"`
	TablesHealthy      bool             `json:"tables_healthy"`
	Healthy            bool             `json:"healthy"`
	Errors             []string         `json:"errors,omitempty"`
}

// NewMonitor creates a monitor over pool. A nil config uses DefaultMonitorConfig.
func NewMonitor(pool *ConnectionPool, logger *zap.Logger, config *MonitorConfig) *Monitor {
	if config == nil {
		config = DefaultMonitorConfig()
	}
	return &Monitor{
		pool:   pool,
		logger: logger,
		config: config,
	}
}

// GetTableStats returns statistics for the named tables, ordered by name.
// Tables that do not exist are simply absent from the result.
func (m *Monitor) GetTableStats(ctx context.Context, tables []string) ([]TableStats, error) {
	query := `
		SELECT
			relname::text,
			n_live_tup,
			n_dead_tup,
			pg_total_relation_size(relid),
			last_autovacuum,
			last_autoanalyze
		FROM pg_stat_user_tables
		WHERE relname::text = ANY($1::text[])
		ORDER BY relname
	`

	rows, err := m.pool.DB().Query(ctx, query, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table stats: %w", err)
	}
	defer rows.Close()

	stats := make([]TableStats, 0, len(tables))
	for rows.Next() {
		var s TableStats
		if err := rows.Scan(
			&s.TableName,
			&s.LiveTuples,
			&s.DeadTuples,
			&s.TotalSizeBytes,
			&s.LastAutovacuum,
			&s.LastAutoanalyze,
		); err != nil {
			return nil, fmt.Errorf("failed to scan table stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetConnectionStats reads the pool counters and counts server backends.
func (m *Monitor) GetConnectionStats(ctx context.Context) (*ConnectionStats, error) {
	stat := m.pool.Stats()
	stats := &ConnectionStats{
		PoolTotal:    stat.TotalConns(),
		PoolAcquired: stat.AcquiredConns(),
		PoolIdle:     stat.IdleConns(),
		PoolMax:      stat.MaxConns(),
	}

	err := m.pool.DB().QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE application_name = $1)
		FROM pg_stat_activity
		WHERE pid != pg_backend_pid()
	`, applicationName).Scan(&stats.ServerConnections, &stats.ClientConnections)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection stats: %w", err)
	}

	if err := m.pool.DB().QueryRow(ctx,
		"SELECT current_setting('max_connections')::int").Scan(&stats.MaxConnections); err != nil {
		return nil, fmt.Errorf("failed to read max_connections: %w", err)
	}

	return stats, nil
}

// CountLongRunningQueries counts non-idle backends whose current query
// started longer ago than the configured threshold.
func (m *Monitor) CountLongRunningQueries(ctx context.Context) (int64, error) {
	var n int64
	err := m.pool.DB().QueryRow(ctx, `
		SELECT count(*)
		FROM pg_stat_activity
		WHERE state != 'idle'
			AND query_start < now() - make_interval(secs => $1)
			AND pid != pg_backend_pid()
	`, m.config.LongRunningAfter.Seconds()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count long running queries: %w", err)
	}
	return n, nil
}

// RunHealthCheck pings the database and gathers connection, query and table
// statistics for tables. Individual probe failures are recorded in the
// report rather than returned.
func (m *Monitor) RunHealthCheck(ctx context.Context, tables []string) *HealthReport {
	report := &HealthReport{}

	if err := m.pool.Ping(ctx); err != nil {
		report.Errors = append(report.Errors, err.Error())
		m.evaluate(report, tables)
		return report
	}
	report.Ping = true

	if conns, err := m.GetConnectionStats(ctx); err != nil {
		report.Errors = append(report.Errors, err.Error())
	} else {
		report.Connections = conns
	}

	if n, err := m.CountLongRunningQueries(ctx); err != nil {
		report.Errors = append(report.Errors, err.Error())
	} else {
		report.LongRunningQueries = n
	}

	if stats, err := m.GetTableStats(ctx, tables); err != nil {
		report.Errors = append(report.Errors, err.Error())
	} else {
		report.Tables = stats
	}

	m.evaluate(report, tables)
	if !report.Healthy {
		m.logger.Warn("database health check failed",
			zap.Strings("missing_tables", report.MissingTables),
			zap.Strings("vacuum_needed", report.VacuumNeeded),
			zap.Int64("long_running_queries", report.LongRunningQueries),
			zap.Strings("errors", report.Errors))
	}
	return report
}

// evaluate derives the *_healthy flags from the gathered statistics.
func (m *Monitor) evaluate(report *HealthReport, tables []string) {
	report.ConnectionsHealthy = report.Connections != nil &&
		report.Connections.Saturation() < m.config.PoolSaturationThreshold
	report.QueriesHealthy = report.Ping && report.LongRunningQueries == 0

	seen := make(map[string]bool, len(report.Tables))
	report.VacuumNeeded = nil
	for _, t := range report.Tables {
		seen[t.TableName] = true
		if t.DeadTuplePercent() > m.config.DeadTupleThreshold {
			report.VacuumNeeded = append(report.VacuumNeeded, t.TableName)
		}
	}
	report.MissingTables = nil
	if report.Ping {
		for _, name := range tables {
			if !seen[name] {
				report.MissingTables = append(report.MissingTables, name)
			}
		}
		sort.Strings(report.MissingTables)
	}
	report.TablesHealthy = report.Ping && len(report.MissingTables) == 0

	// Dead tuples are reported but do not fail the check.
	report.Healthy = report.Ping &&
		report.ConnectionsHealthy &&
		report.QueriesHealthy &&
		report.TablesHealthy &&
		len(report.Errors) == 0
}
