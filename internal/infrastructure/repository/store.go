package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/infrastructure/config"
	"github.com/davidleathers/aire-backend/internal/infrastructure/database"
	"github.com/davidleathers/aire-backend/internal/infrastructure/querybuilder"
	"github.com/davidleathers/aire-backend/internal/infrastructure/telemetry"
)

// insertBatchSize keeps a multi-row INSERT well below Postgres' 65535
// bind-parameter limit for the widest collection.
const insertBatchSize = 500

// Store persists risk records into the five collections and runs filters
// against them. It does not validate records.
type Store struct {
	db           database.DB
	logger       *zap.Logger
	tracer       trace.Tracer
	queryTimeout time.Duration
}

// NewStore wraps an open database handle.
func NewStore(db database.DB, cfg config.DatabaseConfig, logger *zap.Logger) *Store {
	return &Store{
		db:           db,
		logger:       logger.Named("store"),
		tracer:       telemetry.Tracer("aire/repository"),
		queryTimeout: cfg.QueryTimeout,
	}
}

// InsertMany writes records to collection in one transaction and returns the
// number of new rows. Records whose id already exists are skipped. Derived
// annotations are dropped and unknown keys land in the attributes column.
func (s *Store) InsertMany(ctx context.Context, c Collection, records []risk.Record) (int, error) {
	cols, err := schemaFor(c)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([][]interface{}, len(records))
	for i, r := range records {
		row, err := encodeRecord(cols, r)
		if err != nil {
			return 0, fmt.Errorf("encoding %s record %d: %w", c, i, err)
		}
		rows[i] = row
	}

	ctx, span := telemetry.StartDatabaseSpan(ctx, s.tracer, "insert", string(c))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	inserted := 0
	err = database.InTransaction(ctx, s.db, func(ctx context.Context, tx pgx.Tx) error {
		for start := 0; start < len(rows); start += insertBatchSize {
			end := min(start+insertBatchSize, len(rows))

			qb := querybuilder.New().
				Insert(string(c), columnNames(cols)...).
				OnConflictDoNothing(risk.FieldID)
			for _, row := range rows[start:end] {
				qb.Values(row...)
			}

			query, params, err := qb.ToSQL()
			if err != nil {
				return err
			}
			tag, err := tx.Exec(ctx, query, params...)
			if err != nil {
				return err
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, WrapRepositoryError(err, "insert into "+string(c))
	}

	span.SetAttributes(telemetry.AttrRecords.Int(inserted))
	s.logger.Debug("records inserted",
		zap.String("collection", string(c)),
		zap.Int("submitted", len(records)),
		zap.Int("inserted", inserted))

	return inserted, nil
}

// Find materializes the filter. An empty result is a non-nil empty slice.
func (s *Store) Find(ctx context.Context, f *Filter) ([]risk.Record, error) {
	query, params, err := f.SelectSQL()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	cols, _ := schemaFor(f.Collection())

	ctx, span := telemetry.StartDatabaseSpan(ctx, s.tracer, "select", string(f.Collection()))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx, query, params...)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, WrapRepositoryError(err, "select from "+string(f.Collection()))
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, WrapRepositoryError(err, "scan "+string(f.Collection()))
	}

	records := make([]risk.Record, 0, len(maps))
	for _, m := range maps {
		records = append(records, decodeRow(cols, m))
	}
	span.SetAttributes(telemetry.AttrRecords.Int(len(records)))
	return records, nil
}

// Count returns the number of rows matching the filter's predicates.
func (s *Store) Count(ctx context.Context, f *Filter) (int, error) {
	query, params, err := f.CountSQL()
	if err != nil {
		return 0, fmt.Errorf("building query: %w", err)
	}

	ctx, span := telemetry.StartDatabaseSpan(ctx, s.tracer, "count", string(f.Collection()))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var n int64
	if err := s.db.QueryRow(ctx, query, params...).Scan(&n); err != nil {
		telemetry.RecordError(span, err)
		return 0, WrapRepositoryError(err, "count "+string(f.Collection()))
	}
	return int(n), nil
}

func encodeRecord(cols []column, r risk.Record) ([]interface{}, error) {
	attrs := make(map[string]interface{})
	for k, v := range r {
		if _, ok := lookupColumn(cols, k); ok || risk.IsDerived(k) || k == attributesColumn {
			continue
		}
		attrs[k] = jsonSafe(v)
	}
	// Attributes read back from the store are flattened; keep nested maps too.
	if nested, ok := r[attributesColumn].(map[string]interface{}); ok {
		for k, v := range nested {
			if _, exists := attrs[k]; !exists {
				attrs[k] = jsonSafe(v)
			}
		}
	}

	row := make([]interface{}, 0, len(cols)+1)
	for _, col := range cols {
		v := r[col.name]
		if col.typ == colUUID {
			id, sourceID := encodeID(v)
			if sourceID != "" {
				attrs[sourceIDAttribute] = sourceID
			}
			row = append(row, id)
			continue
		}
		if v == nil {
			row = append(row, nil)
			continue
		}

		switch col.typ {
		case colText:
			row = append(row, r.String(col.name))
		case colFloat:
			row = append(row, optional(risk.ToFloat(v)))
		case colTimestamp:
			row = append(row, optional(risk.ParseTime(v)))
		case colTextArray:
			row = append(row, r.Strings(col.name))
		case colBool:
			row = append(row, optional(r.Bool(col.name)))
		default:
			return nil, fmt.Errorf("column %s has unsupported type %d", col.name, col.typ)
		}
	}

	encoded, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("encoding attributes: %w", err)
	}
	return append(row, encoded), nil
}

func optional[T any](v T, ok bool) interface{} {
	if !ok {
		return nil
	}
	return v
}

// encodeID returns a UUID for the id column. Ids that are not UUIDs are
// replaced and returned as the second value so they can be kept.
func encodeID(v interface{}) (uuid.UUID, string) {
	switch id := v.(type) {
	case nil:
		return uuid.New(), ""
	case uuid.UUID:
		return id, ""
	case [16]byte:
		return uuid.UUID(id), ""
	case string:
		if parsed, err := uuid.Parse(id); err == nil {
			return parsed, ""
		}
		if id == "" {
			return uuid.New(), ""
		}
		return uuid.New(), id
	default:
		return uuid.New(), fmt.Sprint(id)
	}
}

func jsonSafe(v interface{}) interface{} {
	switch tv := v.(type) {
	case float64:
		if math.IsNaN(tv) || math.IsInf(tv, 0) {
			return nil
		}
		return tv
	case float32:
		return jsonSafe(float64(tv))
	case []interface{}:
		out := make([]interface{}, len(tv))
		for i, item := range tv {
			out[i] = jsonSafe(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(tv))
		for k, item := range tv {
			out[k] = jsonSafe(item)
		}
		return out
	default:
		return v
	}
}

func decodeRow(cols []column, m map[string]interface{}) risk.Record {
	rec := make(risk.Record, len(m))
	if attrs, ok := m[attributesColumn].(map[string]interface{}); ok {
		for k, v := range attrs {
			rec[k] = v
		}
	}

	for _, col := range cols {
		v := m[col.name]
		if v == nil {
			rec[col.name] = nil
			continue
		}
		switch col.typ {
		case colUUID:
			rec[col.name] = decodeUUID(v)
		case colTextArray:
			rec[col.name] = decodeStrings(v)
		default:
			rec[col.name] = v
		}
	}
	return rec
}

func decodeUUID(v interface{}) string {
	switch id := v.(type) {
	case [16]byte:
		return uuid.UUID(id).String()
	case uuid.UUID:
		return id.String()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

func decodeStrings(v interface{}) []string {
	switch items := v.(type) {
	case []string:
		return items
	case []interface{}:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
