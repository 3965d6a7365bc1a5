package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBInstrumentationConfig controls GORM tracing and query metrics
type DBInstrumentationConfig struct {
	TraceEnabled  bool
	LogFullSQL    bool
	DBSystem      string
	SlowThreshold time.Duration
}

// DefaultDBInstrumentationConfig returns tracing off, variables hidden and
// a 200ms slow query threshold.
func DefaultDBInstrumentationConfig() DBInstrumentationConfig {
	return DBInstrumentationConfig{
		DBSystem:      "postgresql",
		SlowThreshold: 200 * time.Millisecond,
	}
}

type dbContextKey string

const queryStartKey dbContextKey = "billing_query_start"

// InstrumentDB registers otelgorm when tracing is on and always records a
// query duration histogram labeled by operation and table.
func InstrumentDB(db *gorm.DB, mp *MeterProvider, cfg DBInstrumentationConfig, logger *zap.Logger) error {
	if cfg.TraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	duration, err := NewHistogram(mp.Meter("invoicing-backend/db"), HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return err
	}

	q := &queryTimer{duration: duration, slow: cfg.SlowThreshold}
	cb := db.Callback()
	steps := []struct {
		op       string
		register func(before, after func(*gorm.DB)) error
	}{
		{"create", func(b, a func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register("billing_timing:before_create", b); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register("billing_timing:after_create", a)
		}},
		{"query", func(b, a func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register("billing_timing:before_query", b); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register("billing_timing:after_query", a)
		}},
		{"update", func(b, a func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register("billing_timing:before_update", b); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register("billing_timing:after_update", a)
		}},
		{"delete", func(b, a func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register("billing_timing:before_delete", b); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register("billing_timing:after_delete", a)
		}},
		{"row", func(b, a func(*gorm.DB)) error {
			if err := cb.Row().Before("gorm:row").Register("billing_timing:before_row", b); err != nil {
				return err
			}
			return cb.Row().After("gorm:row").Register("billing_timing:after_row", a)
		}},
		{"raw", func(b, a func(*gorm.DB)) error {
			if err := cb.Raw().Before("gorm:raw").Register("billing_timing:before_raw", b); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register("billing_timing:after_raw", a)
		}},
	}
	for _, s := range steps {
		if err := s.register(q.before, q.after(s.op)); err != nil {
			return err
		}
	}

	logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", cfg.TraceEnabled),
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowThreshold),
	)
	return nil
}

type queryTimer struct {
	duration *Histogram
	slow     time.Duration
}

func (q *queryTimer) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey, time.Now())
	}
}

func (q *queryTimer) after(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		start, ok := ctx.Value(queryStartKey).(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)
		q.duration.RecordDuration(ctx, elapsed, AttrDBOperation.String(op), AttrDBTable.String(db.Statement.Table))

		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			RecordError(span, db.Error)
		}
		if q.slow > 0 && elapsed > q.slow {
			span.SetAttributes(attribute.Bool("db.slow_query", true))
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", q.slow.Milliseconds()),
			))
		}
	}
}
