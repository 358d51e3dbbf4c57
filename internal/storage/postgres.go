package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	apperrors "cgmdose/internal/errors"
	"cgmdose/internal/validation"
	"cgmdose/pkg/contracts/domain"
)

const (
	defaultConnectAttempts = 5
	defaultMaxConns        = 10
	insertBatchSize        = 1000
)

// Config describes the PostgreSQL target.
type Config struct {
	Host     string `validate:"required"`
	Port     int    `validate:"min=1,max=65535"`
	Database string `validate:"required"`
	Username string `validate:"required"`
	Password string
	SSLMode  string `validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	Schema   string `validate:"required,sqlident"`
	Table    string `validate:"required,sqlident"`

	// Optional with defaults.
	MaxConns        int32 `validate:"min=0"`
	ConnectAttempts uint
	Logger          *slog.Logger    `validate:"-"`
	Clock           clockwork.Clock `validate:"-"`
}

// Validate checks the config and fills defaults.
func (c *Config) Validate() error {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxConns == 0 {
		c.MaxConns = defaultMaxConns
	}
	if c.ConnectAttempts == 0 {
		c.ConnectAttempts = defaultConnectAttempts
	}
	return validation.Struct(c)
}

// DSN returns the connection URL.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Postgres is a Gateway over a pgx connection pool. The table's primary key
// is datetime.
type Postgres struct {
	pool   *pgxpool.Pool
	schema pgx.Identifier
	table  pgx.Identifier
	log    *slog.Logger
	clock  clockwork.Clock
}

var _ Gateway = (*Postgres)(nil)

// NewPostgres connects to the database, retrying with exponential backoff.
func NewPostgres(ctx context.Context, cfg Config) (*Postgres, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, apperrors.NewConfigError("failed to parse postgres config", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	log := cfg.Logger.With(slog.String("component", "postgres"))
	log.Info("Connecting to PostgreSQL",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("database", cfg.Database),
		slog.String("table", cfg.Schema+"."+cfg.Table))

	attempt := 0
	pool, err := backoff.Retry(ctx, func() (*pgxpool.Pool, error) {
		attempt++
		if attempt > 1 {
			log.Warn("Failed to connect to PostgreSQL, retrying", slog.Int("attempt", attempt))
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return pool, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(cfg.ConnectAttempts))
	if err != nil {
		return nil, apperrors.NewStorageError("failed to connect to postgres", err).
			WithContext("attempts", attempt)
	}

	return &Postgres{
		pool:   pool,
		schema: pgx.Identifier{cfg.Schema},
		table:  pgx.Identifier{cfg.Schema, cfg.Table},
		log:    log,
		clock:  cfg.Clock,
	}, nil
}

// Migrate creates the schema and the record table when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, p.schema.Sanitize()),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				datetime   TIMESTAMP PRIMARY KEY,
				glucose    DOUBLE PRECISION NOT NULL DEFAULT 0,
				carbs      DOUBLE PRECISION NOT NULL DEFAULT 0,
				bolus      DOUBLE PRECISION NOT NULL DEFAULT 0,
				basal      DOUBLE PRECISION NOT NULL DEFAULT 0,
				hour       INTEGER NOT NULL CHECK (hour BETWEEN 0 AND 23),
				hour_group INTEGER NOT NULL CHECK (hour_group BETWEEN 0 AND 7)
			)`, p.table.Sanitize()),
	}
	for _, stmt := range statements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return apperrors.NewStorageError("migration failed", err)
		}
	}
	p.log.Debug("PostgreSQL migrations completed")
	return nil
}

// InsertRecords appends t in batches. Rows with an existing datetime are
// skipped by ON CONFLICT DO NOTHING.
func (p *Postgres) InsertRecords(ctx context.Context, t domain.Table) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (datetime, glucose, carbs, bolus, basal, hour, hour_group)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (datetime) DO NOTHING`, p.table.Sanitize())

	var inserted int64
	for start := 0; start < t.Len(); start += insertBatchSize {
		end := min(start+insertBatchSize, t.Len())
		n, err := p.insertBatch(ctx, query, t.Records[start:end])
		inserted += n
		if err != nil {
			return inserted, apperrors.NewStorageError("failed to insert records", err).
				WithContext("offset", start)
		}
	}

	p.log.Debug("Inserted records",
		slog.Int("submitted", t.Len()),
		slog.Int64("inserted", inserted))
	return inserted, nil
}

func (p *Postgres) insertBatch(ctx context.Context, query string, records []domain.Record) (int64, error) {
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(query, r.DateTime, r.Glucose, r.Carbs, r.Bolus, r.Basal, r.Hour, r.HourGroup)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range records {
		tag, err := results.Exec()
		if err != nil {
			return inserted, err
		}
		inserted += tag.RowsAffected()
	}
	return inserted, results.Close()
}

// ReadAll returns every stored record ordered by datetime.
func (p *Postgres) ReadAll(ctx context.Context) (domain.Table, error) {
	return p.query(ctx, fmt.Sprintf(`%s ORDER BY datetime`, p.selectClause()))
}

// ReadDaysFromNow returns the records on or after Cutoff(now, days).
func (p *Postgres) ReadDaysFromNow(ctx context.Context, days int) (domain.Table, error) {
	cutoff, err := Cutoff(p.clock.Now(), days)
	if err != nil {
		return domain.Table{}, err
	}
	return p.query(ctx,
		fmt.Sprintf(`%s WHERE datetime >= $1 ORDER BY datetime`, p.selectClause()),
		cutoff)
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) selectClause() string {
	return fmt.Sprintf(`SELECT datetime, glucose, carbs, bolus, basal, hour, hour_group FROM %s`, p.table.Sanitize())
}

func (p *Postgres) query(ctx context.Context, sql string, args ...any) (domain.Table, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return domain.Table{}, apperrors.NewStorageError("failed to query records", err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Record, error) {
		var r domain.Record
		err := row.Scan(&r.DateTime, &r.Glucose, &r.Carbs, &r.Bolus, &r.Basal, &r.Hour, &r.HourGroup)
		return r, err
	})
	if err != nil {
		return domain.Table{}, apperrors.NewStorageError("failed to scan records", err)
	}
	return domain.NewTable(records), nil
}
