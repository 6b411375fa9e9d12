package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS reminder_configs (
	item_id                 INTEGER PRIMARY KEY,
	enabled                 INTEGER NOT NULL DEFAULT 0,
	title                   TEXT    NOT NULL,
	body                    TEXT    NOT NULL DEFAULT '',
	schedule_kind           TEXT    NOT NULL,
	start_at                TEXT    NOT NULL,
	time_zone               TEXT    NOT NULL DEFAULT '',
	repeat_kind             TEXT    NOT NULL,
	repeat_interval_minutes INTEGER,
	end_at                  TEXT,
	actions                 TEXT    NOT NULL DEFAULT '[]',
	updated_at              TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reminder_configs_enabled ON reminder_configs (enabled);
`

const sqliteColumns = `item_id, enabled, title, body, schedule_kind, start_at, time_zone,
	repeat_kind, repeat_interval_minutes, end_at, actions, updated_at`

// SQLiteConfigRepository stores configs in a single SQLite file. Change
// notifications only reach watchers in the same process.
type SQLiteConfigRepository struct {
	db  *sql.DB
	hub *changeHub
	now func() time.Time
}

var _ domain.ConfigRepository = (*SQLiteConfigRepository)(nil)

func NewSQLiteConfigRepository(path string) (*SQLiteConfigRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps writers from racing on SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteConfigRepository{
		db:  db,
		hub: newChangeHub(),
		now: time.Now,
	}, nil
}

func (r *SQLiteConfigRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteConfigRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteConfigRepository) Get(ctx context.Context, itemID int64) (*domain.ReminderConfig, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM reminder_configs WHERE item_id = ?`, itemID)

	cfg, err := scanConfig(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConfigNotFound
		}
		return nil, err
	}
	return cfg, nil
}

func (r *SQLiteConfigRepository) GetAll(ctx context.Context) ([]*domain.ReminderConfig, error) {
	return r.query(ctx, `SELECT `+sqliteColumns+` FROM reminder_configs ORDER BY item_id`)
}

func (r *SQLiteConfigRepository) GetEnabled(ctx context.Context) ([]*domain.ReminderConfig, error) {
	return r.query(ctx, `SELECT `+sqliteColumns+` FROM reminder_configs WHERE enabled = 1 ORDER BY item_id`)
}

func (r *SQLiteConfigRepository) Upsert(ctx context.Context, cfg *domain.ReminderConfig) error {
	if cfg == nil {
		return ErrNilConfig
	}

	now := r.now()
	rec := newConfigRecord(cfg, now)

	actions, err := json.Marshal(rec.Actions)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfigData, err)
	}
	if rec.Actions == nil {
		actions = []byte("[]")
	}

	var interval sql.NullInt64
	if rec.RepeatIntervalMinutes != nil {
		interval = sql.NullInt64{Int64: int64(*rec.RepeatIntervalMinutes), Valid: true}
	}
	var endAt sql.NullString
	if rec.EndAt != nil {
		endAt = sql.NullString{String: formatInstant(*rec.EndAt), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO reminder_configs (`+sqliteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			enabled = excluded.enabled,
			title = excluded.title,
			body = excluded.body,
			schedule_kind = excluded.schedule_kind,
			start_at = excluded.start_at,
			time_zone = excluded.time_zone,
			repeat_kind = excluded.repeat_kind,
			repeat_interval_minutes = excluded.repeat_interval_minutes,
			end_at = excluded.end_at,
			actions = excluded.actions,
			updated_at = excluded.updated_at
	`, rec.ItemID, rec.Enabled, rec.Title, rec.Body, rec.ScheduleKind,
		formatInstant(rec.StartAt), rec.TimeZone, rec.RepeatKind,
		interval, endAt, string(actions), formatInstant(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert reminder config: %w", err)
	}

	r.hub.publish(domain.ConfigChange{ItemID: cfg.ItemID, Kind: domain.ChangeUpserted, At: now})
	return nil
}

func (r *SQLiteConfigRepository) Disable(ctx context.Context, itemID int64) error {
	now := r.now()

	res, err := r.db.ExecContext(ctx,
		`UPDATE reminder_configs SET enabled = 0, updated_at = ? WHERE item_id = ?`,
		formatInstant(now), itemID)
	if err != nil {
		return fmt.Errorf("failed to disable reminder config: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrConfigNotFound
	}

	r.hub.publish(domain.ConfigChange{ItemID: itemID, Kind: domain.ChangeDisabled, At: now})
	return nil
}

func (r *SQLiteConfigRepository) DisableAll(ctx context.Context) error {
	now := r.now()

	if _, err := r.db.ExecContext(ctx,
		`UPDATE reminder_configs SET enabled = 0, updated_at = ? WHERE enabled = 1`,
		formatInstant(now)); err != nil {
		return fmt.Errorf("failed to disable reminder configs: %w", err)
	}

	r.hub.publish(domain.ConfigChange{Kind: domain.ChangeDisabledAll, At: now})
	return nil
}

func (r *SQLiteConfigRepository) Delete(ctx context.Context, itemID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM reminder_configs WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("failed to delete reminder config: %w", err)
	}

	r.hub.publish(domain.ConfigChange{ItemID: itemID, Kind: domain.ChangeDeleted, At: r.now()})
	return nil
}

func (r *SQLiteConfigRepository) Watch(ctx context.Context) (<-chan domain.ConfigChange, error) {
	return r.hub.subscribe(ctx), nil
}

func (r *SQLiteConfigRepository) query(ctx context.Context, query string, args ...any) ([]*domain.ReminderConfig, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder configs: %w", err)
	}
	defer rows.Close()

	configs := make([]*domain.ReminderConfig, 0)
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfig(row rowScanner) (*domain.ReminderConfig, error) {
	var (
		rec       configRecord
		startAt   string
		interval  sql.NullInt64
		endAt     sql.NullString
		actions   string
		updatedAt string
	)

	if err := row.Scan(&rec.ItemID, &rec.Enabled, &rec.Title, &rec.Body, &rec.ScheduleKind,
		&startAt, &rec.TimeZone, &rec.RepeatKind, &interval, &endAt, &actions, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if rec.StartAt, err = parseInstant(startAt); err != nil {
		return nil, err
	}
	if interval.Valid {
		v := int(interval.Int64)
		rec.RepeatIntervalMinutes = &v
	}
	if endAt.Valid {
		v, err := parseInstant(endAt.String)
		if err != nil {
			return nil, err
		}
		rec.EndAt = &v
	}
	if actions != "" {
		if err := json.Unmarshal([]byte(actions), &rec.Actions); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfigData, err)
		}
	}

	return rec.toDomain(), nil
}

func formatInstant(t time.Time) string {
	return storedInstant(t).Format(time.RFC3339Nano)
}

func parseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidConfigData, err)
	}
	return t, nil
}
