package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
	"github.com/bestquark/ml-at-ml-log/pkg/logger"
)

const versionKey = "schedule_version"

const schema = `
CREATE TABLE IF NOT EXISTS participants (
	position INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT NOT NULL UNIQUE,
	email    TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS schedule (
	date        TEXT PRIMARY KEY,
	presenter_1 TEXT NOT NULL,
	presenter_2 TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS materials (
	id          TEXT PRIMARY KEY,
	date        TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	file_name   TEXT NOT NULL DEFAULT '',
	link        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS materials_date ON materials(date);
CREATE TABLE IF NOT EXISTS slides (
	date            TEXT PRIMARY KEY,
	presentation_id TEXT NOT NULL,
	link            TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLiteStore is a Store backed by a SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", path, o.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStoreUnavailable, path, err)
	}
	// One writer at a time keeps version checks and replacements serialised.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: apply schema: %v", ErrStoreUnavailable, err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO meta(key, value) VALUES (?, ?)`, versionKey, string(newVersion())); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: seed version: %v", ErrStoreUnavailable, err)
	}

	o.log.Info(ctx, "sqlite store opened", logger.String("path", path))
	return &SQLiteStore{db: db, opts: o}, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *SQLiteStore) LoadRoster(ctx context.Context) (_ []model.Participant, err error) {
	defer func(start time.Time) { observe("load_roster", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT name, email FROM participants ORDER BY position`)
	if err != nil {
		return nil, unavailable("query roster", err)
	}
	defer rows.Close()

	var out []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.Name, &p.Email); err != nil {
			return nil, unavailable("scan participant", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate roster", err)
	}
	return out, nil
}

func (s *SQLiteStore) SaveRoster(ctx context.Context, roster []model.Participant) (err error) {
	defer func(start time.Time) { observe("save_roster", start, err) }(time.Now())

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM participants`); err != nil {
			return unavailable("clear roster", err)
		}
		for _, p := range roster {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO participants(name, email) VALUES (?, ?)`, p.Name, p.Email); err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: participant %q", ErrDuplicate, p.Name)
				}
				return unavailable("insert participant", err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) AddParticipant(ctx context.Context, p model.Participant) (err error) {
	defer func(start time.Time) { observe("add_participant", start, err) }(time.Now())

	_, err = s.db.ExecContext(ctx, `INSERT INTO participants(name, email) VALUES (?, ?)`, p.Name, p.Email)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: participant %q", ErrDuplicate, p.Name)
	}
	if err != nil {
		return unavailable("insert participant", err)
	}
	return nil
}

func (s *SQLiteStore) RemoveParticipant(ctx context.Context, name string) (err error) {
	defer func(start time.Time) { observe("remove_participant", start, err) }(time.Now())

	res, err := s.db.ExecContext(ctx, `DELETE FROM participants WHERE name = ?`, name)
	if err != nil {
		return unavailable("delete participant", err)
	}
	return requireAffected(res, fmt.Sprintf("participant %q", name))
}

func (s *SQLiteStore) LoadSchedule(ctx context.Context) (_ model.Schedule, _ Version, err error) {
	defer func(start time.Time) { observe("load_schedule", start, err) }(time.Now())

	var (
		schedule model.Schedule
		version  Version
	)
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		v, err := currentVersion(ctx, tx)
		if err != nil {
			return err
		}
		version = v

		rows, err := tx.QueryContext(ctx, `SELECT date, presenter_1, presenter_2 FROM schedule ORDER BY date`)
		if err != nil {
			return unavailable("query schedule", err)
		}
		defer rows.Close()
		for rows.Next() {
			var date, first, second string
			if err := rows.Scan(&date, &first, &second); err != nil {
				return unavailable("scan slot", err)
			}
			slot, err := model.ParseSlot(date, first, second)
			if err != nil {
				return err
			}
			schedule = append(schedule, slot)
		}
		if err := rows.Err(); err != nil {
			return unavailable("iterate schedule", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return schedule, version, nil
}

func (s *SQLiteStore) SaveSchedule(ctx context.Context, schedule model.Schedule, version Version) (_ Version, err error) {
	defer func(start time.Time) { observe("save_schedule", start, err) }(time.Now())

	if err := schedule.Validate(); err != nil {
		return "", err
	}
	next := newVersion()
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := currentVersion(ctx, tx)
		if err != nil {
			return err
		}
		if current != version {
			return fmt.Errorf("%w: have %s, stored %s", ErrVersionConflict, version, current)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM schedule`); err != nil {
			return unavailable("clear schedule", err)
		}
		for _, slot := range schedule {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schedule(date, presenter_1, presenter_2) VALUES (?, ?, ?)`,
				slot.Key(), slot.Presenters[0].String(), slot.Presenters[1].String()); err != nil {
				return unavailable("insert slot", err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE meta SET value = ? WHERE key = ?`, string(next), versionKey); err != nil {
			return unavailable("bump version", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return next, nil
}

func (s *SQLiteStore) ListMaterials(ctx context.Context, date time.Time) (_ []model.Material, err error) {
	defer func(start time.Time) { observe("list_materials", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, title, description, file_name, link
		FROM materials WHERE date = ?
		ORDER BY title, id`, model.Day(date).Format(model.DateLayout))
	if err != nil {
		return nil, unavailable("query materials", err)
	}
	defer rows.Close()

	var out []model.Material
	for rows.Next() {
		var (
			m    model.Material
			date string
		)
		if err := rows.Scan(&m.ID, &date, &m.Title, &m.Description, &m.FileName, &m.Link); err != nil {
			return nil, unavailable("scan material", err)
		}
		if m.Date, err = model.ParseDate(date); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate materials", err)
	}
	return out, nil
}

func (s *SQLiteStore) AddMaterial(ctx context.Context, m model.Material) (_ model.Material, err error) {
	defer func(start time.Time) { observe("add_material", start, err) }(time.Now())

	m.ID = uuid.NewString()
	m.Date = model.Day(m.Date)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO materials(id, date, title, description, file_name, link)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Date.Format(model.DateLayout), m.Title, m.Description, m.FileName, m.Link)
	if err != nil {
		return model.Material{}, unavailable("insert material", err)
	}
	return m, nil
}

func (s *SQLiteStore) DeleteMaterial(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe("delete_material", start, err) }(time.Now())

	res, err := s.db.ExecContext(ctx, `DELETE FROM materials WHERE id = ?`, id)
	if err != nil {
		return unavailable("delete material", err)
	}
	return requireAffected(res, "material "+id)
}

func (s *SQLiteStore) FindSlideDeck(ctx context.Context, date time.Time) (_ model.SlideDeck, err error) {
	defer func(start time.Time) { observe("find_slide_deck", start, err) }(time.Now())

	key := model.Day(date).Format(model.DateLayout)
	deck := model.SlideDeck{Date: model.Day(date)}
	err = s.db.QueryRowContext(ctx,
		`SELECT presentation_id, link FROM slides WHERE date = ?`, key).Scan(&deck.PresentationID, &deck.Link)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SlideDeck{}, fmt.Errorf("%w: slide deck for %s", ErrNotFound, key)
	}
	if err != nil {
		return model.SlideDeck{}, unavailable("query slide deck", err)
	}
	return deck, nil
}

func (s *SQLiteStore) SetSlideDeck(ctx context.Context, deck model.SlideDeck) (err error) {
	defer func(start time.Time) { observe("set_slide_deck", start, err) }(time.Now())

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO slides(date, presentation_id, link) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET presentation_id = excluded.presentation_id, link = excluded.link`,
		model.Day(deck.Date).Format(model.DateLayout), deck.PresentationID, deck.Link)
	if err != nil {
		return unavailable("upsert slide deck", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.opts.log.Warn(ctx, "rollback failed", logger.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

func currentVersion(ctx context.Context, tx *sql.Tx) (Version, error) {
	var v string
	if err := tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, versionKey).Scan(&v); err != nil {
		return "", unavailable("read version", err)
	}
	return Version(v), nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return nil
}
