package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"strom_dashboard/internal/fetch"
	"strom_dashboard/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS zaehler (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	seriennummer TEXT NOT NULL UNIQUE,
	hersteller   TEXT
);
CREATE TABLE IF NOT EXISTS messwerte (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	zaehler_id        INTEGER NOT NULL REFERENCES zaehler(id),
	timestamp         TEXT NOT NULL,
	bezug_kwh         REAL NOT NULL,
	einspeisung_kwh   REAL NOT NULL,
	wirkleistung_watt REAL NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS messwerte_zaehler_ts ON messwerte(zaehler_id, timestamp);
CREATE INDEX IF NOT EXISTS messwerte_day ON messwerte(substr(timestamp, 1, 10));
`

// UnknownMeter is the serial number recorded for readings that carry none.
const UnknownMeter = "unknown"

// SQLite serves readings from the zaehler/messwerte database. Timestamps are
// stored as RFC 3339 text in the meter's local offset, so the first ten
// characters are the local calendar day. The text does not sort in time
// order across an offset change, so a day is read back in insertion order
// and the latest reading is found with julianday, which normalizes to UTC.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Import inserts records, registering unseen meters on the way. Records
// already present for the same meter and timestamp are skipped. It returns
// the number of inserted readings.
func (s *SQLite) Import(ctx context.Context, records []model.LiveStatus) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	meters := make(map[string]int64)
	inserted := 0
	for i, rec := range records {
		if rec.Timestamp == nil {
			return 0, fmt.Errorf("record %d has no timestamp", i)
		}
		serial, name := UnknownMeter, ""
		if rec.Seriennummer != nil && *rec.Seriennummer != "" {
			serial = *rec.Seriennummer
		}
		if rec.Zaehlername != nil {
			name = *rec.Zaehlername
		}

		id, ok := meters[serial]
		if !ok {
			id, err = meterID(ctx, tx, serial, name)
			if err != nil {
				return 0, err
			}
			meters[serial] = id
		}

		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO messwerte (zaehler_id, timestamp, bezug_kwh, einspeisung_kwh, wirkleistung_watt)
			VALUES (?, ?, ?, ?, ?)`,
			id, rec.Timestamp.Format(time.RFC3339Nano), rec.Bezug, rec.Einspeisung, rec.Leistung)
		if err != nil {
			return 0, fmt.Errorf("inserting reading %d: %w", i, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return inserted, nil
}

func meterID(ctx context.Context, tx *sql.Tx, serial, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM zaehler WHERE seriennummer = ?`, serial).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("looking up meter %s: %w", serial, err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO zaehler (seriennummer, hersteller) VALUES (?, ?)`, serial, name)
	if err != nil {
		return 0, fmt.Errorf("registering meter %s: %w", serial, err)
	}
	return res.LastInsertId()
}

// Day returns the readings of day in the order they were imported.
func (s *SQLite) Day(ctx context.Context, day string) (model.DaySeries, error) {
	if !fetch.ValidDay(day) {
		return nil, fmt.Errorf("invalid day %q", day)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, wirkleistung_watt, bezug_kwh, einspeisung_kwh
		FROM messwerte
		WHERE substr(timestamp, 1, 10) = ?
		ORDER BY id`, day)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", day, err)
	}
	defer rows.Close()

	series := model.DaySeries{}
	for rows.Next() {
		var ts string
		var r model.Reading
		if err := rows.Scan(&ts, &r.Leistung, &r.Bezug, &r.Einspeisung); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", day, err)
		}
		if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parsing timestamp %q: %w", ts, err)
		}
		series = append(series, r)
	}
	return series, rows.Err()
}

// Live returns the most recent reading together with its meter.
func (s *SQLite) Live(ctx context.Context) (model.LiveStatus, error) {
	var (
		ts, serial string
		name       sql.NullString
		live       model.LiveStatus
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT m.timestamp, m.wirkleistung_watt, m.bezug_kwh, m.einspeisung_kwh, z.seriennummer, z.hersteller
		FROM messwerte m JOIN zaehler z ON z.id = m.zaehler_id
		ORDER BY julianday(m.timestamp) DESC, m.id DESC
		LIMIT 1`).Scan(&ts, &live.Leistung, &live.Bezug, &live.Einspeisung, &serial, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LiveStatus{}, errors.New("no readings stored")
	}
	if err != nil {
		return model.LiveStatus{}, fmt.Errorf("querying latest reading: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return model.LiveStatus{}, fmt.Errorf("parsing timestamp %q: %w", ts, err)
	}
	live.Timestamp = &t
	if serial != UnknownMeter {
		live.Seriennummer = &serial
	}
	if name.Valid && name.String != "" {
		live.Zaehlername = &name.String
	}
	return live, nil
}

// Days lists the days that have readings, oldest first.
func (s *SQLite) Days(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT substr(timestamp, 1, 10) AS day FROM messwerte ORDER BY day`)
	if err != nil {
		return nil, fmt.Errorf("listing days: %w", err)
	}
	defer rows.Close()

	days := []string{}
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scanning day: %w", err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

// FetchDay implements fetch.Source. A day without rows is not an error.
func (s *SQLite) FetchDay(ctx context.Context, day string) (model.DaySeries, error) {
	series, err := s.Day(ctx, day)
	if err != nil {
		return nil, &fetch.FetchError{Doc: s.path + "#" + day, Err: err}
	}
	return series, nil
}

// FetchLive implements fetch.Source.
func (s *SQLite) FetchLive(ctx context.Context) (model.LiveStatus, error) {
	live, err := s.Live(ctx)
	if err != nil {
		return model.LiveStatus{}, &fetch.FetchError{Doc: s.path, Err: err}
	}
	return live, nil
}
