package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"weatherdesk/internal/weather"
)

// ErrNotFound is returned when no record matches the requested id.
var ErrNotFound = errors.New("query record not found")

// Store wraps the SQLite database connection and schema lifecycle.
type Store struct {
	db *sql.DB
}

// Open initializes the database connection, creating directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One writer connection; each statement is its own transaction.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// InitSchema ensures the queries table exists.
func (s *Store) InitSchema(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL,
		location_input TEXT NOT NULL,
		lat REAL,
		lon REAL,
		start_date TEXT,
		end_date TEXT,
		temp_summary TEXT,
		notes TEXT
	);`

	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// InsertQuery persists a new query record and fills in its assigned id.
func (s *Store) InsertQuery(ctx context.Context, rec *weather.QueryRecord) error {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO queries (created_at, location_input, lat, lon, start_date, end_date, temp_summary, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		rec.CreatedAt,
		rec.LocationInput,
		nullFloat(rec.Lat),
		nullFloat(rec.Lon),
		nullString(rec.StartDate),
		nullString(rec.EndDate),
		nullString(rec.TempSummary),
		nullString(rec.Notes),
	)
	if err != nil {
		return fmt.Errorf("insert query record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("query record id: %w", err)
	}
	rec.ID = id
	return nil
}

const queryColumns = `id, created_at, location_input, lat, lon, start_date, end_date, temp_summary, notes`

// ListQueries returns all records ordered newest first.
func (s *Store) ListQueries(ctx context.Context) ([]weather.QueryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+queryColumns+` FROM queries ORDER BY id DESC;`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []weather.QueryRecord
	for rows.Next() {
		rec, err := scanQuery(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan query record: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query records: %w", err)
	}
	return records, nil
}

// GetQuery returns one record by id, or ErrNotFound.
func (s *Store) GetQuery(ctx context.Context, id int64) (*weather.QueryRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+queryColumns+` FROM queries WHERE id = ?;`, id)

	rec, err := scanQuery(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get query record: %w", err)
	}
	return rec, nil
}

// UpdateQuery changes the two editable fields of a record. Every other column
// is write-once at insert time.
func (s *Store) UpdateQuery(ctx context.Context, id int64, locationInput string, notes *string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE queries SET location_input = ?, notes = ? WHERE id = ?;`,
		locationInput, nullString(notes), id)
	if err != nil {
		return fmt.Errorf("update query record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update query record: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteQuery removes one record by id, or returns ErrNotFound.
func (s *Store) DeleteQuery(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queries WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete query record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete query record: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanQuery(scan func(dest ...interface{}) error) (*weather.QueryRecord, error) {
	var (
		rec        weather.QueryRecord
		lat, lon   sql.NullFloat64
		start, end sql.NullString
		summary    sql.NullString
		notes      sql.NullString
	)

	if err := scan(&rec.ID, &rec.CreatedAt, &rec.LocationInput, &lat, &lon, &start, &end, &summary, &notes); err != nil {
		return nil, err
	}

	if lat.Valid {
		v := lat.Float64
		rec.Lat = &v
	}
	if lon.Valid {
		v := lon.Float64
		rec.Lon = &v
	}
	if start.Valid {
		v := start.String
		rec.StartDate = &v
	}
	if end.Valid {
		v := end.String
		rec.EndDate = &v
	}
	if summary.Valid {
		v := summary.String
		rec.TempSummary = &v
	}
	if notes.Valid {
		v := notes.String
		rec.Notes = &v
	}
	return &rec, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
