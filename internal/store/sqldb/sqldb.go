// Package sqldb is the relational lead sink. It supports SQLite (the default,
// a single local file) and PostgreSQL.
package sqldb

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/znz-systems/leadform/internal/models"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type dialect struct {
	schema    string
	insert    string
	returning bool
}

var dialects = map[string]dialect{
	DriverSQLite: {
		schema: `CREATE TABLE IF NOT EXISTS leads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT,
			email TEXT,
			message TEXT,
			created_at TEXT
		)`,
		insert: `INSERT INTO leads (name, email, message, created_at) VALUES (?, ?, ?, ?)`,
	},
	DriverPostgres: {
		schema: `CREATE TABLE IF NOT EXISTS leads (
			id BIGSERIAL PRIMARY KEY,
			name TEXT,
			email TEXT,
			message TEXT,
			created_at TEXT
		)`,
		insert:    `INSERT INTO leads (name, email, message, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		returning: true,
	},
}

// DB wraps a connection pool with the driver's SQL dialect.
type DB struct {
	db *sql.DB
	d  dialect
}

// Open connects to the database and waits for it to answer. Postgres may
// still be starting in a container, so the ping is retried.
func Open(driver, dsn string) (*DB, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	var pingErr error
	for attempt := 1; attempt <= 5; attempt++ {
		pingErr = db.Ping()
		if pingErr == nil {
			break
		}
		slog.Warn("database not ready, retrying", "driver", driver, "attempt", attempt, "error", pingErr)
		time.Sleep(2 * time.Second)
	}
	if pingErr != nil {
		db.Close()
		return nil, errors.Wrap(pingErr, "failed to ping database after 5 attempts")
	}

	if driver == DriverSQLite {
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(1 * time.Minute)
	}

	return &DB{db: db, d: d}, nil
}

// Close releases the pool.
func (s *DB) Close() error {
	return s.db.Close()
}

// Ping checks that the database still answers.
func (s *DB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the leads table if it does not exist.
func (s *DB) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.d.schema)
	return errors.Wrap(err, "creating leads table")
}

// InsertLead stores one row and returns the id the database assigned.
func (s *DB) InsertLead(ctx context.Context, name, email, message, createdAt string) (int64, error) {
	if s.d.returning {
		var id int64
		err := s.db.QueryRowContext(ctx, s.d.insert, name, email, message, createdAt).Scan(&id)
		if err != nil {
			return 0, errors.Wrap(err, "inserting lead")
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, s.d.insert, name, email, message, createdAt)
	if err != nil {
		return 0, errors.Wrap(err, "inserting lead")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "reading lead id")
	}
	return id, nil
}

// ListLeads returns every row ordered by id.
func (s *DB) ListLeads(ctx context.Context) ([]models.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, message, created_at FROM leads ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "listing leads")
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var l models.Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.Message, &l.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning lead")
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}
