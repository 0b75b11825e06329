package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hotelsite/internal/models"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

const memoryPath = ":memory:"

type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

// NewDB opens the sqlite database at path and creates the schema.
// A single connection is used, so writers are serialized and ":memory:"
// databases survive for the lifetime of the handle.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, path: path, logger: logger}
	if err := db.createTables(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return db, nil
}

// Path returns the file the database was opened from.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) createTables() error {
	queries := []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS rooms (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            images TEXT NOT NULL DEFAULT '[]',
            price INTEGER NOT NULL CHECK (price >= 0),
            discounted_price INTEGER NOT NULL DEFAULT 0 CHECK (discounted_price >= 0),
            rating REAL NOT NULL DEFAULT 0,
            type TEXT NOT NULL,
            capacity INTEGER NOT NULL CHECK (capacity > 0),
            amenities TEXT NOT NULL DEFAULT '[]',
            inventory INTEGER NOT NULL DEFAULT 0 CHECK (inventory >= 0),
            sort_order INTEGER NOT NULL DEFAULT 0,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS room_availability (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            room_id INTEGER NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
            date TEXT NOT NULL,
            available_slots INTEGER NOT NULL CHECK (available_slots >= 0),
            special_price INTEGER CHECK (special_price IS NULL OR special_price >= 0),
            updated_at DATETIME NOT NULL,
            UNIQUE (room_id, date)
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL,
            user_name TEXT NOT NULL DEFAULT '',
            user_email TEXT NOT NULL DEFAULT '',
            room_id INTEGER NOT NULL,
            room_name TEXT NOT NULL DEFAULT '',
            check_in TEXT NOT NULL,
            check_out TEXT NOT NULL,
            guests INTEGER NOT NULL,
            rooms INTEGER NOT NULL,
            base_amount INTEGER NOT NULL,
            tax_amount INTEGER NOT NULL,
            total_price INTEGER NOT NULL,
            vat REAL NOT NULL DEFAULT 0,
            service_tax REAL NOT NULL DEFAULT 0,
            other_tax REAL NOT NULL DEFAULT 0,
            status TEXT NOT NULL DEFAULT 'confirmed',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS cancelled_bookings (
            id INTEGER PRIMARY KEY,
            user_id INTEGER NOT NULL,
            user_name TEXT NOT NULL DEFAULT '',
            user_email TEXT NOT NULL DEFAULT '',
            room_id INTEGER NOT NULL,
            room_name TEXT NOT NULL DEFAULT '',
            check_in TEXT NOT NULL,
            check_out TEXT NOT NULL,
            guests INTEGER NOT NULL,
            rooms INTEGER NOT NULL,
            base_amount INTEGER NOT NULL,
            tax_amount INTEGER NOT NULL,
            total_price INTEGER NOT NULL,
            vat REAL NOT NULL DEFAULT 0,
            service_tax REAL NOT NULL DEFAULT 0,
            other_tax REAL NOT NULL DEFAULT 0,
            status TEXT NOT NULL DEFAULT 'cancelled',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            cancelled_at DATETIME NOT NULL,
            reason TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS hotels (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            address TEXT NOT NULL DEFAULT '',
            contact_numbers TEXT NOT NULL DEFAULT '[]',
            check_in_time TEXT NOT NULL DEFAULT '',
            check_out_time TEXT NOT NULL DEFAULT '',
            logo TEXT NOT NULL DEFAULT '',
            food_and_dining TEXT NOT NULL DEFAULT '{}',
            host_details TEXT NOT NULL DEFAULT '{}',
            caretaker_details TEXT NOT NULL DEFAULT '{}',
            email TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE COLLATE NOCASE,
            phone TEXT NOT NULL DEFAULT '',
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'customer',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS deleted_users (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL,
            phone TEXT NOT NULL DEFAULT '',
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            deleted_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS sync_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            booking_id INTEGER NOT NULL,
            payload TEXT,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME NOT NULL,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_rooms_active ON rooms(is_active, sort_order)`,
		`CREATE INDEX IF NOT EXISTS idx_availability_date ON room_availability(date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_room_dates ON bookings(room_id, check_in, check_out)`,
		`CREATE INDEX IF NOT EXISTS idx_cancelled_user_id ON cancelled_bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status, next_retry_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %q: %w", firstLine(query), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

func formatDate(t time.Time) string {
	return models.NormalizeDate(t).Format(models.DateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := models.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %s: %w", s, err)
	}
	return t, nil
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode json column: %w", err)
	}
	return string(data), nil
}

func decodeJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("failed to decode json column: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (db *DB) Close() error {
	return db.DB.Close()
}
