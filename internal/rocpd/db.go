package rocpd

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultDatasetID is reported when no versioned rocpd table exists to
// derive a dataset identifier from.
const DefaultDatasetID = "0000b6ad_2bac_7bac_82e7_5f0563eafa7f"

// ProtocolVersion is the single message-interchange protocol version this
// source supports.
const ProtocolVersion = 1

// DB is a read-only handle on a rocpd trace database.
type DB struct {
	conn *sql.DB
	path string

	closeOnce sync.Once
	closeErr  error
}

// Open opens the database at path. The path must exist; a missing file is
// reported before any query runs.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database file not found: %w", err)
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	return &DB{conn: conn, path: path}, nil
}

// Path returns the filesystem path the database was opened from.
func (d *DB) Path() string {
	return d.path
}

// Close releases the underlying connection. It is safe to call more than
// once; the connection is closed exactly once.
func (d *DB) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.conn.Close()
	})
	return d.closeErr
}

// TableExists reports whether a table with the given name exists.
func (d *DB) TableExists(name string) bool {
	row := d.conn.QueryRow(
		`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, name)
	var found string
	return row.Scan(&found) == nil
}

// DatasetID derives a stable identifier for the dataset from the
// versioned metadata table name (rocpd_metadata_<id>), taking the suffix
// after the table-name stem. Databases without such a table get
// DefaultDatasetID.
func (d *DB) DatasetID() string {
	row := d.conn.QueryRow(
		`SELECT name FROM sqlite_master
		 WHERE type='table' AND name LIKE 'rocpd!_metadata!_%' ESCAPE '!'
		 ORDER BY name LIMIT 1`)
	var table string
	if err := row.Scan(&table); err != nil {
		return DefaultDatasetID
	}
	return strings.TrimPrefix(table, "rocpd_metadata_")
}

// Categories returns the distinct event categories recorded in the
// database, sorted ascending.
func (d *DB) Categories() ([]string, error) {
	return d.stringColumn(
		`SELECT DISTINCT s.string AS category
		 FROM rocpd_event e
		 JOIN rocpd_string s ON e.category_id = s.id
		 ORDER BY category`)
}

// Threads returns the distinct thread ids that appear on region records.
func (d *DB) Threads() ([]int64, error) {
	return d.intColumn(`SELECT DISTINCT tid FROM rocpd_region ORDER BY tid`)
}

// Queues returns the known queue ids.
func (d *DB) Queues() ([]int64, error) {
	return d.intColumn(`SELECT DISTINCT id FROM rocpd_info_queue ORDER BY id`)
}

// Streams returns the known stream ids.
func (d *DB) Streams() ([]int64, error) {
	return d.intColumn(`SELECT DISTINCT id FROM rocpd_info_stream ORDER BY id`)
}

func (d *DB) stringColumn(query string) ([]string, error) {
	rows, err := d.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (d *DB) intColumn(query string) ([]int64, error) {
	rows, err := d.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var values []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// hasColumn reports whether a table declares the named column.
func (d *DB) hasColumn(table, column string) bool {
	rows, err := d.conn.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var (
			cid       int64
			name      string
			typ       string
			notNull   int64
			dfltValue sql.NullString
			pk        int64
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dfltValue, &pk); err != nil {
			return false
		}
		if name == column {
			return true
		}
	}
	return false
}

// SupportWeight is the input-negotiation probe: it returns 1.0 when the
// candidate is a path to a readable SQLite database containing at least
// one rocpd table, and 0.0 for everything else. It never fails.
func SupportWeight(input any) float64 {
	path, ok := input.(string)
	if !ok || path == "" {
		return 0.0
	}
	if _, err := os.Stat(path); err != nil {
		return 0.0
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return 0.0
	}
	defer func() {
		_ = conn.Close()
	}()

	row := conn.QueryRow(
		`SELECT name FROM sqlite_master
		 WHERE type='table' AND name LIKE 'rocpd!_%' ESCAPE '!'
		 LIMIT 1`)
	var table string
	if err := row.Scan(&table); err != nil {
		return 0.0
	}
	return 1.0
}
