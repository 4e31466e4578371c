package rocpd

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// baseTime anchors all fixture timestamps, in nanoseconds.
const baseTime = int64(1_000_000_000)

// testDB describes which parts of the fixture database to create.
type testDB struct {
	// skip creating individual family tables
	noRegions     bool
	noKernels     bool
	noMemCopies   bool
	noAllocations bool
	// leave all family tables empty
	empty bool
	// omit the name_id column on the allocation table
	legacyAllocations bool
	// omit the versioned metadata table
	noMetadata bool
}

// createTestDatabase builds a small rocpd database under t.TempDir and
// returns its path together with the dataset id written into the
// metadata table name.
func createTestDatabase(t *testing.T, cfg testDB) (string, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "results.db")
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("opening fixture database: %v", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			t.Fatalf("closing fixture database: %v", err)
		}
	}()

	datasetID := strings.ReplaceAll(uuid.NewString(), "-", "")

	exec := func(query string, args ...any) {
		t.Helper()
		if _, err := conn.Exec(query, args...); err != nil {
			t.Fatalf("fixture statement failed: %v\n%s", err, query)
		}
	}

	if !cfg.noMetadata {
		exec(`CREATE TABLE rocpd_metadata_` + datasetID + ` (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tag TEXT NOT NULL,
			value TEXT NOT NULL)`)
		exec(`INSERT INTO rocpd_metadata_`+datasetID+` (tag, value) VALUES (?, ?)`,
			"schema_version", "3")
		exec(`INSERT INTO rocpd_metadata_`+datasetID+` (tag, value) VALUES (?, ?)`,
			"uuid", datasetID)
	}

	exec(`CREATE TABLE rocpd_string (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		string TEXT NOT NULL UNIQUE)`)

	interned := []string{
		"main_region",         // 1
		"gpu_computation",     // 2
		"HostToDevice",        // 3
		"DeviceToHost",        // 4
		"hipMalloc",           // 5
		"HIP_RUNTIME_API_EXT", // 6
	}
	for _, s := range interned {
		exec(`INSERT INTO rocpd_string (string) VALUES (?)`, s)
	}

	exec(`CREATE TABLE rocpd_event (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category_id INTEGER,
		correlation_id INTEGER,
		call_stack TEXT,
		line_info TEXT)`)
	exec(`INSERT INTO rocpd_event (category_id, correlation_id, call_stack, line_info)
		VALUES (6, 77, '{"frames":[]}', '{"file":"main.cpp"}')`)

	exec(`CREATE TABLE rocpd_info_process (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nid INTEGER NOT NULL,
		pid INTEGER NOT NULL,
		ppid INTEGER,
		command TEXT)`)
	exec(`INSERT INTO rocpd_info_process (nid, pid, ppid, command) VALUES (1, 1234, 1, 'test_app')`)

	exec(`CREATE TABLE rocpd_info_thread (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nid INTEGER NOT NULL,
		pid INTEGER NOT NULL,
		tid INTEGER NOT NULL,
		name TEXT)`)
	exec(`INSERT INTO rocpd_info_thread (nid, pid, tid, name) VALUES (1, 1, 1234, 'main_thread')`)

	exec(`CREATE TABLE rocpd_info_queue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nid INTEGER NOT NULL,
		pid INTEGER NOT NULL,
		name TEXT)`)
	exec(`INSERT INTO rocpd_info_queue (nid, pid, name) VALUES (1, 1, 'default_queue')`)

	exec(`CREATE TABLE rocpd_info_stream (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nid INTEGER NOT NULL,
		pid INTEGER NOT NULL,
		name TEXT)`)
	exec(`INSERT INTO rocpd_info_stream (nid, pid, name) VALUES (1, 1, 'default_stream')`)

	exec(`CREATE TABLE rocpd_info_kernel_symbol (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kernel_name TEXT,
		display_name TEXT)`)
	exec(`INSERT INTO rocpd_info_kernel_symbol (kernel_name, display_name) VALUES ('vector_add', 'vector_add_kernel')`)

	if !cfg.noRegions {
		exec(`CREATE TABLE rocpd_region (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nid INTEGER NOT NULL,
			pid INTEGER NOT NULL,
			tid INTEGER NOT NULL,
			start BIGINT NOT NULL,
			"end" BIGINT NOT NULL,
			name_id INTEGER NOT NULL,
			event_id INTEGER,
			extdata TEXT)`)
		if !cfg.empty {
			exec(`INSERT INTO rocpd_region (nid, pid, tid, start, "end", name_id, event_id, extdata)
				VALUES (1, 1, 1, ?, ?, 1, 1, NULL)`,
				baseTime, baseTime+5000)
			exec(`INSERT INTO rocpd_region (nid, pid, tid, start, "end", name_id, event_id, extdata)
				VALUES (1, 1, 1, ?, ?, 2, NULL, '{"depth":1}')`,
				baseTime+1000, baseTime+4000)
		}
	}

	if !cfg.noKernels {
		exec(`CREATE TABLE rocpd_kernel_dispatch (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nid INTEGER NOT NULL,
			pid INTEGER NOT NULL,
			tid INTEGER,
			agent_id INTEGER NOT NULL,
			kernel_id INTEGER NOT NULL,
			dispatch_id INTEGER NOT NULL,
			queue_id INTEGER NOT NULL,
			stream_id INTEGER NOT NULL,
			start BIGINT NOT NULL,
			"end" BIGINT NOT NULL,
			workgroup_size_x INTEGER NOT NULL,
			workgroup_size_y INTEGER NOT NULL,
			workgroup_size_z INTEGER NOT NULL,
			grid_size_x INTEGER NOT NULL,
			grid_size_y INTEGER NOT NULL,
			grid_size_z INTEGER NOT NULL)`)
		if !cfg.empty {
			exec(`INSERT INTO rocpd_kernel_dispatch
				(nid, pid, tid, agent_id, kernel_id, dispatch_id, queue_id, stream_id,
				 start, "end", workgroup_size_x, workgroup_size_y, workgroup_size_z,
				 grid_size_x, grid_size_y, grid_size_z)
				VALUES (1, 1, NULL, 2, 1, 1, 1, 1, ?, ?, 256, 1, 1, 1024, 1, 1)`,
				baseTime+1500, baseTime+3500)
		}
	}

	if !cfg.noMemCopies {
		exec(`CREATE TABLE rocpd_memory_copy (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nid INTEGER NOT NULL,
			pid INTEGER NOT NULL,
			tid INTEGER,
			start BIGINT NOT NULL,
			"end" BIGINT NOT NULL,
			name_id INTEGER NOT NULL,
			dst_agent_id INTEGER,
			src_agent_id INTEGER,
			size INTEGER NOT NULL,
			queue_id INTEGER,
			stream_id INTEGER)`)
		if !cfg.empty {
			exec(`INSERT INTO rocpd_memory_copy
				(nid, pid, tid, start, "end", name_id, dst_agent_id, src_agent_id, size, queue_id, stream_id)
				VALUES (1, 1, NULL, ?, ?, 3, 2, 1, 1048576, 1, 1)`,
				baseTime+500, baseTime+800)
		}
	}

	if !cfg.noAllocations {
		nameCol := `name_id INTEGER,`
		if cfg.legacyAllocations {
			nameCol = ``
		}
		exec(`CREATE TABLE rocpd_memory_allocate (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nid INTEGER NOT NULL,
			pid INTEGER NOT NULL,
			tid INTEGER,
			start BIGINT NOT NULL,
			"end" BIGINT NOT NULL,
			` + nameCol + `
			agent_id INTEGER,
			address INTEGER,
			size INTEGER NOT NULL)`)
		if !cfg.empty {
			if cfg.legacyAllocations {
				exec(`INSERT INTO rocpd_memory_allocate
					(nid, pid, tid, start, "end", agent_id, address, size)
					VALUES (1, 1, NULL, ?, ?, 2, 4096, 2048)`,
					baseTime+200, baseTime+200)
			} else {
				exec(`INSERT INTO rocpd_memory_allocate
					(nid, pid, tid, start, "end", name_id, agent_id, address, size)
					VALUES (1, 1, NULL, ?, ?, 5, 2, 4096, 2048)`,
					baseTime+200, baseTime+200)
			}
		}
	}

	return path, datasetID
}

// writeSQLiteWithTable creates a valid SQLite database containing a
// single arbitrarily named table.
func writeSQLiteWithTable(t *testing.T, path, table string) {
	t.Helper()

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			t.Fatalf("closing database: %v", err)
		}
	}()

	if _, err := conn.Exec(`CREATE TABLE ` + table + ` (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatalf("creating table: %v", err)
	}
}
