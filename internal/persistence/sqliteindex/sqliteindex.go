// Package sqliteindex mirrors loaded-log metadata into a small SQLite
// database purely for debugging visibility ("which logs are loaded, when
// were they parsed") — it is never the source of truth for a session, which
// lives in the in-memory aggregator. Grounded on the teacher's internal/db
// package: same modernc.org/sqlite + golang-migrate + tailsql/tsweb
// combination, same PRAGMA set, same AttachAdminRoutes shape.
package sqliteindex

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net/http"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/banshee-data/telemetry-plotter/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func migrationsSubFS() (fs.FS, error) {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("sqliteindex: failed to open embedded migrations: %w", err)
	}
	return sub, nil
}

// Index wraps a *sql.DB holding the loaded_logs mirror table.
type Index struct {
	*sql.DB
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("sqliteindex: failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Open opens (creating if necessary) the SQLite index at path and applies
// any pending migrations.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqliteindex: failed to open %q: %w", path, err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	idx := &Index{db}
	if err := idx.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// LoadedLogEntry is one row of the loaded_logs mirror table.
type LoadedLogEntry struct {
	LogID            uint16
	DescriptiveName  string
	SourcePath       string
	FirstTimestampNs float64
	PointCount       int
	LoadedAtUnixNs   int64
}

// RecordLoadedLog inserts or replaces the row for entry.LogID.
func (idx *Index) RecordLoadedLog(entry LoadedLogEntry) error {
	_, err := idx.Exec(
		`INSERT INTO loaded_logs (log_id, descriptive_name, source_path, first_timestamp_ns, point_count, loaded_at_unix_ns)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(log_id) DO UPDATE SET
			descriptive_name = excluded.descriptive_name,
			source_path = excluded.source_path,
			first_timestamp_ns = excluded.first_timestamp_ns,
			point_count = excluded.point_count,
			loaded_at_unix_ns = excluded.loaded_at_unix_ns`,
		entry.LogID, entry.DescriptiveName, entry.SourcePath, entry.FirstTimestampNs, entry.PointCount, entry.LoadedAtUnixNs,
	)
	if err != nil {
		return fmt.Errorf("sqliteindex: failed to record log %d: %w", entry.LogID, err)
	}
	return nil
}

// RemoveLoadedLog deletes the row for logID, if any.
func (idx *Index) RemoveLoadedLog(logID uint16) error {
	_, err := idx.Exec(`DELETE FROM loaded_logs WHERE log_id = ?`, logID)
	if err != nil {
		return fmt.Errorf("sqliteindex: failed to remove log %d: %w", logID, err)
	}
	return nil
}

// ListLoadedLogs returns every mirrored log, most recently loaded first.
func (idx *Index) ListLoadedLogs() ([]LoadedLogEntry, error) {
	rows, err := idx.Query(
		`SELECT log_id, descriptive_name, source_path, first_timestamp_ns, point_count, loaded_at_unix_ns
		 FROM loaded_logs ORDER BY loaded_at_unix_ns DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqliteindex: failed to list logs: %w", err)
	}
	defer rows.Close()

	var entries []LoadedLogEntry
	for rows.Next() {
		var e LoadedLogEntry
		if err := rows.Scan(&e.LogID, &e.DescriptiveName, &e.SourcePath, &e.FirstTimestampNs, &e.PointCount, &e.LoadedAtUnixNs); err != nil {
			return nil, fmt.Errorf("sqliteindex: failed to scan log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// AttachAdminRoutes mounts a read-only SQL debugging console and a basic
// stats endpoint under the given mux's /debug/ prefix, exactly as the
// teacher's internal/db.AttachAdminRoutes does.
func (idx *Index) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{RoutePrefix: "/debug/tailsql/"})
	if err != nil {
		log.Fatalf("sqliteindex: failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://loaded-logs", idx.DB, &tailsql.DBOptions{Label: "Loaded logs index"})
	debug.Handle("tailsql/", "SQL live debugging of the loaded-logs index", tsql.NewMux())

	debug.Handle("loaded-logs", "Logs currently mirrored into the index (JSON)", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entries, err := idx.ListLoadedLogs()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			monitoring.Logf("sqliteindex: admin route failed to list logs: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			monitoring.Logf("sqliteindex: admin route failed to encode response: %v", err)
		}
	}))
}
