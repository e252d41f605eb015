package results

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"dynaf/internal/asp"
	"dynaf/internal/reconcile"
)

// History persists result entries to SQLite so long dynamic runs can be
// inspected after the process exits. It complements Store rather than
// replacing it; the session records to both.
type History struct {
	db *sql.DB
}

const historySchema = `
CREATE TABLE IF NOT EXISTS results (
	semantics   TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	status      INTEGER NOT NULL,
	collapsed   INTEGER NOT NULL,
	extensions  TEXT NOT NULL,
	recorded_at TEXT NOT NULL,
	PRIMARY KEY (semantics, seq)
);
`

// OpenHistory opens (or creates) the history database at path.
func OpenHistory(path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring history database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring history database: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return &History{db: db}, nil
}

// Record persists an entry. Duplicate (semantics, seq) pairs are
// rejected, matching the in-memory store.
func (h *History) Record(e Entry) error {
	exts, err := json.Marshal(e.Extensions)
	if err != nil {
		return fmt.Errorf("encoding extensions: %w", err)
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}
	_, err = h.db.Exec(
		`INSERT INTO results (semantics, seq, status, collapsed, extensions, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Semantics.String(), e.Seq, int(e.Status), boolInt(e.Collapsed),
		string(exts), e.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		var dup Entry
		row := h.db.QueryRow(
			`SELECT seq FROM results WHERE semantics = ? AND seq = ?`,
			e.Semantics.String(), e.Seq,
		)
		if scanErr := row.Scan(&dup.Seq); scanErr == nil {
			return &DuplicateError{Semantics: e.Semantics, Seq: e.Seq}
		}
		return fmt.Errorf("recording history entry: %w", err)
	}
	return nil
}

// Get loads the entry for the given semantics and sequence number.
func (h *History) Get(sem asp.Semantics, seq uint64) (Entry, error) {
	row := h.db.QueryRow(
		`SELECT status, collapsed, extensions, recorded_at
		 FROM results WHERE semantics = ? AND seq = ?`,
		sem.String(), seq,
	)
	return scanEntry(row, sem, seq)
}

// Latest loads the entry with the highest sequence number for the
// semantics.
func (h *History) Latest(sem asp.Semantics) (Entry, error) {
	row := h.db.QueryRow(
		`SELECT seq, status, collapsed, extensions, recorded_at
		 FROM results WHERE semantics = ? ORDER BY seq DESC LIMIT 1`,
		sem.String(),
	)
	var (
		e         Entry
		collapsed int
		exts      string
		recorded  string
		status    int
	)
	err := row.Scan(&e.Seq, &status, &collapsed, &exts, &recorded)
	if err == sql.ErrNoRows {
		return Entry{}, fmt.Errorf("%w for %s", ErrNotFound, sem)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("loading history entry: %w", err)
	}
	return fillEntry(e, sem, status, collapsed, exts, recorded)
}

// Prune deletes all entries for the semantics below the given sequence
// number, keeping databases from long runs bounded.
func (h *History) Prune(sem asp.Semantics, belowSeq uint64) (int64, error) {
	res, err := h.db.Exec(
		`DELETE FROM results WHERE semantics = ? AND seq < ?`,
		sem.String(), belowSeq,
	)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	return res.RowsAffected()
}

func (h *History) Close() error {
	return h.db.Close()
}

func scanEntry(row *sql.Row, sem asp.Semantics, seq uint64) (Entry, error) {
	var (
		collapsed int
		exts      string
		recorded  string
		status    int
	)
	err := row.Scan(&status, &collapsed, &exts, &recorded)
	if err == sql.ErrNoRows {
		return Entry{}, fmt.Errorf("%w for %s at seq %d", ErrNotFound, sem, seq)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("loading history entry: %w", err)
	}
	return fillEntry(Entry{Seq: seq}, sem, status, collapsed, exts, recorded)
}

func fillEntry(e Entry, sem asp.Semantics, status, collapsed int, exts, recorded string) (Entry, error) {
	e.Semantics = sem
	e.Status = Status(status)
	e.Collapsed = collapsed != 0
	if err := json.Unmarshal([]byte(exts), &e.Extensions); err != nil {
		return Entry{}, fmt.Errorf("decoding extensions: %w", err)
	}
	if e.Extensions == nil {
		e.Extensions = []reconcile.Extension{}
	}
	t, err := time.Parse(time.RFC3339Nano, recorded)
	if err != nil {
		return Entry{}, fmt.Errorf("decoding timestamp: %w", err)
	}
	e.RecordedAt = t
	return e, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
