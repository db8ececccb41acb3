package cntool

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// JournalEntry is one timestamped line of the operator activity log.
type JournalEntry struct {
	Time      time.Time
	Operation string
	Stage     string
	Outcome   string
}

// Journal is the append-only activity log. It also remembers the last tip
// observed by a block wait, so a fresh invocation can report progress
// relative to the previous one.
type Journal interface {
	Append(entry JournalEntry) (err error)
	Entries(limit int) (entries []JournalEntry, err error)

	SetLastTip(tip Tip) (err error)
	LastTip() (tip Tip, err error)
}

type SqliteJournal struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Journal = &SqliteJournal{}

func NewSqliteJournal(path string) (journal *SqliteJournal, err error) {
	log.Info().Msgf("opening journal at: '%s'", path)

	sqldb, err := sql.Open("sqlite3", path)
	if err != nil {
		err = errors.Wrap(err, "failed to open journal database")
		return
	}

	if err = sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		err = errors.Wrap(err, "failed to ping journal database")
		return
	}

	journal = &SqliteJournal{db: sqldb}
	if err = journal.initTables(); err != nil {
		_ = sqldb.Close()
		err = errors.Wrap(err, "failed to init journal tables")
		return
	}

	return
}

func (s *SqliteJournal) initTables() (err error) {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS activity (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at DATETIME NOT NULL,
			operation TEXT NOT NULL,
			stage TEXT NOT NULL,
			outcome TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tip (
			id INTEGER PRIMARY KEY CHECK (id = 0),
			block INTEGER NOT NULL,
			slot INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_at ON activity(at)`,
	}

	for i, query := range queries {
		_, err = s.db.Exec(query)
		if err != nil {
			err = errors.Wrapf(err, "failed to execute query: %d", i)
			return
		}
	}

	return
}

func (s *SqliteJournal) Append(entry JournalEntry) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT INTO activity (at, operation, stage, outcome) VALUES (?, ?, ?, ?)`,
		entry.Time.UTC(), entry.Operation, entry.Stage, entry.Outcome)
	return errors.WithStack(err)
}

func (s *SqliteJournal) Entries(limit int) (entries []JournalEntry, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT at, operation, stage, outcome FROM activity ORDER BY id DESC LIMIT ?`,
		limit)
	if err != nil {
		err = errors.WithStack(err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var entry JournalEntry
		if err = rows.Scan(&entry.Time, &entry.Operation, &entry.Stage, &entry.Outcome); err != nil {
			err = errors.WithStack(err)
			return
		}
		entries = append(entries, entry)
	}

	err = errors.WithStack(rows.Err())
	return
}

func (s *SqliteJournal) SetLastTip(tip Tip) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT INTO tip (id, block, slot) VALUES (0, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET block = excluded.block, slot = excluded.slot`,
		tip.Block, tip.Slot)
	return errors.WithStack(err)
}

func (s *SqliteJournal) LastTip() (tip Tip, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT block, slot FROM tip WHERE id = 0`)
	err = row.Scan(&tip.Block, &tip.Slot)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return
	}
	return tip, errors.WithStack(err)
}

func (s *SqliteJournal) Close() (err error) {
	return errors.WithStack(s.db.Close())
}

type InMemoryJournal struct {
	entries []JournalEntry
	tip     *Tip
	mu      sync.RWMutex
}

var _ Journal = &InMemoryJournal{}

func NewInMemoryJournal() *InMemoryJournal {
	return &InMemoryJournal{}
}

func (j *InMemoryJournal) Append(entry JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, entry)
	return nil
}

func (j *InMemoryJournal) Entries(limit int) (entries []JournalEntry, err error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	for i := len(j.entries) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, j.entries[i])
	}
	return
}

func (j *InMemoryJournal) SetLastTip(tip Tip) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.tip = &tip
	return nil
}

func (j *InMemoryJournal) LastTip() (tip Tip, err error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.tip != nil {
		tip = *j.tip
	}
	return
}
