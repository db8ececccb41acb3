package cntool

import (
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestSqliteJournal(t *testing.T) {
	defer func() {
		_ = os.Remove("cntool-test.db")
	}()

	journal, err := NewSqliteJournal("cntool-test.db")
	assert.Nil(t, err)
	defer journal.Close()

	// Activity

	entries, err := journal.Entries(10)
	assert.Nil(t, err)
	assert.Len(t, entries, 0)

	base := time.Date(2020, 8, 1, 12, 0, 0, 0, time.UTC)

	err = journal.Append(JournalEntry{Time: base, Operation: "transfer", Stage: "submit", Outcome: "ok"})
	assert.Nil(t, err)
	err = journal.Append(JournalEntry{Time: base.Add(time.Minute), Operation: "delegation", Stage: "sign", Outcome: "sign stage failed"})
	assert.Nil(t, err)

	entries, err = journal.Entries(10)
	assert.Nil(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "delegation", entries[0].Operation, "newest first")
	assert.Equal(t, "transfer", entries[1].Operation)
	assert.Equal(t, base, entries[1].Time.UTC())

	entries, err = journal.Entries(1)
	assert.Nil(t, err)
	assert.Len(t, entries, 1)

	// Tip

	tip, err := journal.LastTip()
	assert.Nil(t, err)
	assert.Equal(t, Tip{}, tip, "no tip recorded yet")

	err = journal.SetLastTip(Tip{Block: 7, Slot: 99})
	assert.Nil(t, err)
	err = journal.SetLastTip(Tip{Block: 8, Slot: 120})
	assert.Nil(t, err)

	tip, err = journal.LastTip()
	assert.Nil(t, err)
	assert.Equal(t, Tip{Block: 8, Slot: 120}, tip)
}

func TestInMemoryJournal(t *testing.T) {
	journal := NewInMemoryJournal()

	err := journal.Append(JournalEntry{Operation: "transfer", Stage: "build", Outcome: "ok"})
	assert.Nil(t, err)
	err = journal.Append(JournalEntry{Operation: "transfer", Stage: "submit", Outcome: "ok"})
	assert.Nil(t, err)

	entries, err := journal.Entries(1)
	assert.Nil(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "submit", entries[0].Stage)

	err = journal.SetLastTip(Tip{Block: 3, Slot: 30})
	assert.Nil(t, err)

	tip, err := journal.LastTip()
	assert.Nil(t, err)
	assert.Equal(t, Tip{Block: 3, Slot: 30}, tip)
}
