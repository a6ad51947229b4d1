package store

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "tally.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ", true)
	assert.Error(t, err)
}

func TestIncrementTally(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.IncrementTally("2026-10-17", "fraud"))
	require.NoError(t, db.IncrementTally("2026-10-18", "fraud"))
	require.NoError(t, db.IncrementTally("2026-10-18", "fraud"))
	require.NoError(t, db.IncrementTally("2026-10-18", "legit"))

	rows, err := db.ListTallies("")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2026-10-18", rows[0].Day)
	assert.Equal(t, "fraud", rows[0].DecisionClass)
	assert.EqualValues(t, 2, rows[0].Total)
	assert.Equal(t, "legit", rows[1].DecisionClass)
	assert.Equal(t, "2026-10-17", rows[2].Day)

	recent, err := db.ListTallies("2026-10-18")
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	totals, err := db.Totals()
	require.NoError(t, err)
	assert.Equal(t, []ClassTotal{{DecisionClass: "fraud", Total: 3}, {DecisionClass: "legit", Total: 1}}, totals)
}

func TestIncrementTallyRejectsBlank(t *testing.T) {
	db := openTestDB(t)
	assert.Error(t, db.IncrementTally("", "fraud"))
	assert.Error(t, db.IncrementTally("2026-10-18", " "))
}

func TestIncrementTallyConcurrent(t *testing.T) {
	db := openTestDB(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, db.IncrementTally("2026-10-18", "review"))
		}()
	}
	wg.Wait()

	totals, err := db.Totals()
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.EqualValues(t, 20, totals[0].Total)
}

func TestDayKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("plus14", 14*3600)
	ts := time.Date(2026, 10, 19, 5, 0, 0, 0, loc)
	assert.Equal(t, "2026-10-18", DayKey(ts))
}

func TestNilDatabase(t *testing.T) {
	var db *Database
	assert.NoError(t, db.Close())
	assert.Error(t, db.IncrementTally("2026-10-18", "fraud"))
	_, err := db.Totals()
	assert.Error(t, err)
}
