package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
	"pkg.jsn.cam/foodjournal/pkg/journal"
)

// fixedMillis is 2024-03-01T00:00:00Z.
const fixedMillis = 1709251200000

// newTestStore opens a store in a temp dir with a frozen clock.
func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	opts = append([]Option{
		WithNoSync(true),
		WithNow(func() time.Time { return time.UnixMilli(fixedMillis) }),
	}, opts...)

	s, err := Open(filepath.Join(t.TempDir(), "journal.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testUser(name, date string) journal.User {
	return journal.User{
		Image:              "https://example.com/" + name + ".png",
		DisplayName:        name,
		TargetCalories:     2000,
		TargetFat:          250,
		TargetProtein:      166,
		TargetCarbohydrate: 44,
		CurrentDate:        date,
	}
}

func testEntry(text string) journal.JournalEntry {
	return journal.JournalEntry{
		Text:          text,
		Quantity:      1,
		QuantityUnits: "serving",
		Calories:      250,
		Carbohydrate:  30,
		Fat:           8,
		Protein:       12,
	}
}

func putRaw(t *testing.T, s *Store, key, value string) {
	t.Helper()
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(journalBucket).Put([]byte(key), []byte(value))
	})
	require.NoError(t, err)
}

// getRaw returns the stored value for key, or "" when absent.
func getRaw(t *testing.T, s *Store, key string) string {
	t.Helper()
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		value = string(tx.Bucket(journalBucket).Get([]byte(key)))
		return nil
	})
	require.NoError(t, err)
	return value
}
