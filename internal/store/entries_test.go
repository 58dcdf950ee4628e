package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pkg.jsn.cam/foodjournal/internal/schema"
	"pkg.jsn.cam/foodjournal/pkg/journal"
)

func collectEntries(t *testing.T, s *Store, userID string) []journal.EntryRecord {
	t.Helper()
	var out []journal.EntryRecord
	for rec, err := range s.ListJournalEntries(context.Background(), userID) {
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func TestAppendJournalEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutUser(ctx, "alice", testUser("alice", "2024-03-01")))

	entry := testEntry("Greek yogurt with honey")
	entry.Timestamp = 12345 // assigned by the store

	id, err := s.AppendJournalEntry(ctx, "alice", entry)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01.1709251200000", id)

	records := collectEntries(t, s, "alice")
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)

	want := entry
	want.Timestamp = fixedMillis
	assert.Equal(t, want, records[0].Entry)

	recall, err := schema.DecodeEntry([]byte(getRaw(t, s, "food.Greek yogurt wit")))
	require.NoError(t, err)
	assert.Equal(t, want, recall)
}

func TestAppendJournalEntry_UnknownUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AppendJournalEntry(ctx, "ghost", testEntry("Greek yogurt with honey"))
	assert.ErrorIs(t, err, journal.ErrNotFound)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
	assert.Zero(t, stats.Recall)
}

func TestAppendJournalEntry_ShortText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutUser(ctx, "alice", testUser("alice", "2024-03-01")))

	_, err := s.AppendJournalEntry(ctx, "alice", testEntry("egg"))
	assert.ErrorIs(t, err, journal.ErrInvalidInput)
	assert.Empty(t, collectEntries(t, s, "alice"))
}

func TestAppendJournalEntry_InvalidUTF8(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutUser(ctx, "alice", testUser("alice", "2024-03-01")))

	e := testEntry("Greek yogurt with honey")
	e.QuantityUnits = "c\xffup"
	_, err := s.AppendJournalEntry(ctx, "alice", e)
	assert.ErrorIs(t, err, journal.ErrInvalidInput)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
	assert.Zero(t, stats.Recall)
}

func TestAppendJournalEntry_CorruptCursor(t *testing.T) {
	s := newTestStore(t)
	putRaw(t, s, "user.alice", `{"display_name":"alice","current_date":"someday"}`)

	_, err := s.AppendJournalEntry(context.Background(), "alice", testEntry("Greek yogurt with honey"))
	assert.ErrorIs(t, err, journal.ErrCorruptRecord)
}

// A failure after both records are staged must leave neither behind.
func TestAppendJournalEntry_Atomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutUser(ctx, "alice", testUser("alice", "2024-03-01")))

	injected := errors.New("injected failure")
	var staged []string
	s.beforeCommit = func(keys ...string) error {
		staged = keys
		return injected
	}

	_, err := s.AppendJournalEntry(ctx, "alice", testEntry("Greek yogurt with honey"))
	assert.ErrorIs(t, err, injected)
	assert.ErrorIs(t, err, journal.ErrStorageUnavailable)

	require.Len(t, staged, 2)
	for _, key := range staged {
		assert.Empty(t, getRaw(t, s, key), "key %s", key)
	}
	assert.Empty(t, collectEntries(t, s, "alice"))
}

func TestAppendJournalEntry_CancelledBeforeCommit(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.PutUser(context.Background(), "alice", testUser("alice", "2024-03-01")))

	ctx, cancel := context.WithCancel(context.Background())
	s.beforeCommit = func(keys ...string) error {
		cancel()
		return nil
	}

	_, err := s.AppendJournalEntry(ctx, "alice", testEntry("Greek yogurt with honey"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, collectEntries(t, s, "alice"))
	assert.Empty(t, getRaw(t, s, "food.Greek yogurt wit"))
}

func TestAppendJournalEntry_SameMillisecond(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutUser(ctx, "alice", testUser("alice", "2024-03-01")))

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := s.AppendJournalEntry(ctx, "alice", testEntry("Black coffee, no sugar"))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	records := collectEntries(t, s, "alice")
	require.Len(t, records, 5)
	for i, rec := range records {
		assert.Equal(t, ids[i], rec.ID)
		assert.Equal(t, int64(fixedMillis+i), rec.Entry.Timestamp)
	}
}

func TestAppendJournalEntry_StepsOverExistingKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutUser(ctx, "alice", testUser("alice", "2024-03-01")))

	// Left by an earlier process whose clock ran ahead.
	putRaw(t, s, "entry.alice.2024-03-01.1709251200000", `{"text":"older","timestamp":1709251200000}`)

	id, err := s.AppendJournalEntry(ctx, "alice", testEntry("Greek yogurt with honey"))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01.1709251200001", id)

	records := collectEntries(t, s, "alice")
	require.Len(t, records, 2)
	assert.Equal(t, "older", records[0].Entry.Text)
}

func TestAppendJournalEntry_Concurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutUser(ctx, "alice", testUser("alice", "2024-03-01")))

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AppendJournalEntry(ctx, "alice", testEntry("Banana, medium sized"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, collectEntries(t, s, "alice"), n)
}

func TestListJournalEntries_KeyOrder(t *testing.T) {
	clock := time.UnixMilli(fixedMillis)
	s := newTestStore(t, WithNow(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	ctx := context.Background()
	require.NoError(t, s.PutUser(ctx, "alice", testUser("alice", "2024-03-09")))
	require.NoError(t, s.PutUser(ctx, "alicia", testUser("alicia", "2024-03-09")))

	post := func(user, text string) string {
		id, err := s.AppendJournalEntry(ctx, user, testEntry(text))
		require.NoError(t, err)
		return id
	}

	var want []string
	want = append(want, post("alice", "Scrambled eggs on toast"))
	post("alicia", "Someone else's breakfast")
	want = append(want, post("alice", "Orange juice, large glass"))

	_, err := s.AdvanceDay(ctx, "alice") // 2024-03-10 sorts after 2024-03-09
	require.NoError(t, err)
	want = append(want, post("alice", "Leftover pizza, two slices"))

	records := collectEntries(t, s, "alice")
	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, want[i], rec.ID)
	}
	assert.Equal(t, "Leftover pizza, two slices", records[2].Entry.Text)
	assert.Regexp(t, `^2024-03-10\.`, records[2].ID)
}

func TestListJournalEntries_InvalidUser(t *testing.T) {
	s := newTestStore(t)

	var errs []error
	for _, err := range s.ListJournalEntries(context.Background(), "") {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], journal.ErrInvalidInput)
}

func TestListJournalEntries_SkipsCorrupt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutUser(ctx, "alice", testUser("alice", "2024-03-01")))

	_, err := s.AppendJournalEntry(ctx, "alice", testEntry("Greek yogurt with honey"))
	require.NoError(t, err)
	putRaw(t, s, "entry.alice.2024-03-01.9999999999999", "garbage")

	var good, bad int
	for _, err := range s.ListJournalEntries(ctx, "alice") {
		if err != nil {
			assert.ErrorIs(t, err, journal.ErrCorruptRecord)
			bad++
			continue
		}
		good++
	}
	assert.Equal(t, 1, good)
	assert.Equal(t, 1, bad)
}

func TestRecallIndex_LastWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutUser(ctx, "alice", testUser("alice", "2024-03-01")))

	first := testEntry("Chicken burrito bowl, no rice")
	first.Calories = 550
	second := testEntry("Chicken burrito bowl with extra guac")
	second.Calories = 820

	_, err := s.AppendJournalEntry(ctx, "alice", first)
	require.NoError(t, err)
	_, err = s.AppendJournalEntry(ctx, "alice", second)
	require.NoError(t, err)

	recall, err := schema.DecodeEntry([]byte(getRaw(t, s, "food.Chicken burrito ")))
	require.NoError(t, err)
	assert.Equal(t, second.Text, recall.Text)
	assert.Equal(t, uint64(820), recall.Calories)

	records := collectEntries(t, s, "alice")
	require.Len(t, records, 2)
	assert.Equal(t, first.Text, records[0].Entry.Text)
	assert.Equal(t, second.Text, records[1].Entry.Text)
}
