package store

import (
	"context"
	"fmt"
	"iter"

	bolt "go.etcd.io/bbolt"
	"pkg.jsn.cam/foodjournal/internal/schema"
	"pkg.jsn.cam/foodjournal/pkg/journal"
)

// AppendJournalEntry files entry under the user's current date and refreshes
// the recall record for its text, in one write transaction. The entry's
// Timestamp is assigned here. It returns the new entry id ("<date>.<timestamp>").
func (s *Store) AppendJournalEntry(ctx context.Context, userID string, entry journal.JournalEntry) (string, error) {
	userKey, err := schema.UserKey(userID)
	if err != nil {
		return "", err
	}
	recallKey, err := schema.RecallKey(entry.Text)
	if err != nil {
		return "", err
	}

	var id string
	err = s.update(ctx, func(b *bolt.Bucket) error {
		v := b.Get([]byte(userKey))
		if v == nil {
			return fmt.Errorf("user %q: %w", userID, journal.ErrNotFound)
		}
		date, err := schema.CurrentDate(v)
		if err != nil {
			return fmt.Errorf("user %q: %w", userID, err)
		}

		ts := s.stamps.next(s.now())
		entryKey, err := schema.EntryKey(userID, date, ts)
		if err != nil {
			return err
		}
		// Stamps only increase within this process; a key left by an earlier
		// run with a faster clock still has to be stepped over.
		for b.Get([]byte(entryKey)) != nil {
			ts++
			if entryKey, err = schema.EntryKey(userID, date, ts); err != nil {
				return err
			}
		}
		s.stamps.observe(ts)

		entry.Timestamp = ts
		data, err := schema.EncodeEntry(entry)
		if err != nil {
			return err
		}

		if err := b.Put([]byte(entryKey), data); err != nil {
			return err
		}
		if err := b.Put([]byte(recallKey), data); err != nil {
			return err
		}
		if s.beforeCommit != nil {
			if err := s.beforeCommit(entryKey, recallKey); err != nil {
				return err
			}
		}

		id, err = schema.EntryIDFromKey([]byte(entryKey), userID)
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListJournalEntries yields the user's entries in key order, which is date
// order and then timestamp order. Like ListUsers, the scan holds one read
// transaction and reports undecodable records without stopping.
func (s *Store) ListJournalEntries(ctx context.Context, userID string) iter.Seq2[journal.EntryRecord, error] {
	return func(yield func(journal.EntryRecord, error) bool) {
		prefix, err := schema.EntryPrefix(userID)
		if err != nil {
			yield(journal.EntryRecord{}, err)
			return
		}

		stopped := false
		err = s.view(ctx, func(b *bolt.Bucket) error {
			return scanPrefix(ctx, b, []byte(prefix), func(k, v []byte) bool {
				if !yield(decodeEntryRecord(k, v, userID)) {
					stopped = true
					return false
				}
				return true
			})
		})
		if err != nil && !stopped {
			yield(journal.EntryRecord{}, err)
		}
	}
}

func decodeEntryRecord(k, v []byte, userID string) (journal.EntryRecord, error) {
	id, err := schema.EntryIDFromKey(k, userID)
	if err != nil {
		return journal.EntryRecord{}, err
	}
	entry, err := schema.DecodeEntry(v)
	if err != nil {
		return journal.EntryRecord{ID: id}, fmt.Errorf("entry %q: %w", id, err)
	}
	return journal.EntryRecord{ID: id, Entry: entry}, nil
}
