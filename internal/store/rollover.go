package store

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"pkg.jsn.cam/foodjournal/internal/schema"
	"pkg.jsn.cam/foodjournal/pkg/journal"
)

// rolloverSpan is added to the current date's midnight. Anything between one
// and two days lands on the following calendar date; 27h keeps a day that was
// opened after midnight from rolling onto itself.
const rolloverSpan = 27 * time.Hour

// lastYear is the last year a four-digit date can name.
const lastYear = 9999

// nextDay returns the calendar date after date.
func nextDay(date string) (string, error) {
	d, err := journal.ParseDate(date)
	if err != nil {
		return "", err
	}
	next := d.Add(rolloverSpan)
	if next.Year() > lastYear {
		return "", fmt.Errorf("%w: calendar range exhausted, no day after %s", journal.ErrInvalidInput, date)
	}
	return journal.FormatDate(next), nil
}

// AdvanceDay closes the user's current day and opens the next one. Only the
// day cursor of the stored record is rewritten.
func (s *Store) AdvanceDay(ctx context.Context, userID string) (string, error) {
	key, err := schema.UserKey(userID)
	if err != nil {
		return "", err
	}

	var next string
	err = s.update(ctx, func(b *bolt.Bucket) error {
		v := b.Get([]byte(key))
		if v == nil {
			return fmt.Errorf("user %q: %w", userID, journal.ErrNotFound)
		}
		current, err := schema.CurrentDate(v)
		if err != nil {
			return fmt.Errorf("user %q: %w", userID, err)
		}
		if next, err = nextDay(current); err != nil {
			return err
		}
		patched, err := schema.WithCurrentDate(v, next)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), patched)
	})
	if err != nil {
		return "", err
	}
	return next, nil
}
