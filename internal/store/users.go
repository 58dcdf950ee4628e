package store

import (
	"context"
	"fmt"
	"iter"

	bolt "go.etcd.io/bbolt"
	"pkg.jsn.cam/foodjournal/internal/schema"
	"pkg.jsn.cam/foodjournal/pkg/journal"
)

// GetUser returns the profile stored for userID.
func (s *Store) GetUser(ctx context.Context, userID string) (journal.User, error) {
	key, err := schema.UserKey(userID)
	if err != nil {
		return journal.User{}, err
	}

	var user journal.User
	err = s.view(ctx, func(b *bolt.Bucket) error {
		v := b.Get([]byte(key))
		if v == nil {
			return fmt.Errorf("user %q: %w", userID, journal.ErrNotFound)
		}
		user, err = schema.DecodeUser(v)
		return err
	})
	if err != nil {
		return journal.User{}, err
	}
	return user, nil
}

// PutUser stores a profile, overwriting any existing one.
func (s *Store) PutUser(ctx context.Context, userID string, user journal.User) error {
	key, err := schema.UserKey(userID)
	if err != nil {
		return err
	}
	data, err := schema.EncodeUser(user)
	if err != nil {
		return err
	}

	return s.update(ctx, func(b *bolt.Bucket) error {
		return b.Put([]byte(key), data)
	})
}

// ListUsers yields every profile in user id order. The whole scan runs inside
// one read transaction that stays open until the loop ends. A record that
// fails to decode is yielded as an error and the scan carries on.
func (s *Store) ListUsers(ctx context.Context) iter.Seq2[journal.UserRecord, error] {
	prefix := []byte(schema.KindUser.Prefix())

	return func(yield func(journal.UserRecord, error) bool) {
		stopped := false
		err := s.view(ctx, func(b *bolt.Bucket) error {
			return scanPrefix(ctx, b, prefix, func(k, v []byte) bool {
				if !yield(decodeUserRecord(k, v)) {
					stopped = true
					return false
				}
				return true
			})
		})
		if err != nil && !stopped {
			yield(journal.UserRecord{}, err)
		}
	}
}

func decodeUserRecord(k, v []byte) (journal.UserRecord, error) {
	id, err := schema.UserIDFromKey(k)
	if err != nil {
		return journal.UserRecord{}, err
	}
	user, err := schema.DecodeUser(v)
	if err != nil {
		return journal.UserRecord{ID: id}, fmt.Errorf("user %q: %w", id, err)
	}
	return journal.UserRecord{ID: id, User: user}, nil
}
