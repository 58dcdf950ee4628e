package store

import (
	"context"
	"fmt"
	"log"
	"os"

	bolt "go.etcd.io/bbolt"
	"pkg.jsn.cam/foodjournal/internal/schema"
	"pkg.jsn.cam/foodjournal/pkg/journal"
)

// Stats summarises the database contents.
type Stats struct {
	Path      string `json:"db_path"`
	SizeBytes int64  `json:"db_size_bytes"`
	Users     int    `json:"users"`
	Entries   int    `json:"entries"`
	Recall    int    `json:"recall_records"`
	Unknown   int    `json:"unknown_records"`
}

// Stats counts records per kind in one read transaction.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: s.path}

	err := s.view(ctx, func(b *bolt.Bucket) error {
		return b.ForEach(func(k, _ []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			switch schema.KindOf(k) {
			case schema.KindUser:
				stats.Users++
			case schema.KindEntry:
				stats.Entries++
			case schema.KindRecall:
				stats.Recall++
			default:
				stats.Unknown++
			}
			return nil
		})
	})
	if err != nil {
		return Stats{}, err
	}

	stats.SizeBytes = s.fileSize()
	return stats, nil
}

// CompactProgress is called after each copied record with the running count
// and the total number of records.
type CompactProgress func(done, total int)

// Compact rewrites the database at path into a fresh file and swaps it in,
// reclaiming free pages. The database must not be open elsewhere; bbolt's
// file lock makes a concurrent server fail fast instead of racing.
func Compact(ctx context.Context, path string, progress CompactProgress) (before, after int64, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", journal.ErrStorageUnavailable, err)
	}
	before = info.Size()

	src, err := bolt.Open(path, 0600, &bolt.Options{Timeout: defaultOpenTimeout, ReadOnly: true})
	if err != nil {
		return 0, 0, fmt.Errorf("%w: open bbolt db: %w", journal.ErrStorageUnavailable, err)
	}

	tempPath := path + ".compact"
	os.Remove(tempPath) // leftover from an interrupted run
	dst, err := bolt.Open(tempPath, 0600, &bolt.Options{Timeout: defaultOpenTimeout})
	if err != nil {
		src.Close()
		return 0, 0, fmt.Errorf("%w: open %s: %w", journal.ErrStorageUnavailable, tempPath, err)
	}

	err = src.View(func(srcTx *bolt.Tx) error {
		srcBucket := srcTx.Bucket(journalBucket)
		if srcBucket == nil {
			return fmt.Errorf("%w: bucket %s missing", journal.ErrStorageUnavailable, journalBucket)
		}
		total := srcBucket.Stats().KeyN

		return dst.Update(func(dstTx *bolt.Tx) error {
			dstBucket, err := dstTx.CreateBucket(journalBucket)
			if err != nil {
				return err
			}
			// Keys arrive sorted, so pack pages full.
			dstBucket.FillPercent = 1.0

			done := 0
			return srcBucket.ForEach(func(k, v []byte) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := dstBucket.Put(k, v); err != nil {
					return err
				}
				done++
				if progress != nil {
					progress(done, total)
				}
				return nil
			})
		})
	})

	src.Close()
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tempPath)
		return 0, 0, engineError(err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return 0, 0, fmt.Errorf("%w: replace %s: %w", journal.ErrStorageUnavailable, path, err)
	}

	if info, err := os.Stat(path); err == nil {
		after = info.Size()
	}
	log.Printf("[STORE] Compacted %s: %d -> %d bytes", path, before, after)
	return before, after, nil
}
