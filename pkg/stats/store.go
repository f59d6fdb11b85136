// Package stats records artifact download statistics.
//
// Counters are persisted in badger. Writes are funneled through the task
// executor so HTTP handlers never block on statistics bookkeeping.
package stats

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v4"
)

const keyPrefix = "stats/"

// Record is one resolved path with its hit count.
type Record struct {
	Path  string `json:"path"`
	Count uint64 `json:"count"`
}

// Store persists per-path resolution counters.
type Store struct {
	db *badgerdb.DB
}

// NewStore wraps an open badger database. The store shares the database with
// other state stores; all its keys live under the "stats/" prefix.
func NewStore(db *badgerdb.DB) *Store {
	return &Store{db: db}
}

// Increment bumps the counter for path by one.
func (s *Store) Increment(path string) error {
	key := makeKey(path)

	return s.db.Update(func(txn *badgerdb.Txn) error {
		var count uint64

		item, err := txn.Get(key)
		switch {
		case err == badgerdb.ErrKeyNotFound:
			// first hit
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				count = decodeCount(val)
				return nil
			}); err != nil {
				return err
			}
		}

		if err := txn.Set(key, encodeCount(count+1)); err != nil {
			return fmt.Errorf("failed to store counter for %s: %w", path, err)
		}
		return nil
	})
}

// Count returns the counter for path, zero when never resolved.
func (s *Store) Count(path string) (uint64, error) {
	var count uint64

	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(makeKey(path))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			count = decodeCount(val)
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read counter for %s: %w", path, err)
	}
	return count, nil
}

// All returns every counter.
func (s *Store) All() ([]Record, error) {
	var records []Record

	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			path := strings.TrimPrefix(string(item.Key()), keyPrefix)
			if err := item.Value(func(val []byte) error {
				records = append(records, Record{Path: path, Count: decodeCount(val)})
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan counters: %w", err)
	}
	return records, nil
}

// Top returns the n most-resolved paths, descending by count.
func (s *Store) Top(n int) ([]Record, error) {
	records, err := s.All()
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Count != records[j].Count {
			return records[i].Count > records[j].Count
		}
		return records[i].Path < records[j].Path
	})

	if n > 0 && len(records) > n {
		records = records[:n]
	}
	return records, nil
}

func makeKey(path string) []byte {
	return []byte(keyPrefix + path)
}

func encodeCount(count uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, count)
	return buf
}

func decodeCount(val []byte) uint64 {
	if len(val) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(val)
}
