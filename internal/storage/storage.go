package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/young1lin/grok-search/internal/models"
	"github.com/young1lin/grok-search/pkg/logger"
)

var bucketName = []byte("calls")

// DefaultMaxEntries caps the journal when no limit is configured
const DefaultMaxEntries = 200

// CallStore journals tool invocations in a BBolt database.
// Keys sort by creation time so the oldest entries are pruned first.
type CallStore struct {
	db         *bbolt.DB
	maxEntries int
}

// NewCallStore opens (or creates) the journal at path
func NewCallStore(path string, maxEntries int) (*CallStore, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	// Another server process may hold the lock; fail fast instead of blocking startup
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	// Create bucket if not exists
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("call history initialized",
		zap.String("path", path),
		zap.Int("max_entries", maxEntries),
	)
	return &CallStore{db: db, maxEntries: maxEntries}, nil
}

// Store saves a record and prunes the oldest entries beyond the cap
func (s *CallStore) Store(rec *models.CallRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if err := b.Put(recordKey(rec), data); err != nil {
			return err
		}

		excess := countKeys(b) - s.maxEntries
		if excess <= 0 {
			return nil
		}
		stale := make([][]byte, 0, excess)
		c := b.Cursor()
		for k, _ := c.First(); k != nil && len(stale) < excess; k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Recent returns up to n records, newest first
func (s *CallStore) Recent(n int) ([]models.CallRecord, error) {
	var records []models.CallRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.Last(); k != nil && len(records) < n; k, v = c.Prev() {
			var rec models.CallRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Count returns the number of journaled calls
func (s *CallStore) Count() int {
	count := 0
	s.db.View(func(tx *bbolt.Tx) error {
		count = countKeys(tx.Bucket(bucketName))
		return nil
	})
	return count
}

// Path returns the database file path
func (s *CallStore) Path() string {
	return s.db.Path()
}

// Close closes the database connection
func (s *CallStore) Close() error {
	return s.db.Close()
}

func recordKey(rec *models.CallRecord) []byte {
	return []byte(fmt.Sprintf("%020d-%s", rec.CreatedAt.UnixNano(), rec.ID))
}

func countKeys(b *bbolt.Bucket) int {
	n := 0
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	return n
}
