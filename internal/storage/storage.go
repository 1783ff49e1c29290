// Package storage keeps a persistent log of served predictions.
// It uses BoltDB as the underlying storage engine; records are keyed by
// time so that range queries and most-recent listings are cursor scans.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const (
	predictionsBucket = "predictions" // Bucket name for prediction records

	dbFile = "loanscore.db"
)

// PredictionRecord is one scored applicant row, or a failed call when Error
// is set.
type PredictionRecord struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	RequestID   string         `json:"request_id,omitempty"`
	Source      string         `json:"source,omitempty"`
	Applicant   map[string]any `json:"applicant,omitempty"`
	Label       string         `json:"label,omitempty"`
	PReject     float64        `json:"p_reject"`
	PApprove    float64        `json:"p_approve"`
	ModelSHA256 string         `json:"model_sha256,omitempty"`
	Error       string         `json:"error,omitempty"`
	ErrorKind   string         `json:"error_kind,omitempty"`
}

// Store provides persistent storage for prediction records using BoltDB.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// New opens or creates the prediction log in dataPath.
func New(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(dataPath, dbFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. Closing twice is not an error.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// timeKey orders keys by time: a zero-padded nanosecond stamp sorts the same
// way as bytes and as numbers.
func timeKey(ts time.Time) []byte {
	return []byte(fmt.Sprintf("%020d", ts.UnixNano()))
}

// StorePredictions appends records in one transaction, filling in missing
// IDs and timestamps.
func (s *Store) StorePredictions(records ...PredictionRecord) error {
	if s.db == nil {
		return fmt.Errorf("store is closed")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		for i := range records {
			rec := &records[i]
			if rec.ID == "" {
				rec.ID = uuid.NewString()
			}
			if rec.Timestamp.IsZero() {
				rec.Timestamp = time.Now()
			}

			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal prediction record: %w", err)
			}
			key := append(timeKey(rec.Timestamp), []byte("_"+rec.ID)...)
			if err := b.Put(key, data); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetPredictions returns records with start <= timestamp <= end, oldest
// first.
func (s *Store) GetPredictions(start, end time.Time) ([]PredictionRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store is closed")
	}
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()
		startKey := timeKey(start)
		endKey := timeKey(end)

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k[:len(endKey)], endKey) <= 0; k, v = c.Next() {
			var rec PredictionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}

// Recent returns up to n records, newest first.
func (s *Store) Recent(n int) ([]PredictionRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store is closed")
	}
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(records) < n; k, v = c.Prev() {
			var rec PredictionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("store is closed")
	}
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(predictionsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}
