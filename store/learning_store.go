package store

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/expenso/expense-ocr/dto"
	"github.com/expenso/expense-ocr/utils"
)

const learningBucket = "ocr_learning"

// BoltLearningStore is an append-only correction log keyed by normalized
// vendor string. Records are never mutated or deleted by the extraction
// pipeline; bbolt's single-writer transactions make concurrent appends safe.
type BoltLearningStore struct {
	db *bbolt.DB
}

// NewBoltLearningStore opens (or creates) the learning database at path.
func NewBoltLearningStore(path string) (*BoltLearningStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening learning db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(learningBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating learning bucket: %w", err)
	}

	return &BoltLearningStore{db: db}, nil
}

// Record appends one correction entry for a vendor. The key is derived from
// the timestamp and the record content, so re-recording the same correction
// is idempotent.
func (s *BoltLearningStore) Record(vendor, rawText string, discrepancies map[string]dto.Discrepancy, createdAt time.Time) error {
	key, err := recordKey(vendor, rawText, discrepancies, createdAt)
	if err != nil {
		return err
	}

	record := dto.LearningRecord{
		ID:            uuid.NewString(),
		Vendor:        utils.VendorKey(vendor),
		RawText:       rawText,
		Discrepancies: discrepancies,
		CreatedAt:     createdAt,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling learning record: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(learningBucket))
		vendorBucket, err := root.CreateBucketIfNotExists([]byte(utils.VendorKey(vendor)))
		if err != nil {
			return fmt.Errorf("creating vendor bucket: %w", err)
		}
		return vendorBucket.Put(key, data)
	})
}

// LookupRecent returns up to limit records for a vendor key, newest first.
// An unknown vendor yields an empty slice, not an error.
func (s *BoltLearningStore) LookupRecent(vendor string, limit int) ([]dto.LearningRecord, error) {
	if limit <= 0 {
		limit = 5
	}

	records := []dto.LearningRecord{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(learningBucket))
		vendorBucket := root.Bucket([]byte(utils.VendorKey(vendor)))
		if vendorBucket == nil {
			return nil
		}

		cursor := vendorBucket.Cursor()
		for k, v := cursor.Last(); k != nil && len(records) < limit; k, v = cursor.Prev() {
			var record dto.LearningRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling learning record: %w", err)
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the underlying database.
func (s *BoltLearningStore) Close() error {
	return s.db.Close()
}

// recordKey builds a key that sorts chronologically and collapses duplicate
// submissions of the same correction.
func recordKey(vendor, rawText string, discrepancies map[string]dto.Discrepancy, createdAt time.Time) ([]byte, error) {
	payload, err := json.Marshal(discrepancies)
	if err != nil {
		return nil, fmt.Errorf("hashing discrepancies: %w", err)
	}

	h := fnv.New32a()
	h.Write([]byte(utils.VendorKey(vendor)))
	h.Write([]byte(rawText))
	h.Write(payload)

	return []byte(fmt.Sprintf("%020d-%08x", createdAt.UnixNano(), h.Sum32())), nil
}
