// Package bolt implements the pending-operation store on a local bbolt file
// for single-host deployments. The whole log lives under one fixed key as a
// serialized ordered sequence, read at startup and rewritten on every
// mutation; concurrent writers get last-write-wins semantics.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/staynest/booking-coordinator/pkg/models"
	"github.com/staynest/booking-coordinator/pkg/storage"
	bbolt "go.etcd.io/bbolt"
)

var (
	bucketName = []byte("coordinator")
	pendingKey = []byte("pending_operations")
)

// Store implements storage.PendingStore on a bbolt database file.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if needed) a bbolt database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Make sure we conform to the interface
var _ storage.PendingStore = (*Store)(nil)

func (s *Store) load(tx *bbolt.Tx) ([]models.PendingOperation, error) {
	raw := tx.Bucket(bucketName).Get(pendingKey)
	if raw == nil {
		return nil, nil
	}
	var ops []models.PendingOperation
	if err := json.Unmarshal(raw, &ops); err != nil {
		return nil, fmt.Errorf("failed to decode pending operations: %w", err)
	}
	return ops, nil
}

func (s *Store) save(tx *bbolt.Tx, ops []models.PendingOperation) error {
	raw, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("failed to encode pending operations: %w", err)
	}
	return tx.Bucket(bucketName).Put(pendingKey, raw)
}

// AddPending appends a pending operation. Adding an already-present
// transaction id is a no-op.
func (s *Store) AddPending(ctx context.Context, op *models.PendingOperation) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		ops, err := s.load(tx)
		if err != nil {
			return err
		}
		for _, existing := range ops {
			if existing.TxID == op.TxID {
				return nil
			}
		}
		ops = append(ops, *op)
		return s.save(tx, ops)
	})
}

// UpdatePending overwrites an existing pending operation in place.
func (s *Store) UpdatePending(ctx context.Context, op *models.PendingOperation) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		ops, err := s.load(tx)
		if err != nil {
			return err
		}
		for i := range ops {
			if ops[i].TxID == op.TxID {
				ops[i] = *op
				return s.save(tx, ops)
			}
		}
		return fmt.Errorf("pending operation %s: %w", op.TxID, storage.ErrPendingNotFound)
	})
}

// RemovePending deletes a pending operation; absent ids are not an error.
func (s *Store) RemovePending(ctx context.Context, txID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		ops, err := s.load(tx)
		if err != nil {
			return err
		}
		filtered := ops[:0]
		for _, op := range ops {
			if op.TxID != txID {
				filtered = append(filtered, op)
			}
		}
		return s.save(tx, filtered)
	})
}

// GetPending retrieves a pending operation by its transaction id.
func (s *Store) GetPending(ctx context.Context, txID string) (*models.PendingOperation, error) {
	var found *models.PendingOperation
	err := s.db.View(func(tx *bbolt.Tx) error {
		ops, err := s.load(tx)
		if err != nil {
			return err
		}
		for i := range ops {
			if ops[i].TxID == txID {
				found = &ops[i]
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("pending operation %s: %w", txID, storage.ErrPendingNotFound)
	}
	return found, nil
}

// ListPending retrieves all pending operations in submission order.
func (s *Store) ListPending(ctx context.Context) ([]models.PendingOperation, error) {
	var ops []models.PendingOperation
	err := s.db.View(func(tx *bbolt.Tx) error {
		loaded, err := s.load(tx)
		if err != nil {
			return err
		}
		ops = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ops, nil
}

// ListStalePending retrieves pending operations submitted longer ago than
// maxAge.
func (s *Store) ListStalePending(ctx context.Context, maxAge time.Duration) ([]models.PendingOperation, error) {
	all, err := s.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-maxAge)
	var stale []models.PendingOperation
	for _, op := range all {
		if op.SubmittedAt.Before(cutoff) {
			stale = append(stale, op)
		}
	}
	return stale, nil
}
