package adapter

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	m "quill.dev/pkg/quill/internal/model"
)

// resultSchemaVersion is bumped whenever storedResult changes shape.
const resultSchemaVersion uint16 = 1

var bucketResults = []byte("results")

// ResultStore persists per-file findings so unchanged files can be skipped on
// the next run.
type ResultStore interface {
	// Load returns the stored findings for path when both the content hash and
	// the configuration fingerprint still match.
	Load(path m.Path, hash, fingerprint string) ([]m.Suggestion, int, bool, error)

	// Save records the findings for path.
	Save(path m.Path, hash, fingerprint string, suggestions []m.Suggestion, chunks int) error

	Close() error
}

type storedResult struct {
	Schema      uint16
	Hash        string
	Fingerprint string
	Chunks      int
	Suggestions []m.Suggestion
}

// BoltResultStore keeps results in a bbolt database keyed by file path.
type BoltResultStore struct {
	db *bbolt.DB
}

// NewBoltResultStore opens (or creates) the database at path.
func NewBoltResultStore(path string) (*BoltResultStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open result cache %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketResults)

		return err
	})
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to create bucket %s: %w", bucketResults, err)
	}

	return &BoltResultStore{db: db}, nil
}

// Load implements ResultStore.
func (s *BoltResultStore) Load(path m.Path, hash, fingerprint string) ([]m.Suggestion, int, bool, error) {
	var stored storedResult

	found := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketResults).Get([]byte(path))
		if data == nil {
			return nil
		}

		found = true

		return msgpack.Unmarshal(data, &stored)
	})
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to decode cached result for %s: %w", path, err)
	}

	if !found || stored.Schema != resultSchemaVersion || stored.Hash != hash || stored.Fingerprint != fingerprint {
		return nil, 0, false, nil
	}

	return stored.Suggestions, stored.Chunks, true, nil
}

// Save implements ResultStore.
func (s *BoltResultStore) Save(path m.Path, hash, fingerprint string, suggestions []m.Suggestion, chunks int) error {
	data, err := msgpack.Marshal(storedResult{
		Schema:      resultSchemaVersion,
		Hash:        hash,
		Fingerprint: fingerprint,
		Chunks:      chunks,
		Suggestions: suggestions,
	})
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketResults).Put([]byte(path), data)
	})
}

// Close releases the database file lock.
func (s *BoltResultStore) Close() error {
	return s.db.Close()
}

// NopResultStore never hits and discards every save.
type NopResultStore struct{}

// Load implements ResultStore.
func (NopResultStore) Load(m.Path, string, string) ([]m.Suggestion, int, bool, error) {
	return nil, 0, false, nil
}

// Save implements ResultStore.
func (NopResultStore) Save(m.Path, string, string, []m.Suggestion, int) error {
	return nil
}

// Close implements ResultStore.
func (NopResultStore) Close() error {
	return nil
}
