// Package store provides durable, namespaced key-value storage for
// client-side state: cached form fields, the selected workspace and
// feature flags. Values are JSON-serialized with an embedded update
// timestamp so callers can implement expiry.
//
// Key namespaces in use: "formcache:<kind>", "settings:<name>",
// "flags:<name>".
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/timshannon/badgerhold/v4"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("key not found")

// Store is the persistence port. Implementations must survive process
// restarts.
type Store interface {
	// Get unmarshals the stored value into v. Returns ErrNotFound when
	// the key is absent.
	Get(key string, v any) error
	// GetUpdatedAt reports when the key was last written.
	GetUpdatedAt(key string) (time.Time, error)
	// Set marshals v and stores it under key, recording the write time.
	Set(key string, v any) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(key string) error
	Close() error
}

// record is the persisted envelope for one key.
type record struct {
	Key       string `badgerhold:"key"`
	Value     json.RawMessage
	UpdatedAt time.Time
}

// Badger is a badger-backed Store.
type Badger struct {
	store *badgerhold.Store
}

// Open opens (or creates) the state database at path.
func Open(path string) (*Badger, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	return &Badger{store: store}, nil
}

func (b *Badger) Get(key string, v any) error {
	var rec record
	err := b.store.Get(key, &rec)
	if err == badgerhold.ErrNotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %q: %w", key, err)
	}
	if err := json.Unmarshal(rec.Value, v); err != nil {
		return fmt.Errorf("unmarshal %q: %w", key, err)
	}
	return nil
}

func (b *Badger) GetUpdatedAt(key string) (time.Time, error) {
	var rec record
	err := b.store.Get(key, &rec)
	if err == badgerhold.ErrNotFound {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get %q: %w", key, err)
	}
	return rec.UpdatedAt, nil
}

func (b *Badger) Set(key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	rec := record{Key: key, Value: value, UpdatedAt: time.Now()}
	if err := b.store.Upsert(key, &rec); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (b *Badger) Delete(key string) error {
	err := b.store.Delete(key, &record{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (b *Badger) Close() error {
	return b.store.Close()
}
