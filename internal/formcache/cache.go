// Package formcache persists non-sensitive ingestion form fields across
// sessions so repeat submissions are prefilled. Entries expire after 30
// days and credential or file-valued fields are never written.
package formcache

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/corvid-labs/ragline/internal/store"
)

// TTL is how long a cached entry stays valid.
const TTL = 30 * 24 * time.Hour

const keyPrefix = "formcache:"

// Field names that hold file paths or file contents; never cached.
var fileFields = map[string]bool{
	"file":           true,
	"files":          true,
	"directory_path": true,
}

// Cache stores form fields keyed by form identity. Expiry runs off the
// store's write timestamp.
type Cache struct {
	store store.Store
	now   func() time.Time
}

// New creates a cache over the given store.
func New(s store.Store) *Cache {
	return &Cache{store: s, now: time.Now}
}

// sensitive reports whether a field name denotes a credential.
func sensitive(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "token") ||
		strings.Contains(n, "password") ||
		strings.Contains(n, "secret") ||
		n == "credentials"
}

// Put persists the form's fields, replacing any previous entry.
// Sensitive and file-valued fields are stripped before the write.
func (c *Cache) Put(form string, fields map[string]string) error {
	data := make(map[string]string, len(fields))
	for k, v := range fields {
		if sensitive(k) || fileFields[k] || v == "" {
			continue
		}
		data[k] = v
	}

	if err := c.store.Set(keyPrefix+form, data); err != nil {
		return fmt.Errorf("cache form %q: %w", form, err)
	}
	return nil
}

// Load merges any non-expired cached entry over the given defaults.
// An expired entry is deleted and the defaults returned unchanged.
func (c *Cache) Load(form string, defaults map[string]string) (map[string]string, error) {
	merged := make(map[string]string, len(defaults))
	for k, v := range defaults {
		merged[k] = v
	}

	key := keyPrefix + form
	var data map[string]string
	err := c.store.Get(key, &data)
	if errors.Is(err, store.ErrNotFound) {
		return merged, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cached form %q: %w", form, err)
	}

	writtenAt, err := c.store.GetUpdatedAt(key)
	if err != nil {
		return nil, fmt.Errorf("load cached form %q: %w", form, err)
	}
	if c.now().Sub(writtenAt) > TTL {
		if err := c.store.Delete(key); err != nil {
			return nil, fmt.Errorf("drop expired form %q: %w", form, err)
		}
		return merged, nil
	}

	for k, v := range data {
		merged[k] = v
	}
	return merged, nil
}

// Clear removes the cached entry for a form in one step.
func (c *Cache) Clear(form string) error {
	if err := c.store.Delete(keyPrefix + form); err != nil {
		return fmt.Errorf("clear cached form %q: %w", form, err)
	}
	return nil
}
