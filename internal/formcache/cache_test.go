package formcache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/corvid-labs/ragline/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	data map[string]entry
}

type entry struct {
	value     json.RawMessage
	updatedAt time.Time
}

func newMemStore() *memStore {
	return &memStore{data: map[string]entry{}}
}

func (m *memStore) Get(key string, v any) error {
	e, ok := m.data[key]
	if !ok {
		return store.ErrNotFound
	}
	return json.Unmarshal(e.value, v)
}

func (m *memStore) GetUpdatedAt(key string) (time.Time, error) {
	e, ok := m.data[key]
	if !ok {
		return time.Time{}, store.ErrNotFound
	}
	return e.updatedAt, nil
}

func (m *memStore) Set(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = entry{value: b, updatedAt: time.Now()}
	return nil
}

func (m *memStore) Delete(key string) error {
	delete(m.data, key)
	return nil
}

func (m *memStore) Close() error { return nil }

// rawEntry reads the persisted fields straight from the store,
// bypassing the cache, to inspect exactly what was written.
func rawEntry(t *testing.T, s *memStore, form string) map[string]string {
	t.Helper()
	var data map[string]string
	require.NoError(t, s.Get("formcache:"+form, &data))
	return data
}

func TestCache_PutStripsSensitiveAndFileFields(t *testing.T) {
	s := newMemStore()
	c := New(s)

	require.NoError(t, c.Put("git", map[string]string{
		"name":           "backend",
		"repo_url":       "https://example.com/repo.git",
		"username":       "alex",
		"token":          "ghp_secret",
		"api_token":      "also-secret",
		"password":       "hunter2",
		"client_secret":  "s3cr3t",
		"credentials":    "user:pass",
		"file":           "/tmp/a.pdf",
		"files":          "/tmp/a.pdf,/tmp/b.pdf",
		"directory_path": "/src",
		"branch":         "",
	}))

	assert.Equal(t, map[string]string{
		"name":     "backend",
		"repo_url": "https://example.com/repo.git",
		"username": "alex",
	}, rawEntry(t, s, "git"))

	writtenAt, err := s.GetUpdatedAt("formcache:git")
	require.NoError(t, err)
	assert.False(t, writtenAt.IsZero())
}

func TestCache_LoadMergesOverDefaults(t *testing.T) {
	s := newMemStore()
	c := New(s)

	require.NoError(t, c.Put("jira", map[string]string{
		"name":        "proj",
		"project_key": "PROJ",
	}))

	got, err := c.Load("jira", map[string]string{
		"name":        "default-name",
		"max_results": "100",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"name":        "proj",
		"project_key": "PROJ",
		"max_results": "100",
	}, got)
}

func TestCache_LoadMissReturnsDefaults(t *testing.T) {
	c := New(newMemStore())

	got, err := c.Load("confluence", map[string]string{"space_key": "DOC"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"space_key": "DOC"}, got)
}

func TestCache_ExpiredEntryDeletedOnLoad(t *testing.T) {
	s := newMemStore()
	c := New(s)

	require.NoError(t, c.Put("git", map[string]string{"name": "backend"}))
	writtenAt, err := s.GetUpdatedAt("formcache:git")
	require.NoError(t, err)

	// Just inside the TTL: still served.
	c.now = func() time.Time { return writtenAt.Add(TTL - time.Minute) }
	got, err := c.Load("git", nil)
	require.NoError(t, err)
	assert.Equal(t, "backend", got["name"])

	// Past the TTL: defaults only, and the entry is gone.
	c.now = func() time.Time { return writtenAt.Add(TTL + time.Minute) }
	got, err = c.Load("git", map[string]string{"name": "fresh"})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got["name"])

	var data map[string]string
	assert.ErrorIs(t, s.Get("formcache:git", &data), store.ErrNotFound)
}

func TestCache_PutReplacesPreviousEntry(t *testing.T) {
	s := newMemStore()
	c := New(s)

	require.NoError(t, c.Put("git", map[string]string{"name": "old", "branch": "main"}))
	require.NoError(t, c.Put("git", map[string]string{"name": "new"}))

	assert.Equal(t, map[string]string{"name": "new"}, rawEntry(t, s, "git"))
}

func TestCache_Clear(t *testing.T) {
	s := newMemStore()
	c := New(s)

	require.NoError(t, c.Put("document", map[string]string{"name": "specs"}))
	require.NoError(t, c.Clear("document"))

	got, err := c.Load("document", map[string]string{"name": "default"})
	require.NoError(t, err)
	assert.Equal(t, "default", got["name"])
}

func TestSensitive(t *testing.T) {
	tests := []struct {
		field string
		want  bool
	}{
		{"token", true},
		{"api_token", true},
		{"API_TOKEN", true},
		{"password", true},
		{"client_secret", true},
		{"credentials", true},
		{"name", false},
		{"repo_url", false},
		{"username", false},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, sensitive(tt.field))
		})
	}
}
