package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/corvid-labs/ragline/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartGitIngestion(t *testing.T) {
	var gotReq api.GitIngestionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/ingestion/git", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"data_source_id": 42,
			"message":        "ingestion started",
		})
	}))
	defer srv.Close()

	c := api.New(srv.URL, "test-token")
	res, err := c.StartGitIngestion(context.Background(), api.GitIngestionRequest{
		WorkspaceID: 1,
		Name:        "backend",
		RepoURL:     "https://example.com/repo.git",
		Branch:      "main",
	})
	require.NoError(t, err)

	assert.True(t, res.Async())
	assert.Equal(t, 42, res.DataSourceID)
	assert.Equal(t, "backend", gotReq.Name)
	assert.Equal(t, "main", gotReq.Branch)
}

func TestAPIErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Workspace not found"})
	}))
	defer srv.Close()

	c := api.New(srv.URL, "")
	_, err := c.GetIngestionProgress(context.Background(), 99)
	require.Error(t, err)

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Workspace not found", apiErr.Detail)
}

func TestAPIErrorNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream timeout"))
	}))
	defer srv.Close()

	c := api.New(srv.URL, "")
	err := c.CancelIngestion(context.Background(), 1)
	require.Error(t, err)

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream timeout", apiErr.Detail)
}

func TestGetIngestionProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ingestion/progress/7", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"data_source_id": 7,
			"status":         "processing",
			"in_progress":    true,
			"progress": map[string]any{
				"stage":        "embedding",
				"stage_num":    2,
				"total_stages": 3,
				"current":      40,
				"total":        100,
				"percent":      40.0,
				"message":      "embedding chunks",
			},
		})
	}))
	defer srv.Close()

	c := api.New(srv.URL, "")
	st, err := c.GetIngestionProgress(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, api.JobProcessing, st.Status)
	assert.True(t, st.InProgress)
	require.NotNil(t, st.Progress)
	assert.Equal(t, "embedding", st.Progress.Stage)
	assert.Equal(t, 40.0, st.Progress.Percent)
}

func TestGetActiveIngestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ingestion/active/3", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"active": []map[string]any{
				{"data_source_id": 11, "status": "processing", "in_progress": true},
				{"data_source_id": 12, "status": "pending", "in_progress": true},
			},
		})
	}))
	defer srv.Close()

	c := api.New(srv.URL, "")
	active, err := c.GetActiveIngestions(context.Background(), 3)
	require.NoError(t, err)

	require.Len(t, active, 2)
	assert.Equal(t, 11, active[0].DataSourceID)
	assert.Equal(t, api.JobPending, active[1].Status)
}

func TestGetActiveIngestionsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"active": []any{}})
	}))
	defer srv.Close()

	c := api.New(srv.URL, "")
	active, err := c.GetActiveIngestions(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCancelIngestion(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	c := api.New(srv.URL, "")
	require.NoError(t, c.CancelIngestion(context.Background(), 42))
	assert.Equal(t, "/api/ingestion/cancel/42", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
}

func TestStartDocumentIngestionUpload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes\n\nhello"), 0644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ingestion/document", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "1", r.FormValue("workspace_id"))
		assert.Equal(t, "my notes", r.FormValue("name"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "notes.md", header.Filename)

		json.NewEncoder(w).Encode(map[string]any{
			"success":         true,
			"documents_count": 1,
		})
	}))
	defer srv.Close()

	c := api.New(srv.URL, "")
	res, err := c.StartDocumentIngestion(context.Background(), 1, "my notes", path)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.DocumentsCount)
}

func TestStartDocumentIngestionMissingFile(t *testing.T) {
	c := api.New("http://localhost:1", "")
	_, err := c.StartDocumentIngestion(context.Background(), 1, "x", "/does/not/exist.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestListDataSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ingestion/sources/5", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "name": "backend", "source_type": "git", "status": "completed", "created_at": "2026-08-01T10:00:00Z"},
		})
	}))
	defer srv.Close()

	c := api.New(srv.URL, "")
	sources, err := c.ListDataSources(context.Background(), 5)
	require.NoError(t, err)

	require.Len(t, sources, 1)
	assert.Equal(t, "backend", sources[0].Name)
	assert.Equal(t, api.JobCompleted, sources[0].Status)
}

func TestListEmbeddedDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings/workspace/4", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"id":               128,
				"title":            "README.md",
				"file_path":        "docs/README.md",
				"file_type":        "markdown",
				"chunk_count":      9,
				"data_source_id":   2,
				"data_source_name": "backend",
				"created_at":       "2026-08-01T10:00:00Z",
			},
			{
				"id":               129,
				"title":            "main.go",
				"file_path":        "cmd/main.go",
				"file_type":        "go",
				"chunk_count":      4,
				"data_source_id":   2,
				"data_source_name": "backend",
				"created_at":       nil,
			},
		})
	}))
	defer srv.Close()

	c := api.New(srv.URL, "")
	docs, err := c.ListEmbeddedDocuments(context.Background(), 4)
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "README.md", docs[0].Title)
	assert.Equal(t, 9, docs[0].ChunkCount)
	assert.Equal(t, "backend", docs[0].DataSourceName)
	require.NotNil(t, docs[0].CreatedAt)
	assert.Nil(t, docs[1].CreatedAt)
}

func TestGetDocumentChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings/document/128/chunks", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"id":          700,
				"chunk_index": 0,
				"content":     "# README\n\nintro text",
				"start_line":  1,
				"end_line":    12,
				"metadata":    map[string]any{"start_line": 1, "end_line": 12},
			},
			{
				"id":          701,
				"chunk_index": 1,
				"content":     "second section",
				"start_line":  nil,
				"end_line":    nil,
			},
		})
	}))
	defer srv.Close()

	c := api.New(srv.URL, "")
	chunks, err := c.GetDocumentChunks(context.Background(), 128)
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	require.NotNil(t, chunks[0].StartLine)
	assert.Equal(t, 1, *chunks[0].StartLine)
	assert.Nil(t, chunks[1].StartLine)
}

func TestGetEmbeddingStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings/stats/4", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"total_documents": 12,
			"total_chunks":    85,
			"by_source": []map[string]any{
				{"name": "backend", "source_type": "git", "documents": 10, "chunks": 70},
				{"name": "specs", "source_type": "document", "documents": 2, "chunks": 15},
			},
			"by_type": map[string]any{
				"markdown": map[string]any{"documents": 5, "chunks": 40},
				"go":       map[string]any{"documents": 7, "chunks": 45},
			},
		})
	}))
	defer srv.Close()

	c := api.New(srv.URL, "")
	stats, err := c.GetEmbeddingStats(context.Background(), 4)
	require.NoError(t, err)

	assert.Equal(t, 12, stats.TotalDocuments)
	assert.Equal(t, 85, stats.TotalChunks)
	require.Len(t, stats.BySource, 2)
	assert.Equal(t, "backend", stats.BySource[0].Name)
	assert.Equal(t, 70, stats.BySource[0].Chunks)
	assert.Equal(t, 40, stats.ByType["markdown"].Chunks)
}

func TestJobStatusTerminal(t *testing.T) {
	tests := []struct {
		status api.JobStatus
		want   bool
	}{
		{api.JobPending, false},
		{api.JobProcessing, false},
		{api.JobCompleted, true},
		{api.JobFailed, true},
		{api.JobCancelled, true},
		{api.JobStatus(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Terminal())
		})
	}
}
