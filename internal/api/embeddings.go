package api

import (
	"context"
	"fmt"
	"time"
)

// EmbeddedDocument is one indexed document with its chunk count, as
// listed by the embeddings browse surface. The server returns them
// sorted by data source name, then file path.
type EmbeddedDocument struct {
	ID             int        `json:"id"`
	Title          string     `json:"title"`
	FilePath       string     `json:"file_path"`
	FileType       string     `json:"file_type"`
	ChunkCount     int        `json:"chunk_count"`
	DataSourceID   int        `json:"data_source_id"`
	DataSourceName string     `json:"data_source_name"`
	CreatedAt      *time.Time `json:"created_at"`
}

// DocumentChunk is one embedded chunk of a document, ordered by index.
type DocumentChunk struct {
	ID         int            `json:"id"`
	ChunkIndex int            `json:"chunk_index"`
	Content    string         `json:"content"`
	StartLine  *int           `json:"start_line"`
	EndLine    *int           `json:"end_line"`
	Metadata   map[string]any `json:"metadata"`
}

// SourceEmbeddingStats aggregates embedding counts for one data source.
type SourceEmbeddingStats struct {
	Name       string `json:"name"`
	SourceType string `json:"source_type"`
	Documents  int    `json:"documents"`
	Chunks     int    `json:"chunks"`
}

// TypeEmbeddingStats aggregates embedding counts for one file type.
type TypeEmbeddingStats struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
}

// EmbeddingStats summarizes a workspace's embeddings.
type EmbeddingStats struct {
	TotalDocuments int                           `json:"total_documents"`
	TotalChunks    int                           `json:"total_chunks"`
	BySource       []SourceEmbeddingStats        `json:"by_source"`
	ByType         map[string]TypeEmbeddingStats `json:"by_type"`
}

// ListEmbeddedDocuments returns all indexed documents of a workspace
// with their chunk counts.
func (c *Client) ListEmbeddedDocuments(ctx context.Context, workspaceID int) ([]EmbeddedDocument, error) {
	var result []EmbeddedDocument
	path := fmt.Sprintf("/api/embeddings/workspace/%d", workspaceID)
	if err := c.do(ctx, "GET", path, nil, &result); err != nil {
		return nil, fmt.Errorf("list embedded documents: %w", err)
	}
	return result, nil
}

// GetDocumentChunks returns the embedded chunks of one document in
// chunk-index order.
func (c *Client) GetDocumentChunks(ctx context.Context, documentID int) ([]DocumentChunk, error) {
	var result []DocumentChunk
	path := fmt.Sprintf("/api/embeddings/document/%d/chunks", documentID)
	if err := c.do(ctx, "GET", path, nil, &result); err != nil {
		return nil, fmt.Errorf("get document chunks: %w", err)
	}
	return result, nil
}

// GetEmbeddingStats returns aggregate embedding counts for a workspace,
// broken down by data source and file type.
func (c *Client) GetEmbeddingStats(ctx context.Context, workspaceID int) (*EmbeddingStats, error) {
	var result EmbeddingStats
	path := fmt.Sprintf("/api/embeddings/stats/%d", workspaceID)
	if err := c.do(ctx, "GET", path, nil, &result); err != nil {
		return nil, fmt.Errorf("get embedding stats: %w", err)
	}
	return &result, nil
}
