package api

import (
	"context"
	"fmt"
	"time"
)

// DataSource is a named, typed input owned by a workspace, produced by a
// completed ingestion job.
type DataSource struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	SourceType   string     `json:"source_type"`
	SourceURL    string     `json:"source_url,omitempty"`
	Status       JobStatus  `json:"status"`
	LastIngested *time.Time `json:"last_ingested,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Workspace is a named container for data sources and chat sessions.
type Workspace struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListDataSources returns all data sources for a workspace, newest first.
func (c *Client) ListDataSources(ctx context.Context, workspaceID int) ([]DataSource, error) {
	var result []DataSource
	path := fmt.Sprintf("/api/ingestion/sources/%d", workspaceID)
	if err := c.do(ctx, "GET", path, nil, &result); err != nil {
		return nil, fmt.Errorf("list data sources: %w", err)
	}
	return result, nil
}

// DeleteDataSource removes a data source and its indexed documents.
func (c *Client) DeleteDataSource(ctx context.Context, dataSourceID int) error {
	path := fmt.Sprintf("/api/ingestion/sources/%d", dataSourceID)
	if err := c.do(ctx, "DELETE", path, nil, nil); err != nil {
		return fmt.Errorf("delete data source: %w", err)
	}
	return nil
}

// ListWorkspaces returns all workspaces visible to the authenticated user.
func (c *Client) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	var result []Workspace
	if err := c.do(ctx, "GET", "/api/workspaces/", nil, &result); err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return result, nil
}

// CreateWorkspace creates a new workspace.
func (c *Client) CreateWorkspace(ctx context.Context, name, description string) (*Workspace, error) {
	payload := map[string]string{"name": name, "description": description}
	var result Workspace
	if err := c.do(ctx, "POST", "/api/workspaces/", payload, &result); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &result, nil
}
