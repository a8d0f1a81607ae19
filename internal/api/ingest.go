package api

import (
	"context"
	"fmt"
)

// JobStatus is the lifecycle status of an ingestion job. Terminal statuses
// never change once reported.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	// JobCancelled is reported by some server versions; clients fold it
	// into failed for display purposes.
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// Progress is a point-in-time snapshot of a running ingestion job.
type Progress struct {
	Stage       string  `json:"stage"`
	StageNum    int     `json:"stage_num"`
	TotalStages int     `json:"total_stages"`
	Current     int     `json:"current"`
	Total       int     `json:"total"`
	Percent     float64 `json:"percent"`
	Message     string  `json:"message"`
}

// IngestionStatus is the polled state of one ingestion job.
type IngestionStatus struct {
	DataSourceID int       `json:"data_source_id"`
	Status       JobStatus `json:"status"`
	InProgress   bool      `json:"in_progress"`
	Progress     *Progress `json:"progress,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// StartResult normalizes the immediate response of a start-ingestion call.
// Async ingestion kinds return a DataSourceID to poll; synchronous kinds
// return Success plus a documents count.
type StartResult struct {
	Success        bool   `json:"success"`
	DataSourceID   int    `json:"data_source_id"`
	Message        string `json:"message"`
	DocumentsCount int    `json:"documents_count"`
	Error          string `json:"error,omitempty"`
}

// Async reports whether the start response carries a job to track.
func (r *StartResult) Async() bool {
	return r.DataSourceID != 0 && r.Error == ""
}

// GitIngestionRequest starts ingestion of a git repository.
type GitIngestionRequest struct {
	WorkspaceID    int      `json:"workspace_id"`
	Name           string   `json:"name"`
	RepoURL        string   `json:"repo_url"`
	Branch         string   `json:"branch,omitempty"`
	Username       string   `json:"username,omitempty"`
	Token          string   `json:"token,omitempty"`
	LanguageFilter []string `json:"language_filter,omitempty"`
	MaxDepth       int      `json:"max_depth,omitempty"`
}

// JiraIngestionRequest starts ingestion of a JIRA project.
type JiraIngestionRequest struct {
	WorkspaceID     int      `json:"workspace_id"`
	Name            string   `json:"name"`
	ProjectKey      string   `json:"project_key"`
	BaseURL         string   `json:"base_url"`
	Username        string   `json:"username,omitempty"`
	APIToken        string   `json:"api_token,omitempty"`
	IssueTypes      []string `json:"issue_types,omitempty"`
	SpecificTickets []string `json:"specific_tickets,omitempty"`
	MaxResults      int      `json:"max_results,omitempty"`
}

// ConfluenceIngestionRequest starts ingestion of a Confluence space.
// This kind completes synchronously on the server.
type ConfluenceIngestionRequest struct {
	WorkspaceID int    `json:"workspace_id"`
	Name        string `json:"name"`
	SpaceKey    string `json:"space_key"`
	BaseURL     string `json:"base_url,omitempty"`
	Username    string `json:"username,omitempty"`
	APIToken    string `json:"api_token,omitempty"`
}

// CodeIngestionRequest starts ingestion of a source code tree.
type CodeIngestionRequest struct {
	WorkspaceID    int      `json:"workspace_id"`
	Name           string   `json:"name"`
	DirectoryPath  string   `json:"directory_path,omitempty"`
	Files          []string `json:"files,omitempty"`
	MaxDepth       int      `json:"max_depth,omitempty"`
	IncludeHeaders bool     `json:"include_headers"`
}

// CodeIngestionStats summarizes a synchronous code ingestion run.
type CodeIngestionStats struct {
	FilesProcessed     int      `json:"files_processed"`
	FunctionsExtracted int      `json:"functions_extracted"`
	ClassesExtracted   int      `json:"classes_extracted"`
	StructsExtracted   int      `json:"structs_extracted"`
	SummariesGenerated int      `json:"summaries_generated"`
	EmbeddingsCreated  int      `json:"embeddings_created"`
	Errors             []string `json:"errors"`
}

// CodeIngestionResult is the immediate response of a code ingestion call.
type CodeIngestionResult struct {
	Success bool                `json:"success"`
	Stats   *CodeIngestionStats `json:"stats,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// StartGitIngestion starts an asynchronous git repository ingestion.
func (c *Client) StartGitIngestion(ctx context.Context, req GitIngestionRequest) (*StartResult, error) {
	var result StartResult
	if err := c.do(ctx, "POST", "/api/ingestion/git", req, &result); err != nil {
		return nil, fmt.Errorf("start git ingestion: %w", err)
	}
	return &result, nil
}

// StartJiraIngestion starts an asynchronous JIRA project ingestion.
func (c *Client) StartJiraIngestion(ctx context.Context, req JiraIngestionRequest) (*StartResult, error) {
	var result StartResult
	if err := c.do(ctx, "POST", "/api/ingestion/jira", req, &result); err != nil {
		return nil, fmt.Errorf("start jira ingestion: %w", err)
	}
	return &result, nil
}

// StartConfluenceIngestion ingests a Confluence space synchronously.
func (c *Client) StartConfluenceIngestion(ctx context.Context, req ConfluenceIngestionRequest) (*StartResult, error) {
	var result StartResult
	if err := c.do(ctx, "POST", "/api/ingestion/confluence", req, &result); err != nil {
		return nil, fmt.Errorf("start confluence ingestion: %w", err)
	}
	return &result, nil
}

// StartDocumentIngestion uploads and ingests a single document file
// synchronously. Multi-file uploads call this once per file.
func (c *Client) StartDocumentIngestion(ctx context.Context, workspaceID int, name, filePath string) (*StartResult, error) {
	fields := map[string]string{
		"workspace_id": fmt.Sprintf("%d", workspaceID),
		"name":         name,
	}
	var result StartResult
	if err := c.upload(ctx, "/api/ingestion/document", filePath, fields, &result); err != nil {
		return nil, fmt.Errorf("start document ingestion: %w", err)
	}
	return &result, nil
}

// StartCodeIngestion ingests a source code tree synchronously.
func (c *Client) StartCodeIngestion(ctx context.Context, req CodeIngestionRequest) (*CodeIngestionResult, error) {
	var result CodeIngestionResult
	if err := c.do(ctx, "POST", "/api/ingestion/code", req, &result); err != nil {
		return nil, fmt.Errorf("start code ingestion: %w", err)
	}
	return &result, nil
}

// GetIngestionProgress fetches the current progress snapshot for a job.
func (c *Client) GetIngestionProgress(ctx context.Context, dataSourceID int) (*IngestionStatus, error) {
	var result IngestionStatus
	path := fmt.Sprintf("/api/ingestion/progress/%d", dataSourceID)
	if err := c.do(ctx, "GET", path, nil, &result); err != nil {
		return nil, fmt.Errorf("get ingestion progress: %w", err)
	}
	return &result, nil
}

// GetActiveIngestions lists jobs currently in progress for a workspace.
func (c *Client) GetActiveIngestions(ctx context.Context, workspaceID int) ([]IngestionStatus, error) {
	var result struct {
		Active []IngestionStatus `json:"active"`
	}
	path := fmt.Sprintf("/api/ingestion/active/%d", workspaceID)
	if err := c.do(ctx, "GET", path, nil, &result); err != nil {
		return nil, fmt.Errorf("get active ingestions: %w", err)
	}
	return result.Active, nil
}

// CancelIngestion requests server-side cancellation of a running job.
// Cancellation is advisory to the server; callers stop tracking on ack.
func (c *Client) CancelIngestion(ctx context.Context, dataSourceID int) error {
	path := fmt.Sprintf("/api/ingestion/cancel/%d", dataSourceID)
	if err := c.do(ctx, "POST", path, nil, nil); err != nil {
		return fmt.Errorf("cancel ingestion: %w", err)
	}
	return nil
}
