// Package client speaks the Label Studio REST API: project listing, task
// export (with the snapshot fallback for large projects) and file download.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/logger"
)

const (
	reqTimeout    = time.Second * 30
	maxRetryCount = 3
	retryDelay    = 100 * time.Millisecond

	// snapshot export poll cadence
	pollInterval = time.Second
)

var (
	// ErrExportFailed is returned when the server reports a failed export
	// snapshot, distinct from a successful export with zero tasks.
	ErrExportFailed = errors.New("client: export snapshot failed")
	// ErrUnauthorized is returned on 401 responses.
	ErrUnauthorized = errors.New("client: invalid API key")
)

// Client interacts with the Label Studio HTTP API.
type Client struct {
	*resty.Client
}

// New returns an initialized Label Studio HTTP client authenticating with the
// given API token.
func New(ctx context.Context, baseURL, apiKey string) *Client {
	log, _ := logger.GetZapLogger(ctx)

	r := resty.New().
		SetLogger(log.Sugar()).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(reqTimeout).
		SetRetryCount(maxRetryCount).
		SetRetryWaitTime(retryDelay).
		SetHeader("Authorization", "Token "+apiKey)

	return &Client{Client: r}
}

// Project is the subset of project fields the processor cares about.
type Project struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	TaskNumber int    `json:"task_number"`
}

type projectList struct {
	Results []Project `json:"results"`
}

// VerifyConnection checks reachability and credentials by listing projects.
func (c *Client) VerifyConnection(ctx context.Context) error {
	resp, err := c.R().SetContext(ctx).Get("/api/projects/")
	if err != nil {
		return fmt.Errorf("client: couldn't connect to Label Studio: %w", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.IsError() {
		return fmt.Errorf("client: connection check failed with status %d", resp.StatusCode())
	}
	return nil
}

// ListProjects calls GET /api/projects/.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var list projectList
	resp, err := c.R().SetContext(ctx).SetResult(&list).Get("/api/projects/")
	if err != nil {
		return nil, fmt.Errorf("client: couldn't list projects: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("client: list projects failed with status %d", resp.StatusCode())
	}
	return list.Results, nil
}

// GetProject calls GET /api/projects/{id}/.
func (c *Client) GetProject(ctx context.Context, projectID int) (*Project, error) {
	var project Project
	resp, err := c.R().SetContext(ctx).SetResult(&project).
		Get(fmt.Sprintf("/api/projects/%d/", projectID))
	if err != nil {
		return nil, fmt.Errorf("client: couldn't get project %d: %w", projectID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("client: get project %d failed with status %d", projectID, resp.StatusCode())
	}
	return &project, nil
}

// ExportTasks exports every task of the project as raw JSON documents. It
// first tries the synchronous export endpoint and falls back to the snapshot
// API (create, poll until completed, download) when that fails, which happens
// on projects too large for the synchronous path.
func (c *Client) ExportTasks(ctx context.Context, projectID int) ([]json.RawMessage, error) {
	var tasks []json.RawMessage
	resp, err := c.R().SetContext(ctx).
		SetQueryParams(map[string]string{
			"exportType":         "JSON",
			"download_all_tasks": "true",
		}).
		SetResult(&tasks).
		Get(fmt.Sprintf("/api/projects/%d/export", projectID))
	if err != nil {
		return nil, fmt.Errorf("client: export request failed: %w", err)
	}
	if resp.IsSuccess() {
		return tasks, nil
	}

	return c.exportSnapshot(ctx, projectID)
}

type exportSnapshot struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

func (c *Client) exportSnapshot(ctx context.Context, projectID int) ([]json.RawMessage, error) {
	var snapshot exportSnapshot
	resp, err := c.R().SetContext(ctx).SetResult(&snapshot).
		Post(fmt.Sprintf("/api/projects/%d/exports", projectID))
	if err != nil {
		return nil, fmt.Errorf("client: couldn't create export snapshot: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("client: create export snapshot failed with status %d", resp.StatusCode())
	}

	for snapshot.Status != "completed" {
		if snapshot.Status == "failed" {
			return nil, ErrExportFailed
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}

		resp, err = c.R().SetContext(ctx).SetResult(&snapshot).
			Get(fmt.Sprintf("/api/projects/%d/exports/%d", projectID, snapshot.ID))
		if err != nil {
			return nil, fmt.Errorf("client: couldn't poll export snapshot: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("client: poll export snapshot failed with status %d", resp.StatusCode())
		}
	}

	var tasks []json.RawMessage
	resp, err = c.R().SetContext(ctx).SetResult(&tasks).
		Get(fmt.Sprintf("/api/projects/%d/exports/%d/download", projectID, snapshot.ID))
	if err != nil {
		return nil, fmt.Errorf("client: couldn't download export snapshot: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("client: download export snapshot failed with status %d", resp.StatusCode())
	}
	return tasks, nil
}

// DownloadFile streams fileURL to outPath. Relative URLs (as stored in task
// data) resolve against the client's base URL.
func (c *Client) DownloadFile(ctx context.Context, fileURL, outPath string) error {
	req := c.R().SetContext(ctx).SetOutput(outPath)

	if strings.HasPrefix(fileURL, "/") {
		fileURL = c.BaseURL + fileURL
	}
	resp, err := req.Get(fileURL)
	if err != nil {
		return fmt.Errorf("client: download %s: %w", fileURL, err)
	}
	if resp.IsError() {
		return fmt.Errorf("client: download %s failed with status %d", fileURL, resp.StatusCode())
	}
	return nil
}
