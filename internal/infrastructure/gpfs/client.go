// Package gpfs implements the distributed filesystem control-plane client
// and the fileset provisioning workflow built on top of it. Mutating calls
// are asynchronous on the API side: each submits a job and polls it to a
// terminal state before returning.
package gpfs

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"allocmgr/internal/shared/config"
	apperrors "allocmgr/internal/shared/errors"
	"allocmgr/internal/shared/logger"
)

const (
	requestTimeout  = 30 * time.Second
	jobPollInterval = 2 * time.Second
	maxResponseSize = 1 << 20
)

// ErrDirectoryExists reports that a directory creation hit an existing
// directory. Callers treat it as success and skip applying the parent ACL.
var ErrDirectoryExists = errors.New("directory already exists")

// ACL is the access-control profile applied to a directory.
type ACL struct {
	Owner string
	Group string
	Other string
}

// JobState is the reported state of an asynchronous control-plane job.
type JobState string

const (
	JobPending   JobState = "pending"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// JobStatus is one poll result for an asynchronous job.
type JobStatus struct {
	State  JobState
	Errors []string
}

type jobResponse struct {
	Jobs []struct {
		JobID  int64  `json:"jobId"`
		Status string `json:"status"`
		Result struct {
			Stderr []string `json:"stderr"`
		} `json:"result"`
	} `json:"jobs"`
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

// Client talks to the filesystem control-plane REST API.
type Client struct {
	baseURL    string
	username   string
	password   string
	filesystem string
	jobTimeout time.Duration
	httpClient *http.Client
	logger     logger.Interface
}

func NewClient(cfg *config.FilesystemConfig, log logger.Interface) *Client {
	transport := http.DefaultTransport
	if !cfg.VerifyTLS {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	timeout := time.Duration(cfg.JobTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Client{
		baseURL:    cfg.APIURL,
		username:   cfg.Username,
		password:   cfg.Password,
		filesystem: cfg.Name,
		jobTimeout: timeout,
		httpClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: transport,
		},
		logger: log,
	}
}

// CreateDirectory creates a directory at a path relative to a fileset.
// Returns ErrDirectoryExists when the directory is already there.
func (c *Client) CreateDirectory(ctx context.Context, fileset, relativePath, permissions string) error {
	path := fmt.Sprintf("/filesystems/%s/filesets/%s/directory/%s",
		url.PathEscape(c.filesystem), url.PathEscape(fileset), url.PathEscape(relativePath))
	body := map[string]any{"user": "root", "group": "root", "permissions": permissions}

	jobID, err := c.submit(ctx, http.MethodPost, path, body)
	if err != nil {
		return fmt.Errorf("failed to create directory %q under fileset %q: %w", relativePath, fileset, err)
	}
	if err := c.waitForJob(ctx, jobID); err != nil {
		if isAlreadyExists(err) {
			return ErrDirectoryExists
		}
		return fmt.Errorf("directory creation job for %q failed: %w", relativePath, err)
	}
	return nil
}

// SetACL applies an access-control profile to a path relative to a fileset.
func (c *Client) SetACL(ctx context.Context, fileset, relativePath string, acl ACL) error {
	path := fmt.Sprintf("/filesystems/%s/filesets/%s/acl/%s",
		url.PathEscape(c.filesystem), url.PathEscape(fileset), url.PathEscape(relativePath))
	body := map[string]any{
		"entries": []map[string]string{
			{"who": "special:owner@", "permissions": acl.Owner, "type": "allow"},
			{"who": "special:group@", "permissions": acl.Group, "type": "allow"},
			{"who": "special:everyone@", "permissions": acl.Other, "type": "allow"},
		},
	}

	jobID, err := c.submit(ctx, http.MethodPut, path, body)
	if err != nil {
		return fmt.Errorf("failed to set ACL on %q: %w", relativePath, err)
	}
	if err := c.waitForJob(ctx, jobID); err != nil {
		return fmt.Errorf("ACL job for %q failed: %w", relativePath, err)
	}
	return nil
}

// CreateFileset creates a fileset with owner, group, absolute path and
// permissions, parented under the faculty fileset.
func (c *Client) CreateFileset(ctx context.Context, name, owner, group, absolutePath, permissions, parentFileset string) error {
	path := fmt.Sprintf("/filesystems/%s/filesets", url.PathEscape(c.filesystem))
	body := map[string]any{
		"filesetName":   name,
		"owner":         fmt.Sprintf("%s:%s", owner, group),
		"path":          absolutePath,
		"permissions":   permissions,
		"inodeSpace":    parentFileset,
		"permissionChangeMode": "chmodAndSetAcl",
	}

	jobID, err := c.submit(ctx, http.MethodPost, path, body)
	if err != nil {
		return fmt.Errorf("failed to create fileset %q: %w", name, err)
	}
	if err := c.waitForJob(ctx, jobID); err != nil {
		return fmt.Errorf("fileset creation job for %q failed: %w", name, err)
	}
	c.logger.Infow("fileset created", "fileset", name, "path", absolutePath)
	return nil
}

// SetQuota sets the block and file-count quotas of a fileset.
func (c *Client) SetQuota(ctx context.Context, fileset, blockQuota, filesQuota string) error {
	path := fmt.Sprintf("/filesystems/%s/quotas", url.PathEscape(c.filesystem))
	body := map[string]any{
		"objectName":     fileset,
		"operationType":  "setQuota",
		"quotaType":      "FILESET",
		"blockSoftLimit": blockQuota,
		"blockHardLimit": blockQuota,
		"filesSoftLimit": filesQuota,
		"filesHardLimit": filesQuota,
	}

	jobID, err := c.submit(ctx, http.MethodPost, path, body)
	if err != nil {
		return fmt.Errorf("failed to set quota on fileset %q: %w", fileset, err)
	}
	if err := c.waitForJob(ctx, jobID); err != nil {
		return fmt.Errorf("quota job for fileset %q failed: %w", fileset, err)
	}
	return nil
}

// JobStatus polls one job by id.
func (c *Client) JobStatus(ctx context.Context, jobID int64) (JobStatus, error) {
	var out jobResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/jobs/%d", jobID), nil, &out); err != nil {
		return JobStatus{}, fmt.Errorf("failed to poll job %d: %w", jobID, err)
	}
	if len(out.Jobs) == 0 {
		return JobStatus{}, apperrors.NewExternalError(fmt.Sprintf("job %d not found in response", jobID))
	}

	job := out.Jobs[0]
	switch job.Status {
	case "COMPLETED":
		return JobStatus{State: JobCompleted}, nil
	case "FAILED":
		return JobStatus{State: JobFailed, Errors: job.Result.Stderr}, nil
	default:
		return JobStatus{State: JobPending}, nil
	}
}

// waitForJob polls a job until it completes. A job that reports failure and
// a job that never finishes within the deadline surface as distinct errors.
func (c *Client) waitForJob(ctx context.Context, jobID int64) error {
	deadline := time.Now().Add(c.jobTimeout)
	ticker := time.NewTicker(jobPollInterval)
	defer ticker.Stop()

	for {
		status, err := c.JobStatus(ctx, jobID)
		if err != nil {
			return err
		}
		switch status.State {
		case JobCompleted:
			return nil
		case JobFailed:
			return apperrors.NewExternalError(
				fmt.Sprintf("filesystem job %d failed", jobID),
				fmt.Sprintf("%v", status.Errors))
		}

		if time.Now().After(deadline) {
			return apperrors.NewTimeoutError(
				fmt.Sprintf("filesystem job %d did not finish within %s", jobID, c.jobTimeout))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// submit posts a mutating request and returns the asynchronous job id.
func (c *Client) submit(ctx context.Context, method, path string, body any) (int64, error) {
	var out jobResponse
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return 0, err
	}
	if len(out.Jobs) == 0 {
		return 0, apperrors.NewExternalError("filesystem API accepted request but returned no job")
	}
	return out.Jobs[0].JobID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewExternalError(fmt.Sprintf("filesystem request failed: %v", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return apperrors.NewExternalError(fmt.Sprintf("failed to read filesystem response: %v", err))
	}

	if resp.StatusCode >= 400 {
		var errOut jobResponse
		if json.Unmarshal(data, &errOut) == nil && errOut.Status.Message != "" {
			return apperrors.NewExternalError(
				fmt.Sprintf("filesystem returned status %d: %s", resp.StatusCode, errOut.Status.Message))
		}
		return apperrors.NewExternalError(fmt.Sprintf("filesystem returned status %d", resp.StatusCode))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return apperrors.NewExternalError(fmt.Sprintf("failed to decode filesystem response: %v", err))
		}
	}
	return nil
}

// isAlreadyExists matches the control plane's wording for a directory
// creation that hit an existing path.
func isAlreadyExists(err error) bool {
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		return false
	}
	msg := strings.ToLower(appErr.Message + " " + appErr.Details)
	return strings.Contains(msg, "file exists") || strings.Contains(msg, "already exists")
}
