// Package directory implements the group-membership directory service
// client. Group create/delete and member add/remove carry idempotency flags
// so callers can treat "already there" and "already gone" as success.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"allocmgr/internal/shared/config"
	apperrors "allocmgr/internal/shared/errors"
	"allocmgr/internal/shared/logger"
)

const (
	requestTimeout  = 30 * time.Second
	maxResponseSize = 1 << 20

	// Service error codes. AddMember on an existing member reports
	// entity-already-exists; RemoveMember on a missing member reports
	// will-not-perform.
	errorCodeEntityAlreadyExists = "EntityAlreadyExists"
	errorCodeWillNotPerform      = "WillNotPerform"
)

// UserProfile is the directory's record of one user.
type UserProfile struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	UserType     string `json:"user_type"`
	RecordStatus string `json:"record_status"`
}

// Eligible reports whether the user may be added to research group
// allocations. Only live institutional members with a complete profile
// qualify; guest and deactivated records are rejected at invite time.
func (p UserProfile) Eligible() bool {
	if p.Username == "" || p.Email == "" || p.Name == "" {
		return false
	}
	return p.UserType == "Member" && p.RecordStatus == "Live"
}

type serviceError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to the directory service REST API using OAuth2 client
// credentials.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Interface
}

func NewClient(cfg *config.DirectoryConfig, log logger.Interface) *Client {
	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	httpClient := creds.Client(context.Background())
	httpClient.Timeout = requestTimeout

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     log,
	}
}

// CreateGroup creates a directory group with the given name and numeric id.
func (c *Client) CreateGroup(ctx context.Context, name string, gid int) error {
	body := map[string]any{"name": name, "gid": gid}
	if err := c.do(ctx, http.MethodPost, "/groups", body, nil); err != nil {
		return fmt.Errorf("failed to create directory group %q: %w", name, err)
	}
	c.logger.Infow("directory group created", "group", name, "gid", gid)
	return nil
}

// DeleteGroup deletes a directory group. When allowMissing is set, a group
// that is already absent counts as success.
func (c *Client) DeleteGroup(ctx context.Context, name string, allowMissing bool) error {
	err := c.do(ctx, http.MethodDelete, "/groups/"+url.PathEscape(name), nil, nil)
	if err != nil {
		if allowMissing && apperrors.IsNotFoundError(err) {
			c.logger.Debugw("directory group already absent", "group", name)
			return nil
		}
		return fmt.Errorf("failed to delete directory group %q: %w", name, err)
	}
	c.logger.Infow("directory group deleted", "group", name)
	return nil
}

// AddMember adds a user to a group. When allowAlreadyPresent is set, an
// existing membership counts as success.
func (c *Client) AddMember(ctx context.Context, group, username string, allowAlreadyPresent bool) error {
	body := map[string]any{"username": username}
	err := c.do(ctx, http.MethodPost, "/groups/"+url.PathEscape(group)+"/members", body, nil)
	if err != nil {
		if allowAlreadyPresent && isServiceCode(err, errorCodeEntityAlreadyExists) {
			c.logger.Debugw("user already in directory group", "group", group, "username", username)
			return nil
		}
		return fmt.Errorf("failed to add %q to directory group %q: %w", username, group, err)
	}
	return nil
}

// RemoveMember removes a user from a group. When allowMissing is set, an
// absent membership counts as success.
func (c *Client) RemoveMember(ctx context.Context, group, username string, allowMissing bool) error {
	path := "/groups/" + url.PathEscape(group) + "/members/" + url.PathEscape(username)
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		if allowMissing && (isServiceCode(err, errorCodeWillNotPerform) || apperrors.IsNotFoundError(err)) {
			c.logger.Debugw("user already absent from directory group", "group", group, "username", username)
			return nil
		}
		return fmt.Errorf("failed to remove %q from directory group %q: %w", username, group, err)
	}
	return nil
}

// GroupMembers returns the usernames currently in a group.
func (c *Client) GroupMembers(ctx context.Context, group string) ([]string, error) {
	var out struct {
		Members []string `json:"members"`
	}
	if err := c.do(ctx, http.MethodGet, "/groups/"+url.PathEscape(group)+"/members", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list members of directory group %q: %w", group, err)
	}
	return out.Members, nil
}

// SearchUser resolves an identifying string to exactly one user profile.
// Zero or multiple matches are errors.
func (c *Client) SearchUser(ctx context.Context, query string) (*UserProfile, error) {
	var out struct {
		Users []UserProfile `json:"users"`
	}
	path := "/users?search=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to search directory for %q: %w", query, err)
	}

	switch len(out.Users) {
	case 0:
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no directory user matches %q", query))
	case 1:
		return &out.Users[0], nil
	default:
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("directory search for %q matched %d users, expected exactly one", query, len(out.Users)))
	}
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
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewExternalError(fmt.Sprintf("directory request failed: %v", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return apperrors.NewExternalError(fmt.Sprintf("failed to read directory response: %v", err))
	}

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.NewNotFoundError(serviceMessage(data, "directory resource not found"))
	}
	if resp.StatusCode >= 400 {
		var svcErr serviceError
		if json.Unmarshal(data, &svcErr) == nil && svcErr.Error.Code != "" {
			return apperrors.NewExternalError(
				fmt.Sprintf("directory error %s: %s", svcErr.Error.Code, svcErr.Error.Message),
				svcErr.Error.Code)
		}
		return apperrors.NewExternalError(fmt.Sprintf("directory returned status %d", resp.StatusCode))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return apperrors.NewExternalError(fmt.Sprintf("failed to decode directory response: %v", err))
		}
	}
	return nil
}

func serviceMessage(data []byte, fallback string) string {
	var svcErr serviceError
	if json.Unmarshal(data, &svcErr) == nil && svcErr.Error.Message != "" {
		return svcErr.Error.Message
	}
	return fallback
}

// isServiceCode reports whether err is an external error carrying the given
// service error code in its details.
func isServiceCode(err error, code string) bool {
	appErr := apperrors.GetAppError(err)
	return appErr != nil && appErr.Details == code
}
