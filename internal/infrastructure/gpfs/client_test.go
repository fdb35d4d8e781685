package gpfs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "allocmgr/internal/shared/errors"
	"allocmgr/internal/shared/logger"
)

// jobServer submits every mutating request as job 7 and answers polls with
// the configured status/stderr.
func jobServer(t *testing.T, jobStatus string, stderr []string) *Client {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/7", func(w http.ResponseWriter, r *http.Request) {
		writeJobs(w, map[string]any{
			"jobId":  7,
			"status": jobStatus,
			"result": map[string]any{"stderr": stderr},
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJobs(w, map[string]any{"jobId": 7, "status": "RUNNING"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &Client{
		baseURL:    srv.URL,
		filesystem: "gpfs0",
		jobTimeout: time.Second,
		httpClient: srv.Client(),
		logger:     logger.NewLogger(),
	}
}

func writeJobs(w http.ResponseWriter, jobs ...map[string]any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"jobs": jobs})
}

func TestClient_JobCompleted(t *testing.T) {
	client := jobServer(t, "COMPLETED", nil)

	err := client.SetQuota(context.Background(), "rdf-genome", "10T", "1000000")
	require.NoError(t, err)
}

func TestClient_JobFailed(t *testing.T) {
	client := jobServer(t, "FAILED", []string{"mmcrfileset: permission denied"})

	err := client.CreateFileset(context.Background(), "rdf-genome", "jdoe", "rdf-genome",
		"/gpfs0/top/sci/rdf-genome", "2770", "sci")
	require.Error(t, err)
	assert.True(t, apperrors.IsExternalError(err))

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Contains(t, appErr.Details, "permission denied")
}

func TestClient_JobTimeout(t *testing.T) {
	client := jobServer(t, "RUNNING", nil)

	err := client.SetQuota(context.Background(), "rdf-genome", "10T", "1000000")
	require.Error(t, err)
	assert.True(t, apperrors.IsTimeoutError(err))
	assert.False(t, apperrors.IsExternalError(err))
}

func TestClient_CreateDirectoryAlreadyExists(t *testing.T) {
	client := jobServer(t, "FAILED", []string{"mkdir: cannot create directory: File exists"})

	err := client.CreateDirectory(context.Background(), "sci", "compsci", "0755")
	assert.True(t, errors.Is(err, ErrDirectoryExists))
}

func TestClient_HTTPErrorSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": map[string]any{"code": 401, "message": "invalid credentials"},
		})
	}))
	t.Cleanup(srv.Close)

	client := &Client{
		baseURL:    srv.URL,
		filesystem: "gpfs0",
		jobTimeout: time.Second,
		httpClient: srv.Client(),
		logger:     logger.NewLogger(),
	}

	err := client.SetQuota(context.Background(), "rdf-genome", "10T", "1000000")
	require.Error(t, err)
	assert.True(t, apperrors.IsExternalError(err))
	assert.True(t, strings.Contains(apperrors.GetAppError(err).Message, "invalid credentials"))
}
