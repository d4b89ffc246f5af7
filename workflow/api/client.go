package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Client talks to the Virtool jobs API. Credentials are held per job,
// so one client can serve concurrent job runs.
type Client struct {
	baseURL string
	http    *http.Client

	mu sync.RWMutex
	// keys maps a job ID to the API key granted when it was acquired.
	keys map[string]string
}

// NewClient creates a client for the jobs API at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		keys: make(map[string]string),
	}
}

// SetAuth records the API key used for requests made on behalf of the job.
func (c *Client) SetAuth(jobID, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[jobID] = key
}

func (c *Client) authKey(jobID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.keys[jobID]
	return key, ok
}

// newRequest builds a request signed with the job's credentials when the
// job has been acquired.
func (c *Client) newRequest(ctx context.Context, method, path, jobID string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if key, ok := c.authKey(jobID); ok {
		req.SetBasicAuth("job-"+jobID, key)
	}
	return req, nil
}

// doJSON sends the request and decodes a JSON response into out.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("jobs api request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read jobs api response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp, body)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ServerError{StatusCode: resp.StatusCode, Message: "response is not valid JSON"}
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, method, path, jobID string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := c.newRequest(ctx, method, path, jobID, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doJSON(req, out)
}

// AcquireJob acquires the job, marking it as running under this client.
// The returned job carries the API key used for all further requests on
// its behalf; the client stores it keyed by the job's ID.
func (c *Client) AcquireJob(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	err := c.postJSON(ctx, http.MethodPatch, "/jobs/"+url.PathEscape(jobID), jobID, map[string]any{
		"acquired": true,
	}, &job)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire job %s: %w", jobID, err)
	}

	c.SetAuth(job.ID, job.Key)
	return &job, nil
}

// PushStatus appends a status entry to the job's history.
func (c *Client) PushStatus(ctx context.Context, jobID string, status JobStatus) (*JobStatus, error) {
	var pushed JobStatus
	err := c.postJSON(ctx, http.MethodPost, "/jobs/"+url.PathEscape(jobID)+"/status", jobID, status, &pushed)
	if err != nil {
		return nil, fmt.Errorf("failed to push status for job %s: %w", jobID, err)
	}
	return &pushed, nil
}

// GetAnalysis fetches an analysis by ID on behalf of the job.
func (c *Client) GetAnalysis(ctx context.Context, jobID, analysisID string) (*Analysis, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/analyses/"+url.PathEscape(analysisID), jobID, nil)
	if err != nil {
		return nil, err
	}

	var analysis Analysis
	if err := c.doJSON(req, &analysis); err != nil {
		return nil, fmt.Errorf("failed to get analysis %s: %w", analysisID, err)
	}
	return &analysis, nil
}

// UploadAnalysisFile uploads a file and attaches it to the analysis.
func (c *Client) UploadAnalysisFile(ctx context.Context, jobID, analysisID, name, format string, r io.Reader) (*AnalysisFile, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("name", filepath.Base(name))
	query.Set("format", format)

	path := "/analyses/" + url.PathEscape(analysisID) + "/files?" + query.Encode()
	req, err := c.newRequest(ctx, http.MethodPost, path, jobID, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var file AnalysisFile
	if err := c.doJSON(req, &file); err != nil {
		return nil, fmt.Errorf("failed to upload file to analysis %s: %w", analysisID, err)
	}
	return &file, nil
}

// DeleteAnalysis removes an unfinalized analysis.
func (c *Client) DeleteAnalysis(ctx context.Context, jobID, analysisID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/analyses/"+url.PathEscape(analysisID), jobID, nil)
	if err != nil {
		return err
	}

	if err := c.doJSON(req, nil); err != nil {
		return fmt.Errorf("failed to delete analysis %s: %w", analysisID, err)
	}
	return nil
}
