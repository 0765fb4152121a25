package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"memopilot/internal/models"
)

// MemoryAPI is the boundary to the external memory service. Results are
// opaque; errors from the service are surfaced unchanged as *UpstreamError
// with no retry and no translation.
type MemoryAPI interface {
	Search(ctx context.Context, query string, filters map[string]any, options map[string]any) (models.MemoryResult, error)
	GetAll(ctx context.Context, filters map[string]any, options map[string]any) (models.MemoryResult, error)
	Get(ctx context.Context, memoryID string, options map[string]any) (models.MemoryResult, error)
	Add(ctx context.Context, messages []map[string]any, userID string, options map[string]any) (models.MemoryResult, error)
	Delete(ctx context.Context, memoryID string, options map[string]any) (models.MemoryResult, error)
}

// UpstreamError is a non-2xx response from the memory service
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("memory service error (status %d): %s", e.StatusCode, e.Body)
}

// Mem0Client talks to a mem0-style memory service over its REST API
type Mem0Client struct {
	baseURL   string
	apiKey    string
	projectID string
	client    *http.Client
	metrics   *Metrics
}

// NewMem0Client creates a new memory service client
func NewMem0Client(baseURL, apiKey, projectID string, metrics *Metrics) *Mem0Client {
	return &Mem0Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		projectID: projectID,
		client:    &http.Client{Timeout: 30 * time.Second},
		metrics:   metrics,
	}
}

// Search runs a semantic search over the user's memories
func (m *Mem0Client) Search(ctx context.Context, query string, filters map[string]any, options map[string]any) (models.MemoryResult, error) {
	body := map[string]any{"query": query}
	if filters != nil {
		body["filters"] = filters
	}
	for k, v := range options {
		body[k] = v
	}
	return m.doJSON(ctx, "POST", "/v2/memories/search/", nil, body, "search")
}

// GetAll lists memories matching the given filters. Pagination options
// (page, page_size) travel as query parameters, everything else in the body.
func (m *Mem0Client) GetAll(ctx context.Context, filters map[string]any, options map[string]any) (models.MemoryResult, error) {
	body := map[string]any{}
	if filters != nil {
		body["filters"] = filters
	}
	params := url.Values{}
	for k, v := range options {
		if k == "page" || k == "page_size" {
			params.Set(k, fmt.Sprintf("%v", v))
			continue
		}
		body[k] = v
	}
	return m.doJSON(ctx, "POST", "/v2/memories/", params, body, "get_all")
}

// Get fetches a single memory by ID
func (m *Mem0Client) Get(ctx context.Context, memoryID string, options map[string]any) (models.MemoryResult, error) {
	return m.doJSON(ctx, "GET", "/v1/memories/"+url.PathEscape(memoryID)+"/", optionParams(options), nil, "get")
}

// Add stores new messages as memories. Never cached; the service emits a
// webhook that drives invalidation.
func (m *Mem0Client) Add(ctx context.Context, messages []map[string]any, userID string, options map[string]any) (models.MemoryResult, error) {
	body := map[string]any{
		"messages": messages,
		"user_id":  userID,
	}
	for k, v := range options {
		body[k] = v
	}
	return m.doJSON(ctx, "POST", "/v1/memories/", nil, body, "add")
}

// Delete removes a memory by ID. Same non-invalidating contract as Add.
func (m *Mem0Client) Delete(ctx context.Context, memoryID string, options map[string]any) (models.MemoryResult, error) {
	return m.doJSON(ctx, "DELETE", "/v1/memories/"+url.PathEscape(memoryID)+"/", optionParams(options), nil, "delete")
}

func optionParams(options map[string]any) url.Values {
	if len(options) == 0 {
		return nil
	}
	params := url.Values{}
	for k, v := range options {
		params.Set(k, fmt.Sprintf("%v", v))
	}
	return params
}

func (m *Mem0Client) doJSON(ctx context.Context, method, path string, params url.Values, body any, operation string) (models.MemoryResult, error) {
	start := time.Now()
	defer func() {
		m.metrics.ObserveUpstream(operation, time.Since(start))
	}()

	if params == nil {
		params = url.Values{}
	}
	if m.projectID != "" {
		params.Set("project_id", m.projectID)
	}

	reqURL := m.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+m.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("memory service request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if len(respBody) == 0 {
		return models.MemoryResult{}, nil
	}

	// The service returns either an object or a bare list; normalize lists
	// into a results envelope so callers see one shape.
	var result models.MemoryResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		var list []any
		if listErr := json.Unmarshal(respBody, &list); listErr == nil {
			return models.MemoryResult{"results": list}, nil
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return result, nil
}
