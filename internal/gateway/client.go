package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"ragdesk/internal/models"
)

// Gateway defines the client-side view of the backend's HTTP API. It is
// pure transport plus error normalization; no operation retries.
type Gateway interface {
	ListModels(ctx context.Context) (*ModelListResponse, error)
	ListCollections(ctx context.Context) (*CollectionListResponse, error)
	CollectionStats(ctx context.Context) (models.Stats, error)
	CreateCollection(ctx context.Context, name string) (*CreateCollectionResponse, error)
	DeleteCollection(ctx context.Context, name string) error
	Upload(ctx context.Context, req *UploadRequest) (*UploadResponse, error)
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// Client talks to the backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given API base URL (including the
// /api prefix) with default settings.
func NewClient(baseURL string) *Client {
	return NewClientWithTimeout(baseURL, 120*time.Second)
}

// NewClientWithTimeout creates a client with a custom request timeout.
// Chat and upload calls block on embedding and generation, so the timeout
// needs to be generous.
func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// ============================================================================
// Request/Response Models
// ============================================================================

// ModelListResponse is the body of GET /models.
type ModelListResponse struct {
	Models []string `json:"models"`
}

// CollectionListResponse is the body of GET /collections/list.
type CollectionListResponse struct {
	Collections []models.Collection `json:"collections"`
}

// CreateCollectionRequest is the body of POST /collections/create.
type CreateCollectionRequest struct {
	Name string `json:"name"`
}

// CreateCollectionResponse acknowledges a created collection. The backend
// may have sanitized the requested name; CollectionName is authoritative.
type CreateCollectionResponse struct {
	Status         string `json:"status"`
	CollectionName string `json:"collection_name"`
}

// DeleteCollectionResponse acknowledges a deleted custom collection.
type DeleteCollectionResponse struct {
	Status  string `json:"status"`
	Deleted string `json:"deleted"`
}

// UploadRequest describes one document upload. TargetCollection empty
// means the backend auto-routes by file type.
type UploadRequest struct {
	File             io.Reader
	Filename         string
	EmbeddingModel   string
	TargetCollection string
}

// UploadResponse is the body of a successful POST /upload.
type UploadResponse struct {
	Status          string `json:"status"`
	ChunksProcessed int    `json:"chunks_processed"`
}

// ChatRequest is the body of POST /chat. A nil CollectionFilter omits the
// restriction field entirely, which the backend treats as "search all".
type ChatRequest struct {
	Query            string   `json:"query"`
	Model            string   `json:"model"`
	EmbeddingModel   string   `json:"embedding_model"`
	CollectionFilter []string `json:"collection_filter,omitempty"`
}

// ChatResponse is the body of a successful POST /chat. Context holds the
// retrieved passages that grounded the response, best match first.
type ChatResponse struct {
	Response string   `json:"response"`
	Context  []string `json:"context,omitempty"`
}

// ============================================================================
// HTTP Helper Methods
// ============================================================================

// doRequest performs a single HTTP request. Transport failures become
// KindUnreachable; there is no retry, by design callers decide their own
// policy and none of the session engines retry.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	reqURL := c.baseURL + endpoint

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindUnreachable, Err: err}
	}
	return resp, nil
}

// parseResponse decodes a JSON response body into result, converting
// non-2xx statuses into KindServerRejected with the backend's detail
// message when the body carries one.
func parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return rejectionError(resp)
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func rejectionError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)

	detail := fmt.Sprintf("request failed with status %d", resp.StatusCode)
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(bodyBytes, &body); err == nil && body.Detail != "" {
		detail = body.Detail
	}

	return &APIError{
		Kind:       KindServerRejected,
		StatusCode: resp.StatusCode,
		Detail:     detail,
	}
}

// ============================================================================
// Operations
// ============================================================================

// ListModels fetches every model name the backend's model runner exposes,
// generation and embedding mixed together.
func (c *Client) ListModels(ctx context.Context) (*ModelListResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, err
	}

	var result ModelListResponse
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListCollections fetches the full collection set, defaults and custom.
func (c *Client) ListCollections(ctx context.Context) (*CollectionListResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/collections/list", nil)
	if err != nil {
		return nil, err
	}

	var result CollectionListResponse
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CollectionStats fetches per-collection document counts plus a "total" key.
func (c *Client) CollectionStats(ctx context.Context) (models.Stats, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/collections/stats", nil)
	if err != nil {
		return nil, err
	}

	var result models.Stats
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateCollection asks the backend to create a custom collection.
func (c *Client) CreateCollection(ctx context.Context, name string) (*CreateCollectionResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/collections/create", &CreateCollectionRequest{Name: name})
	if err != nil {
		return nil, err
	}

	var result CreateCollectionResponse
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteCollection asks the backend to drop a custom collection. Default
// collections cannot be deleted; the backend rejects the attempt.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	endpoint := "/collections/custom/" + url.PathEscape(name)
	resp, err := c.doRequest(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}

	var result DeleteCollectionResponse
	return parseResponse(resp, &result)
}

// Upload sends one document as multipart form data. A failed upload leaves
// server-side collection state untouched; there is no partial success.
func (c *Client) Upload(ctx context.Context, uploadReq *UploadRequest) (*UploadResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", uploadReq.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, uploadReq.File); err != nil {
		return nil, fmt.Errorf("failed to write file data: %w", err)
	}

	if err := writer.WriteField("embedding_model", uploadReq.EmbeddingModel); err != nil {
		return nil, err
	}
	if uploadReq.TargetCollection != "" {
		if err := writer.WriteField("target_collection", uploadReq.TargetCollection); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindUnreachable, Err: err}
	}

	var result UploadResponse
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Chat submits one query and blocks until the backend has retrieved
// context and generated an answer.
func (c *Client) Chat(ctx context.Context, chatReq *ChatRequest) (*ChatResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/chat", chatReq)
	if err != nil {
		return nil, err
	}

	var result ChatResponse
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
