package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragdesk/internal/models"
)

// ============================================================================
// Test Setup
// ============================================================================

// captured holds what the test server saw for wire-format assertions.
type captured struct {
	method string
	path   string
	header http.Header
	body   []byte
}

func newCapturingServer(t *testing.T, status int, responseBody string) (*httptest.Server, *captured) {
	seen := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.method = r.Method
		seen.path = r.URL.Path
		seen.header = r.Header.Clone()
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen.body = body

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(responseBody))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

// ============================================================================
// Tests
// ============================================================================

func TestListModels(t *testing.T) {
	srv, seen := newCapturingServer(t, http.StatusOK, `{"models":["llama3:8b","mxbai-embed-large:latest"]}`)
	client := NewClient(srv.URL)

	resp, err := client.ListModels(context.Background())

	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, seen.method)
	assert.Equal(t, "/models", seen.path)
	assert.Equal(t, []string{"llama3:8b", "mxbai-embed-large:latest"}, resp.Models)
}

func TestListCollections(t *testing.T) {
	srv, seen := newCapturingServer(t, http.StatusOK,
		`{"collections":[{"name":"pdf","count":2,"is_default":true},{"name":"research","count":0,"is_default":false}]}`)
	client := NewClient(srv.URL)

	resp, err := client.ListCollections(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/collections/list", seen.path)
	require.Len(t, resp.Collections, 2)
	assert.Equal(t, models.Collection{Name: "pdf", Count: 2, IsDefault: true}, resp.Collections[0])
	assert.False(t, resp.Collections[1].IsDefault)
}

func TestCollectionStats(t *testing.T) {
	srv, seen := newCapturingServer(t, http.StatusOK, `{"pdf":2,"research":3,"total":5}`)
	client := NewClient(srv.URL)

	stats, err := client.CollectionStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/collections/stats", seen.path)
	assert.Equal(t, 5, stats.Total())
	assert.Equal(t, 3, stats.CountFor("research"))
}

func TestCreateCollectionSendsJSONName(t *testing.T) {
	srv, seen := newCapturingServer(t, http.StatusOK, `{"status":"success","collection_name":"my_notes"}`)
	client := NewClient(srv.URL)

	resp, err := client.CreateCollection(context.Background(), "My Notes")

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, seen.method)
	assert.Equal(t, "/collections/create", seen.path)
	assert.Equal(t, "application/json", seen.header.Get("Content-Type"))
	assert.JSONEq(t, `{"name":"My Notes"}`, string(seen.body))
	assert.Equal(t, "my_notes", resp.CollectionName, "sanitized server name is authoritative")
}

func TestDeleteCollectionEscapesName(t *testing.T) {
	srv, seen := newCapturingServer(t, http.StatusOK, `{"status":"success","deleted":"my notes"}`)
	client := NewClient(srv.URL)

	err := client.DeleteCollection(context.Background(), "my notes")

	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, seen.method)
	// r.URL.Path is the decoded form; the name went out escaped.
	assert.Equal(t, "/collections/custom/my notes", seen.path)
}

func TestChatRequestWireFormat(t *testing.T) {
	srv, seen := newCapturingServer(t, http.StatusOK, `{"response":"answer","context":["passage one"]}`)
	client := NewClient(srv.URL)

	resp, err := client.Chat(context.Background(), &ChatRequest{
		Query:            "what is X?",
		Model:            "llama3:8b",
		EmbeddingModel:   "mxbai-embed-large:latest",
		CollectionFilter: []string{"pdf", "research"},
	})

	require.NoError(t, err)
	assert.Equal(t, "/chat", seen.path)
	assert.JSONEq(t,
		`{"query":"what is X?","model":"llama3:8b","embedding_model":"mxbai-embed-large:latest","collection_filter":["pdf","research"]}`,
		string(seen.body))
	assert.Equal(t, "answer", resp.Response)
	assert.Equal(t, []string{"passage one"}, resp.Context)
}

func TestChatOmitsNilCollectionFilter(t *testing.T) {
	srv, seen := newCapturingServer(t, http.StatusOK, `{"response":"answer"}`)
	client := NewClient(srv.URL)

	_, err := client.Chat(context.Background(), &ChatRequest{
		Query:          "what is X?",
		Model:          "llama3:8b",
		EmbeddingModel: "mxbai-embed-large:latest",
	})

	require.NoError(t, err)
	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(seen.body, &wire))
	_, present := wire["collection_filter"]
	assert.False(t, present, "nil filter must leave the field off the wire entirely")
}

func TestUploadMultipartFields(t *testing.T) {
	srv, seen := newCapturingServer(t, http.StatusOK, `{"status":"success","chunks_processed":3}`)
	client := NewClient(srv.URL)

	resp, err := client.Upload(context.Background(), &UploadRequest{
		File:             strings.NewReader("file contents"),
		Filename:         "report.pdf",
		EmbeddingModel:   "mxbai-embed-large:latest",
		TargetCollection: "research",
	})

	require.NoError(t, err)
	assert.Equal(t, "/upload", seen.path)
	assert.Contains(t, seen.header.Get("Content-Type"), "multipart/form-data")
	assert.Equal(t, 3, resp.ChunksProcessed)

	body := string(seen.body)
	assert.Contains(t, body, `name="file"; filename="report.pdf"`)
	assert.Contains(t, body, "file contents")
	assert.Contains(t, body, `name="embedding_model"`)
	assert.Contains(t, body, "mxbai-embed-large:latest")
	assert.Contains(t, body, `name="target_collection"`)
	assert.Contains(t, body, "research")
}

func TestUploadOmitsEmptyTargetCollection(t *testing.T) {
	srv, seen := newCapturingServer(t, http.StatusOK, `{"status":"success","chunks_processed":1}`)
	client := NewClient(srv.URL)

	_, err := client.Upload(context.Background(), &UploadRequest{
		File:           strings.NewReader("file contents"),
		Filename:       "report.pdf",
		EmbeddingModel: "mxbai-embed-large:latest",
	})

	require.NoError(t, err)
	assert.NotContains(t, string(seen.body), "target_collection",
		"auto-routed uploads must not send the field at all")
}

func TestServerRejectionCarriesDetail(t *testing.T) {
	srv, _ := newCapturingServer(t, http.StatusBadRequest, `{"detail":"Collection already exists"}`)
	client := NewClient(srv.URL)

	_, err := client.CreateCollection(context.Background(), "research")

	require.Error(t, err)
	assert.True(t, IsServerRejected(err))
	assert.False(t, IsUnreachable(err))
	assert.Equal(t, "Collection already exists", Detail(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestRejectionWithoutDetailGetsGenericMessage(t *testing.T) {
	srv, _ := newCapturingServer(t, http.StatusInternalServerError, `boom`)
	client := NewClient(srv.URL)

	_, err := client.ListModels(context.Background())

	require.Error(t, err)
	assert.True(t, IsServerRejected(err))
	assert.Equal(t, "request failed with status 500", Detail(err))
}

func TestUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	client := NewClient(srv.URL)

	_, err := client.ListModels(context.Background())

	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
	assert.Empty(t, Detail(err))
}

func TestNoRetryOnFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL)

	_, err := client.ListModels(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, calls, "a rejected request must not be retried")
}
