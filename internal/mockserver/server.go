// Package mockserver is an in-memory stand-in for the RAG backend. It
// implements the seven API endpoints with the real backend's visible
// semantics (default collections, name sanitization, auto-routing, chat
// context) so the client can be developed and demoed without MongoDB or
// Ollama running.
package mockserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"ragdesk/internal/models"
)

// Server holds the in-memory document store behind the stub endpoints.
type Server struct {
	logger *zap.Logger

	mu          sync.Mutex
	modelNames  []string
	collections map[string]*collection
}

type collection struct {
	isDefault bool
	chunks    []chunk
}

type chunk struct {
	filename string
	text     string
}

// New creates a stub server advertising the given model names, with the
// default collections pre-seeded and empty.
func New(modelNames []string, logger *zap.Logger) *Server {
	s := &Server{
		logger:      logger,
		modelNames:  modelNames,
		collections: make(map[string]*collection),
	}
	for _, name := range models.DefaultCollectionNames {
		s.collections[name] = &collection{isDefault: true}
	}
	return s
}

// Handler returns the routed HTTP handler for the stub API.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/models", s.handleModels).Methods(http.MethodGet)
	api.HandleFunc("/collections/list", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/collections/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/collections/create", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/collections/custom/{name}", s.handleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	return r
}

// ============================================================================
// Handlers
// ============================================================================

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	names := append([]string(nil), s.modelNames...)
	s.mu.Unlock()
	s.sendJSON(w, http.StatusOK, map[string]interface{}{"models": names})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]models.Collection, 0, len(s.collections))
	// Defaults first in their canonical order, then customs.
	for _, name := range models.DefaultCollectionNames {
		if coll, ok := s.collections[name]; ok {
			out = append(out, models.Collection{Name: name, Count: len(coll.chunks), IsDefault: true})
		}
	}
	for name, coll := range s.collections {
		if !coll.isDefault {
			out = append(out, models.Collection{Name: name, Count: len(coll.chunks)})
		}
	}
	s.mu.Unlock()
	s.sendJSON(w, http.StatusOK, map[string]interface{}{"collections": out})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stats := make(models.Stats, len(s.collections)+1)
	total := 0
	for name, coll := range s.collections {
		stats[name] = len(coll.chunks)
		total += len(coll.chunks)
	}
	stats["total"] = total
	s.mu.Unlock()
	s.sendJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.sendDetail(w, http.StatusBadRequest, "Collection name cannot be empty")
		return
	}

	name := SanitizeName(req.Name)

	s.mu.Lock()
	if _, exists := s.collections[name]; exists {
		s.mu.Unlock()
		s.sendDetail(w, http.StatusBadRequest, "Collection already exists")
		return
	}
	s.collections[name] = &collection{}
	s.mu.Unlock()

	s.logger.Info("collection created", zap.String("name", name))
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "success",
		"collection_name": name,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if models.IsDefaultCollection(name) {
		s.sendDetail(w, http.StatusBadRequest, "Cannot delete default collections")
		return
	}

	s.mu.Lock()
	if _, exists := s.collections[name]; !exists {
		s.mu.Unlock()
		s.sendDetail(w, http.StatusNotFound, "Collection not found")
		return
	}
	delete(s.collections, name)
	s.mu.Unlock()

	s.logger.Info("collection deleted", zap.String("name", name))
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"deleted": name,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.sendDetail(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.sendDetail(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.sendDetail(w, http.StatusInternalServerError, "Upload failed: could not read file")
		return
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		s.sendDetail(w, http.StatusBadRequest, "File is empty or could not be read")
		return
	}

	target := r.FormValue("target_collection")

	s.mu.Lock()
	coll, ok := s.collections[target]
	if target == "" || !ok {
		// Unknown or absent target falls back to type-based routing.
		coll = s.collections[CollectionForFile(header.Filename)]
	}
	added := splitChunks(string(data), 1000)
	for _, text := range added {
		coll.chunks = append(coll.chunks, chunk{filename: header.Filename, text: text})
	}
	s.mu.Unlock()

	s.logger.Info("upload processed",
		zap.String("filename", header.Filename),
		zap.String("target", target))
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "success",
		"chunks_processed": len(added),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query            string   `json:"query"`
		Model            string   `json:"model"`
		EmbeddingModel   string   `json:"embedding_model"`
		CollectionFilter []string `json:"collection_filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	var searched []*collection
	if len(req.CollectionFilter) > 0 {
		for _, name := range req.CollectionFilter {
			if coll, ok := s.collections[name]; ok {
				searched = append(searched, coll)
			}
		}
	} else {
		for _, coll := range s.collections {
			searched = append(searched, coll)
		}
	}

	var context []string
	for _, coll := range searched {
		for _, ch := range coll.chunks {
			context = append(context, ch.text)
			if len(context) == 5 {
				break
			}
		}
		if len(context) == 5 {
			break
		}
	}
	s.mu.Unlock()

	response := fmt.Sprintf("[%s] Based on %d retrieved passage(s): this is a stubbed answer to %q.",
		req.Model, len(context), req.Query)
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"response": response,
		"context":  context,
	})
}

// ============================================================================
// Helpers
// ============================================================================

// SanitizeName lowercases a requested collection name and replaces every
// character that is not a letter, digit, or underscore with an underscore,
// matching the backend's behavior.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, ch := range strings.TrimSpace(name) {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '_':
			b.WriteRune(ch)
		case ch >= 'A' && ch <= 'Z':
			b.WriteRune(ch + ('a' - 'A'))
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// CollectionForFile maps a filename to its default type bucket.
func CollectionForFile(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "pdf"
	case ".txt", ".md", ".markdown":
		return "text"
	case ".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".cpp", ".c", ".h",
		".cs", ".go", ".rs", ".rb", ".php", ".json", ".xml", ".yaml", ".yml",
		".html", ".css":
		return "code"
	case ".docx", ".doc", ".xlsx", ".xls":
		return "office"
	default:
		return "other"
	}
}

func splitChunks(text string, size int) []string {
	var out []string
	for len(text) > size {
		out = append(out, text[:size])
		text = text[size:]
	}
	if len(text) > 0 {
		out = append(out, text)
	}
	return out
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

// sendDetail mirrors the backend's error body shape.
func (s *Server) sendDetail(w http.ResponseWriter, status int, detail string) {
	s.sendJSON(w, status, map[string]string{"detail": detail})
}
