package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"ragdesk/internal/gateway"
	"ragdesk/internal/models"
)

// FallbackEmbeddingModel is used when the backend lists no embedding
// models; uploads still need a model name to put on the wire and the
// backend defaults to this one anyway.
const FallbackEmbeddingModel = "mxbai-embed-large:latest"

// Settings holds the session's model selections. It is read by the ledger
// and the uploader when they issue requests but owned exclusively here.
type Settings struct {
	gw       gateway.Gateway
	logger   *zap.Logger
	classify models.Classifier

	mu               sync.Mutex
	generationModels []string
	embeddingModels  []string
	generationModel  string
	embeddingModel   string

	notifier
}

// NewSettings creates a Settings engine with the default model role
// classifier.
func NewSettings(gw gateway.Gateway, logger *zap.Logger) *Settings {
	return &Settings{
		gw:             gw,
		logger:         logger,
		classify:       models.DefaultClassifier,
		embeddingModel: FallbackEmbeddingModel,
	}
}

// SetClassifier overrides the model role heuristic. Must be called before
// Init.
func (s *Settings) SetClassifier(fn models.Classifier) {
	s.classify = fn
}

// Init fetches the model list once, partitions it by role, and picks
// defaults. An unreachable backend is not fatal: the lists stay empty and
// dependent operations refuse locally until a model is selected.
func (s *Settings) Init(ctx context.Context) {
	resp, err := s.gw.ListModels(ctx)
	if err != nil {
		s.logger.Warn("model discovery failed, no models available", zap.Error(err))
		return
	}

	generation, embedding := models.PartitionModels(resp.Models, s.classify)

	s.mu.Lock()
	s.generationModels = generation
	s.embeddingModels = embedding
	s.generationModel = models.DefaultGenerationModel(generation)
	if def := models.DefaultEmbeddingModel(embedding); def != "" {
		s.embeddingModel = def
	}
	s.mu.Unlock()

	s.logger.Info("models discovered",
		zap.Int("generation", len(generation)),
		zap.Int("embedding", len(embedding)),
		zap.String("generation_default", s.GenerationModel()),
		zap.String("embedding_default", s.EmbeddingModel()))
	s.emit()
}

// GenerationModel returns the selected generation model, or "" when none
// is available.
func (s *Settings) GenerationModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generationModel
}

// EmbeddingModel returns the selected embedding model. Never empty; falls
// back to FallbackEmbeddingModel when the backend listed none.
func (s *Settings) EmbeddingModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.embeddingModel
}

// GenerationModels returns the discovered generation models in backend
// order.
func (s *Settings) GenerationModels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.generationModels...)
}

// EmbeddingModels returns the discovered embedding models in backend order.
func (s *Settings) EmbeddingModels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.embeddingModels...)
}

// SelectGenerationModel switches the generation model. The name must come
// from the discovered generation list.
func (s *Settings) SelectGenerationModel(name string) error {
	s.mu.Lock()
	if !containsString(s.generationModels, name) {
		s.mu.Unlock()
		return fmt.Errorf("unknown generation model: %s", name)
	}
	s.generationModel = name
	s.mu.Unlock()
	s.emit()
	return nil
}

// SelectEmbeddingModel switches the embedding model. The name must come
// from the discovered embedding list.
func (s *Settings) SelectEmbeddingModel(name string) error {
	s.mu.Lock()
	if !containsString(s.embeddingModels, name) {
		s.mu.Unlock()
		return fmt.Errorf("unknown embedding model: %s", name)
	}
	s.embeddingModel = name
	s.mu.Unlock()
	s.emit()
	return nil
}

// OnChange subscribes fn to selection changes.
func (s *Settings) OnChange(fn func()) {
	s.subscribe(fn)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
