package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"ragdesk/internal/gateway"
	"ragdesk/internal/models"
)

// SentinelChatError is the assistant turn content appended when a chat
// request fails. Chat failures are absorbed into the transcript, never
// surfaced through a separate error channel.
const SentinelChatError = "Error: Could not get response."

var (
	// ErrBlankQuery rejects empty or whitespace-only queries.
	ErrBlankQuery = errors.New("query is blank")
	// ErrNoGenerationModel rejects sends while no generation model is
	// selected.
	ErrNoGenerationModel = errors.New("no generation model selected")
	// ErrAwaitingResponse rejects a send while a previous one is still in
	// flight. One outstanding chat request at a time.
	ErrAwaitingResponse = errors.New("a response is already pending")
)

// Ledger is the append-only conversation transcript. The user turn for a
// send is committed synchronously before the network call; the assistant
// turn is appended when the call settles, success or sentinel error.
// Committed turns are never mutated.
type Ledger struct {
	gw       gateway.Gateway
	settings *Settings
	registry *Registry
	logger   *zap.Logger

	mu       sync.Mutex
	turns    []models.Turn
	awaiting bool

	notifier
}

// NewLedger creates a ledger reading model selections from settings and
// the filter snapshot from registry at send time.
func NewLedger(gw gateway.Gateway, settings *Settings, registry *Registry, logger *zap.Logger) *Ledger {
	return &Ledger{
		gw:       gw,
		settings: settings,
		registry: registry,
		logger:   logger,
	}
}

// Send submits one conversational exchange and blocks until it settles.
// The returned error is always a local-validation rejection (blank query,
// no model, send already pending); network and server failures are
// recorded in the transcript as a sentinel assistant turn and Send still
// returns nil for them.
func (l *Ledger) Send(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return ErrBlankQuery
	}

	model := l.settings.GenerationModel()
	if model == "" {
		return ErrNoGenerationModel
	}

	l.mu.Lock()
	if l.awaiting {
		l.mu.Unlock()
		return ErrAwaitingResponse
	}
	// The user turn commits before any network I/O so the transcript shows
	// it instantly regardless of backend latency.
	l.turns = append(l.turns, models.Turn{Role: models.TurnUser, Content: query})
	l.awaiting = true
	l.mu.Unlock()
	l.emit()

	defer func() {
		l.mu.Lock()
		l.awaiting = false
		l.mu.Unlock()
		l.emit()
	}()

	req := &gateway.ChatRequest{
		Query:            query,
		Model:            model,
		EmbeddingModel:   l.settings.EmbeddingModel(),
		CollectionFilter: l.registry.FilterSnapshot(),
	}

	resp, err := l.gw.Chat(ctx, req)

	l.mu.Lock()
	if err != nil {
		l.logger.Warn("chat request failed", zap.String("model", model), zap.Error(err))
		l.turns = append(l.turns, models.Turn{Role: models.TurnAssistant, Content: SentinelChatError})
	} else {
		l.turns = append(l.turns, models.Turn{
			Role:    models.TurnAssistant,
			Content: resp.Response,
			Context: resp.Context,
		})
	}
	l.mu.Unlock()

	return nil
}

// Turns returns a copy of the transcript in order.
func (l *Ledger) Turns() []models.Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Turn(nil), l.turns...)
}

// AwaitingResponse reports whether a chat request is outstanding. The UI
// disables further sends while true; Send enforces it regardless.
func (l *Ledger) AwaitingResponse() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.awaiting
}

// OnChange subscribes fn to transcript changes.
func (l *Ledger) OnChange(fn func()) {
	l.subscribe(fn)
}
