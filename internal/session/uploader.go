package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"ragdesk/internal/gateway"
)

// TargetAuto asks the backend to route the upload by file type instead of
// an explicit collection. The field is simply omitted from the request.
const TargetAuto = "auto"

// ErrUploadInFlight rejects a second upload while one is running. The
// engine refuses rather than relying on the caller's disabled button.
var ErrUploadInFlight = errors.New("an upload is already in progress")

const (
	statusUploading = "Uploading & Embedding..."
	statusFailed    = "Upload failed"
)

// Uploader drives a single in-flight document upload and triggers a
// registry refresh when the backend acknowledges it. A failed upload does
// not mutate collection state, so no refresh happens on that path.
type Uploader struct {
	gw       gateway.Gateway
	settings *Settings
	registry *Registry
	logger   *zap.Logger

	mu         sync.Mutex
	inFlight   bool
	status     string
	clearTimer *time.Timer

	// clearDelay is how long a success message lingers before the status
	// line empties. Cosmetic only.
	clearDelay time.Duration

	notifier
}

// NewUploader creates an uploader reading the embedding model from
// settings at upload time.
func NewUploader(gw gateway.Gateway, settings *Settings, registry *Registry, logger *zap.Logger) *Uploader {
	return &Uploader{
		gw:         gw,
		settings:   settings,
		registry:   registry,
		logger:     logger,
		clearDelay: 3 * time.Second,
	}
}

// Upload sends one document and blocks until the backend has parsed,
// chunked, and embedded it. A nil file is a no-op. target may be
// TargetAuto or a collection name; unknown names are sent verbatim and the
// backend falls back to auto-routing.
func (u *Uploader) Upload(ctx context.Context, file io.Reader, filename, target string) error {
	if file == nil {
		return nil
	}

	u.mu.Lock()
	if u.inFlight {
		u.mu.Unlock()
		return ErrUploadInFlight
	}
	u.inFlight = true
	u.status = statusUploading
	if u.clearTimer != nil {
		u.clearTimer.Stop()
		u.clearTimer = nil
	}
	u.mu.Unlock()
	u.emit()

	defer func() {
		u.mu.Lock()
		u.inFlight = false
		u.mu.Unlock()
		u.emit()
	}()

	req := &gateway.UploadRequest{
		File:           file,
		Filename:       filename,
		EmbeddingModel: u.settings.EmbeddingModel(),
	}
	if target != TargetAuto && target != "" {
		req.TargetCollection = target
	}

	resp, err := u.gw.Upload(ctx, req)
	if err != nil {
		u.logger.Warn("upload failed", zap.String("filename", filename), zap.Error(err))
		u.setStatus(statusFailed)
		return err
	}

	u.logger.Info("upload processed",
		zap.String("filename", filename),
		zap.Int("chunks", resp.ChunksProcessed))
	u.setStatus("Successfully processed " + filename)
	u.registry.Refresh(ctx)
	u.scheduleStatusClear()
	return nil
}

// InFlight reports whether an upload is running.
func (u *Uploader) InFlight() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.inFlight
}

// Status returns the current transient status message, "" when idle.
func (u *Uploader) Status() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status
}

// OnChange subscribes fn to upload state changes.
func (u *Uploader) OnChange(fn func()) {
	u.subscribe(fn)
}

func (u *Uploader) setStatus(s string) {
	u.mu.Lock()
	u.status = s
	u.mu.Unlock()
	u.emit()
}

func (u *Uploader) scheduleStatusClear() {
	u.mu.Lock()
	if u.clearTimer != nil {
		u.clearTimer.Stop()
	}
	u.clearTimer = time.AfterFunc(u.clearDelay, func() {
		u.setStatus("")
	})
	u.mu.Unlock()
}
