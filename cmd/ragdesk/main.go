package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"ragdesk/internal/config"
	"ragdesk/internal/gateway"
	"ragdesk/internal/logging"
	"ragdesk/internal/session"
	"ragdesk/internal/tui"
)

func main() {
	cfg := config.Load()
	logger := logging.NewFileLogger(cfg.LogFilePath, cfg.Environment == "development")
	defer logger.Sync()

	logger.Info("starting ragdesk",
		zap.String("api_url", cfg.APIBaseURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout))

	gw := gateway.NewClientWithTimeout(cfg.APIBaseURL, cfg.HTTPTimeout)
	settings := session.NewSettings(gw, logger)
	registry := session.NewRegistry(gw, logger)
	ledger := session.NewLedger(gw, settings, registry, logger)
	uploader := session.NewUploader(gw, settings, registry, logger)

	app := tui.NewApp(settings, registry, ledger, uploader, logger)
	p := tea.NewProgram(app, tea.WithAltScreen())

	// Engines notify on their own goroutines; funnel every change into the
	// program loop as a repaint message.
	repaint := func() { p.Send(tui.StateChanged{}) }
	settings.OnChange(repaint)
	registry.OnChange(repaint)
	ledger.OnChange(repaint)
	uploader.OnChange(repaint)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "ragdesk: %v\n", err)
		os.Exit(1)
	}
}
