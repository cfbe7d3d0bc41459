// Package tui is the interactive coordinator: it subscribes to the session
// engines, renders their snapshots, and feeds user actions back in. All
// engine calls that touch the network run inside tea.Cmd goroutines so the
// update loop never blocks.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"ragdesk/internal/session"
)

// StateChanged is sent into the program whenever any engine reports a
// change, forcing a repaint from fresh snapshots.
type StateChanged struct{}

type initDoneMsg struct{}
type chatSettledMsg struct{ err error }
type uploadSettledMsg struct {
	filename string
	err      error
}
type registryOpMsg struct {
	action string
	name   string
	err    error
}

// App is the Bubble Tea model for the client.
type App struct {
	settings *session.Settings
	registry *session.Registry
	ledger   *session.Ledger
	uploader *session.Uploader
	logger   *zap.Logger

	input  textinput.Model
	spin   spinner.Model
	width  int
	height int

	// notice is the alert line for collection create/delete rejections and
	// local validation errors. Chat failures never land here; they live in
	// the transcript.
	notice   string
	showHelp bool
	ready    bool
}

// NewApp wires the engines into a TUI model.
func NewApp(settings *session.Settings, registry *session.Registry, ledger *session.Ledger, uploader *session.Uploader, logger *zap.Logger) *App {
	in := textinput.New()
	in.Placeholder = "Ask something about your documents... (/help for commands)"
	in.Prompt = "> "
	in.Focus()
	in.CharLimit = 0
	in.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	return &App{
		settings: settings,
		registry: registry,
		ledger:   ledger,
		uploader: uploader,
		logger:   logger,
		input:    in,
		spin:     sp,
	}
}

// Init kicks off model discovery and the first registry refresh
// concurrently.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spin.Tick, a.initCmd())
}

func (a *App) initCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		done := make(chan struct{})
		go func() {
			a.registry.Refresh(ctx)
			close(done)
		}()
		a.settings.Init(ctx)
		<-done
		return initDoneMsg{}
	}
}

// Update handles one message.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if w := msg.Width - 4; w > 10 {
			a.input.Width = w
		}
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return a, tea.Quit
		case "tab":
			a.cycleGenerationModel()
			return a, nil
		case "shift+tab":
			a.cycleEmbeddingModel()
			return a, nil
		case "enter":
			return a.handleEnter()
		}

	case StateChanged:
		return a, nil

	case initDoneMsg:
		a.ready = true
		return a, nil

	case chatSettledMsg:
		if msg.err != nil {
			a.notice = msg.err.Error()
		}
		return a, nil

	case uploadSettledMsg:
		// Outcome is reported through the uploader's status line; only a
		// local failure to even start (bad path, busy) lands in the notice.
		if msg.err != nil {
			a.logger.Warn("upload did not complete", zap.String("filename", msg.filename), zap.Error(msg.err))
		}
		return a, nil

	case registryOpMsg:
		if msg.err != nil {
			a.notice = fmt.Sprintf("%s %q failed: %s", msg.action, msg.name, errorDetail(msg.err))
		} else {
			a.notice = ""
		}
		return a, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)
	a.spin, cmd = a.spin.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a *App) handleEnter() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(a.input.Value())
	if raw == "" {
		return a, nil
	}
	a.notice = ""
	a.showHelp = false

	if strings.HasPrefix(raw, "/") {
		a.input.SetValue("")
		return a.handleCommand(raw)
	}

	if a.ledger.AwaitingResponse() {
		a.notice = "Still waiting for the previous response."
		return a, nil
	}
	if a.settings.GenerationModel() == "" {
		a.notice = "No generation model available; is the backend running?"
		return a, nil
	}

	a.input.SetValue("")
	query := raw
	return a, func() tea.Msg {
		return chatSettledMsg{err: a.ledger.Send(context.Background(), query)}
	}
}

func (a *App) handleCommand(raw string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(raw)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		a.showHelp = true
		return a, nil

	case "/quit":
		return a, tea.Quit

	case "/refresh":
		return a, func() tea.Msg {
			a.registry.Refresh(context.Background())
			return StateChanged{}
		}

	case "/filter":
		if len(args) == 0 {
			a.notice = "Usage: /filter <collection> | /filter clear"
			return a, nil
		}
		if args[0] == "clear" {
			a.registry.ClearFilter()
		} else {
			a.registry.ToggleFilter(args[0])
		}
		return a, nil

	case "/create":
		if len(args) == 0 {
			a.notice = "Usage: /create <name>"
			return a, nil
		}
		name := strings.Join(args, " ")
		return a, func() tea.Msg {
			return registryOpMsg{action: "create", name: name, err: a.registry.Create(context.Background(), name)}
		}

	case "/delete":
		if len(args) != 1 {
			a.notice = "Usage: /delete <name>"
			return a, nil
		}
		name := args[0]
		return a, func() tea.Msg {
			return registryOpMsg{action: "delete", name: name, err: a.registry.Delete(context.Background(), name)}
		}

	case "/upload":
		if len(args) == 0 {
			a.notice = "Usage: /upload <path> [collection]"
			return a, nil
		}
		path := args[0]
		target := session.TargetAuto
		if len(args) > 1 {
			target = args[1]
		}
		return a, a.uploadCmd(path, target)

	default:
		a.notice = fmt.Sprintf("Unknown command %s (try /help)", cmd)
		return a, nil
	}
}

func (a *App) uploadCmd(path, target string) tea.Cmd {
	if a.uploader.InFlight() {
		a.notice = "An upload is already in progress."
		return nil
	}
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return registryOpMsg{action: "upload", name: path, err: err}
		}
		defer f.Close()
		return uploadSettledMsg{
			filename: filepath.Base(path),
			err:      a.uploader.Upload(context.Background(), f, filepath.Base(path), target),
		}
	}
}

func (a *App) cycleGenerationModel() {
	list := a.settings.GenerationModels()
	if len(list) < 2 {
		return
	}
	next := nextInList(list, a.settings.GenerationModel())
	if err := a.settings.SelectGenerationModel(next); err != nil {
		a.logger.Warn("model selection rejected", zap.Error(err))
	}
}

func (a *App) cycleEmbeddingModel() {
	list := a.settings.EmbeddingModels()
	if len(list) < 2 {
		return
	}
	next := nextInList(list, a.settings.EmbeddingModel())
	if err := a.settings.SelectEmbeddingModel(next); err != nil {
		a.logger.Warn("model selection rejected", zap.Error(err))
	}
}

func nextInList(list []string, current string) string {
	for i, v := range list {
		if v == current {
			return list[(i+1)%len(list)]
		}
	}
	return list[0]
}
