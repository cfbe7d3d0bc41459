package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ragdesk/internal/gateway"
	"ragdesk/internal/models"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	userStyle      = lipgloss.NewStyle().Bold(true)
	botStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	contextStyle   = lipgloss.NewStyle().Faint(true)
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	filteredStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	helpStyle      = lipgloss.NewStyle().Faint(true)
	contextPreview = 150
)

// View renders the whole screen from engine snapshots.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ragdesk") + "\n\n")

	b.WriteString(labelStyle.Render("Generation:") + " " + orNone(a.settings.GenerationModel()))
	b.WriteString("   " + labelStyle.Render("Embedding:") + " " + orNone(a.settings.EmbeddingModel()))
	b.WriteString("\n")
	b.WriteString(a.renderCollections())
	b.WriteString("\n")

	if status := a.uploader.Status(); status != "" {
		if a.uploader.InFlight() {
			b.WriteString(a.spin.View() + " " + status + "\n")
		} else {
			b.WriteString(statusStyle.Render(status) + "\n")
		}
	}
	if a.notice != "" {
		b.WriteString(noticeStyle.Render(a.notice) + "\n")
	}
	b.WriteString("\n")

	turns := a.ledger.Turns()
	if len(turns) == 0 && !a.ledger.AwaitingResponse() {
		b.WriteString(helpStyle.Render("Ready to chat with your documents.") + "\n")
	}
	for _, turn := range turns {
		b.WriteString(a.renderTurn(turn))
	}
	if a.ledger.AwaitingResponse() {
		b.WriteString(botStyle.Render("ragdesk:") + " " + a.spin.View() + "Thinking...\n")
	}
	b.WriteString("\n")

	if a.showHelp {
		b.WriteString(a.renderHelp())
	}

	b.WriteString(a.input.View() + "\n")
	b.WriteString(helpStyle.Render("enter send · tab/shift+tab cycle models · /help commands · esc quit"))
	return b.String()
}

func (a *App) renderTurn(turn models.Turn) string {
	var b strings.Builder
	if turn.Role == models.TurnUser {
		b.WriteString(userStyle.Render("You:") + " " + turn.Content + "\n\n")
		return b.String()
	}

	b.WriteString(botStyle.Render("ragdesk:") + " " + turn.Content + "\n")
	if len(turn.Context) > 0 {
		b.WriteString(contextStyle.Render(fmt.Sprintf("  sources (%d):", len(turn.Context))) + "\n")
		for i, passage := range turn.Context {
			b.WriteString(contextStyle.Render(fmt.Sprintf("  [%d] %s", i+1, truncate(passage, contextPreview))) + "\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

func (a *App) renderCollections() string {
	var parts []string
	stats := a.registry.Stats()
	for _, coll := range a.registry.Collections() {
		count := coll.Count
		if stats != nil {
			count = stats.CountFor(coll.Name)
		}
		entry := fmt.Sprintf("%s(%d)", coll.Name, count)
		if a.registry.FilterHas(coll.Name) {
			parts = append(parts, filteredStyle.Render("["+entry+"]"))
		} else {
			parts = append(parts, entry)
		}
	}
	line := labelStyle.Render("Collections:") + " " + strings.Join(parts, " ")
	if len(a.registry.FilterSnapshot()) == 0 {
		line += helpStyle.Render("  (searching all)")
	}
	return line + "\n"
}

func (a *App) renderHelp() string {
	help := []string{
		"/upload <path> [collection]  upload a document (auto-routed when no collection given)",
		"/create <name>               create a custom collection",
		"/delete <name>               delete a custom collection",
		"/filter <collection>         toggle a collection in the search filter",
		"/filter clear                search all collections again",
		"/refresh                     re-fetch collections and stats",
		"/quit                        exit",
	}
	return helpStyle.Render(strings.Join(help, "\n")) + "\n\n"
}

func orNone(s string) string {
	if s == "" {
		return noticeStyle.Render("none")
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// errorDetail prefers the server's own message when the error carries one.
func errorDetail(err error) string {
	if detail := gateway.Detail(err); detail != "" {
		return detail
	}
	return err.Error()
}
