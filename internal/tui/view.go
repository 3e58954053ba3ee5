package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/luhuaei/interleave/internal/config"
)

func (m *model) View() string {
	switch m.stage {
	case stageInput:
		return m.viewInput()
	case stageLoading:
		return m.viewLoading()
	case stagePathPrompt:
		return m.viewPathPrompt()
	case stageScopePrompt:
		return m.viewScopePrompt()
	case stageSession:
		return m.viewSession()
	default:
		return ""
	}
}

func (m *model) viewInput() string {
	parts := []string{
		m.heroView(),
		sectionHeaderStyle.Render("Open"),
		m.composer.View(),
		helperStyle.Render("Enter opens. A PDF target finds or creates its outline on the search path."),
	}
	return m.withMessages(parts)
}

func (m *model) viewLoading() string {
	// withMessages prefixes the info line with the spinner while loading.
	return m.withMessages([]string{m.heroView()})
}

func (m *model) viewPathPrompt() string {
	parts := []string{
		m.heroView(),
		sectionHeaderStyle.Render("Document Path"),
		helperStyle.Render(fmt.Sprintf("%s does not say which document it describes.", filepath.Base(m.pendingNotesPath))),
		m.composer.View(),
		helperStyle.Render("Enter records the path in the outline. Esc cancels."),
	}
	return m.withMessages(parts)
}

func (m *model) viewScopePrompt() string {
	parts := []string{
		m.heroView(),
		sectionHeaderStyle.Render("Record Scope"),
		helperStyle.Render("This outline already carries heading properties; it may hold notes for several documents."),
		helperStyle.Render(fmt.Sprintf("Attach %s to a top-level heading instead of the whole file? [y/N]", m.pendingPDFPath)),
	}
	return m.withMessages(parts)
}

func (m *model) viewSession() string {
	m.refreshPanesIfDirty()

	docPanel := m.renderPane(m.docPaneTitle(), m.docPane.View(), m.focus == focusDocument)
	notePanel := m.renderPane(m.notePaneTitle(), m.notePane.View(), m.focus == focusNotes)

	var body string
	if m.layout.orientation == config.SplitHorizontal {
		body = lipgloss.JoinVertical(lipgloss.Left, docPanel, notePanel)
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, docPanel, notePanel)
	}

	parts := []string{body, m.sessionStatusView()}
	if m.helpVisible {
		parts = append(parts, m.keyLegendView())
	}
	return m.withMessages(parts)
}

func (m *model) renderPane(title, body string, focused bool) string {
	style := paneBorderStyle
	if focused {
		style = paneFocusedBorder
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, paneTitleStyle.Render(title), body))
}

func (m *model) docPaneTitle() string {
	s, ok := m.manager.Current()
	if !ok {
		return "Document"
	}
	return fmt.Sprintf("Document (page %d of %d)", s.Viewer.CurrentPage(), s.Viewer.PageCount())
}

func (m *model) notePaneTitle() string {
	title := "Outline"
	if m.notesPath != "" {
		title = fmt.Sprintf("Outline %s", filepath.Base(m.notesPath))
	}
	if m.engine != nil && m.engine.Narrowed() != nil {
		title += " [narrowed]"
	}
	return title
}

func (m *model) sessionStatusView() string {
	s, ok := m.manager.Current()
	if !ok {
		return ""
	}
	stats := []string{
		fmt.Sprintf("Page %d/%d", s.Viewer.CurrentPage(), s.Viewer.PageCount()),
	}
	if current := m.engine.Current(); current != nil {
		stats = append(stats, current.Title)
	} else {
		stats = append(stats, "no note section")
	}
	if s.MultiDoc && s.Root != nil {
		stats = append(stats, fmt.Sprintf("Scope %s", s.Root.Title))
	}
	for _, snapshot := range m.jobStates {
		if snapshot.Status == jobStatusRunning {
			stats = append(stats, fmt.Sprintf("%s running", snapshot.Kind))
		}
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"n/p", "Next or previous note"},
		{"[/]", "Turn page"},
		{"i", "Note for this page"},
		{"g", "Outline to page"},
		{"s", "Document to note"},
		{"w", "Widen outline"},
		{"Tab", "Switch pane"},
		{"q", "End session"},
		{"?", "Toggle this help"},
	}
	rows := []string{sectionHeaderStyle.Render("Keys")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description)
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		heroTitleStyle.Render("interleave"),
		taglineStyle.Render(heroTagline),
	)
}

// withMessages appends the error and info lines shared by every stage.
func (m *model) withMessages(parts []string) string {
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.stage == stageLoading {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		parts = append(parts, helperStyle.Render(message))
	}
	return joinNonEmpty(parts)
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}
