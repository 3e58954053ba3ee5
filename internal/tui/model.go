package tui

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/luhuaei/interleave/internal/config"
	"github.com/luhuaei/interleave/internal/index"
	"github.com/luhuaei/interleave/internal/outline"
	"github.com/luhuaei/interleave/internal/session"
	"github.com/luhuaei/interleave/internal/sync"
	"github.com/luhuaei/interleave/internal/viewer"
)

// Config wires runtime options into the TUI program.
type Config struct {
	App config.Config
	// Target is an optional outline file or document opened on startup.
	Target string
}

// New returns a tea.Model ready to be mounted into a Program.
func New(cfg Config) tea.Model {
	composer := textinput.New()
	composer.Placeholder = composerTargetPlaceholder
	composer.Focus()
	composer.CharLimit = 250
	composer.Width = 70

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	docPane := viewport.New(60, 20)
	notePane := viewport.New(60, 20)

	return &model{
		config:      cfg,
		stage:       stageInput,
		composer:    composer,
		spinner:     spin,
		docPane:     docPane,
		notePane:    notePane,
		jobs:        newJobBus(),
		jobStates:   map[jobKind]jobSnapshot{},
		layout:      newPaneLayout(cfg.App.SplitOrientation, cfg.App.SplitAdjustment),
		focus:       focusNotes,
		docDirty:    true,
		noteDirty:   true,
		currentLine: -1,
		infoMessage: "Enter an outline file or a PDF to begin.",
	}
}

type model struct {
	config Config
	stage  stage

	composer textinput.Model
	spinner  spinner.Model
	docPane  viewport.Model
	notePane viewport.Model

	manager   session.Manager
	engine    *sync.Engine
	watcher   *outline.Watcher
	jobs      *jobBus
	jobStates map[jobKind]jobSnapshot

	layout paneLayout
	focus  paneFocus

	notesPath string

	// Prompt state while an outline waits for its document path.
	pendingDoc       *outline.Document
	pendingNotesPath string
	pendingPDFPath   string

	docDirty      bool
	noteDirty     bool
	currentLine   int
	noteLineCount int

	infoMessage  string
	errorMessage string
	helpVisible  bool
}

type openResultMsg struct {
	notesPath string
	doc       *outline.Document
	// root pins a multi-document session to the PDF the user asked for.
	root    *outline.Heading
	view    viewer.Viewer
	created bool
	err     error
}

type outlineChangedMsg struct{}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if target := strings.TrimSpace(m.config.Target); target != "" {
		m.stage = stageLoading
		m.infoMessage = fmt.Sprintf("Opening %s…", target)
		cmds = append(cmds, m.spinner.Tick, m.jobs.Start(jobKindOpen, openSessionJob(m.config.App, target)))
	}
	return tea.Batch(cmds...)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.stage == stageLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.applyPaneSizes()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.endSession()
			return m, tea.Quit
		case tea.KeyEsc:
			return m.handleEsc()
		}
		return m.handleKey(msg)
	case tea.MouseMsg:
		if m.stage == stageSession {
			return m.updateFocusedPane(msg)
		}
		return m, nil
	case jobSignalMsg:
		m.jobStates[msg.Snapshot.Kind] = msg.Snapshot
		return m, nil
	case jobResultEnvelope:
		m.jobStates[msg.Snapshot.Kind] = msg.Snapshot
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case openResultMsg:
		return m.handleOpenResult(msg)
	case outlineChangedMsg:
		return m.handleOutlineChanged()
	}
	return m, nil
}

func (m *model) handleEsc() (tea.Model, tea.Cmd) {
	switch m.stage {
	case stagePathPrompt, stageScopePrompt:
		m.pendingDoc = nil
		m.pendingNotesPath = ""
		m.pendingPDFPath = ""
		m.stage = stageInput
		m.composer.Placeholder = composerTargetPlaceholder
		m.composer.SetValue("")
		m.composer.Focus()
		m.infoMessage = "Open canceled."
		m.errorMessage = ""
		return m, nil
	case stageSession:
		if m.engine != nil && m.engine.Narrowed() != nil {
			m.engine.Widen()
			m.markNotesDirty()
			m.infoMessage = "Outline widened."
		}
		return m, nil
	case stageInput:
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageInput:
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(key)
		if key.Type == tea.KeyEnter {
			target := strings.TrimSpace(m.composer.Value())
			if target == "" {
				m.errorMessage = "Enter an outline file or a PDF path."
				return m, cmd
			}
			m.composer.SetValue("")
			m.stage = stageLoading
			m.errorMessage = ""
			m.infoMessage = fmt.Sprintf("Opening %s…", target)
			return m, tea.Batch(cmd, m.spinner.Tick, m.jobs.Start(jobKindOpen, openSessionJob(m.config.App, target)))
		}
		return m, cmd
	case stageLoading:
		return m, nil
	case stagePathPrompt:
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(key)
		if key.Type == tea.KeyEnter {
			path := strings.TrimSpace(m.composer.Value())
			if path == "" {
				m.errorMessage = "Enter the document's path or URL."
				return m, cmd
			}
			m.pendingPDFPath = path
			m.composer.SetValue("")
			m.errorMessage = ""
			if hasHeadingProperties(m.pendingDoc) {
				m.stage = stageScopePrompt
				m.composer.Blur()
				return m, cmd
			}
			next, retry := m.recordAndRetry(false)
			return next, tea.Batch(cmd, retry)
		}
		return m, cmd
	case stageScopePrompt:
		switch key.String() {
		case "y", "Y":
			return m.recordAndRetry(true)
		case "n", "N", "enter":
			return m.recordAndRetry(false)
		}
		return m, nil
	case stageSession:
		return m.handleSessionKey(key)
	default:
		return m, nil
	}
}

func (m *model) handleSessionKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	s, ok := m.manager.Current()
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "tab":
		if m.focus == focusNotes {
			m.focus = focusDocument
		} else {
			m.focus = focusNotes
		}
		return m, nil
	case "n":
		m.advanceNote(sync.Next)
		return m, nil
	case "p":
		m.advanceNote(sync.Previous)
		return m, nil
	case "]", "pgdown":
		m.turnPage(s, 1)
		return m, nil
	case "[", "pgup":
		m.turnPage(s, -1)
		return m, nil
	case "g":
		page := s.Viewer.CurrentPage()
		if h, found := m.engine.SyncOutlineToCurrentPage(); found {
			m.infoMessage = fmt.Sprintf("Outline on %q.", h.Title)
			m.markNotesDirty()
		} else {
			m.infoMessage = fmt.Sprintf("No note section for page %d yet. Press i to add one.", page)
		}
		return m, nil
	case "s":
		if m.engine.Current() == nil {
			m.infoMessage = "No current note section to sync to."
			return m, nil
		}
		m.engine.SyncViewerToCurrentNote()
		m.markDocDirty()
		m.infoMessage = fmt.Sprintf("Document on page %d.", s.Viewer.CurrentPage())
		return m, nil
	case "i":
		page := s.Viewer.CurrentPage()
		h, created, err := m.engine.CreateOrOpenNoteForPage(page)
		if err != nil {
			m.errorMessage = err.Error()
			return m, nil
		}
		m.errorMessage = ""
		if created {
			m.infoMessage = fmt.Sprintf("Added %q.", h.Title)
		} else {
			m.infoMessage = fmt.Sprintf("Page %d already has %q.", page, h.Title)
		}
		m.markNotesDirty()
		return m, nil
	case "w":
		m.engine.Widen()
		m.markNotesDirty()
		m.infoMessage = "Outline widened."
		return m, nil
	case "q":
		m.endSession()
		m.stage = stageInput
		m.composer.Placeholder = composerTargetPlaceholder
		m.composer.SetValue("")
		m.composer.Focus()
		m.infoMessage = "Session ended; outline sorted and saved."
		return m, nil
	case "?":
		m.helpVisible = !m.helpVisible
		return m, nil
	}
	return m.updateFocusedPane(key)
}

func (m *model) advanceNote(dir sync.Direction) {
	h, moved := m.engine.Advance(dir)
	switch {
	case h == nil:
		m.infoMessage = "No note sections yet. Press i to start one."
	case !moved:
		m.infoMessage = "No further note sections."
	default:
		m.infoMessage = fmt.Sprintf("On %q.", h.Title)
		m.markNotesDirty()
		m.markDocDirty()
	}
}

func (m *model) turnPage(s *session.Session, delta int) {
	h, found := m.engine.TurnPage(delta)
	m.markDocDirty()
	if found {
		m.infoMessage = fmt.Sprintf("Page %d, %q.", s.Viewer.CurrentPage(), h.Title)
		m.markNotesDirty()
	} else {
		m.infoMessage = fmt.Sprintf("Page %d has no note section.", s.Viewer.CurrentPage())
	}
}

func (m *model) updateFocusedPane(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == focusDocument {
		m.docPane, cmd = m.docPane.Update(msg)
	} else {
		m.notePane, cmd = m.notePane.Update(msg)
	}
	return m, cmd
}

func (m *model) handleOpenResult(msg openResultMsg) (tea.Model, tea.Cmd) {
	if isPathUnknown(msg.err) {
		m.stage = stagePathPrompt
		m.pendingDoc = msg.doc
		m.pendingNotesPath = msg.notesPath
		m.composer.Placeholder = composerPDFPlaceholder
		m.composer.SetValue("")
		m.composer.Focus()
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("%s names no document yet.", filepath.Base(msg.notesPath))
		return m, nil
	}
	if msg.err != nil {
		m.stage = stageInput
		m.composer.Placeholder = composerTargetPlaceholder
		m.composer.Focus()
		m.errorMessage = msg.err.Error()
		m.infoMessage = "Try another outline or document path."
		return m, nil
	}
	return m.startSession(msg)
}

func (m *model) startSession(msg openResultMsg) (tea.Model, tea.Cmd) {
	view := msg.view
	s, err := m.manager.Start(msg.doc, msg.root, func(string) (viewer.Viewer, error) { return view, nil }, m.layout)
	if err != nil {
		_ = view.Close()
		m.stage = stageInput
		m.composer.Placeholder = composerTargetPlaceholder
		m.composer.Focus()
		m.errorMessage = err.Error()
		return m, nil
	}

	m.engine = sync.New(m.config.App, s)
	m.engine.SyncOutlineToCurrentPage()
	m.notesPath = msg.notesPath
	m.stage = stageSession
	m.focus = focusNotes
	m.composer.Blur()
	m.errorMessage = ""
	if msg.created {
		m.infoMessage = fmt.Sprintf("Created %s. Press ? for keys.", filepath.Base(msg.notesPath))
	} else {
		m.infoMessage = fmt.Sprintf("Interleaving %s. Press ? for keys.", filepath.Base(msg.notesPath))
	}
	m.applyPaneSizes()

	watcher, werr := outline.WatchFile(s.Doc.Path)
	if werr != nil {
		log.Printf("[tui] watch outline: %v", werr)
		return m, nil
	}
	m.watcher = watcher
	return m, waitForOutlineChange(m.watcher)
}

func (m *model) handleOutlineChanged() (tea.Model, tea.Cmd) {
	s, ok := m.manager.Current()
	if !ok || m.watcher == nil {
		return m, nil
	}
	if err := s.Reload(); err != nil {
		m.errorMessage = err.Error()
		return m, waitForOutlineChange(m.watcher)
	}
	m.engine.Refresh()
	m.errorMessage = ""
	m.markNotesDirty()
	return m, waitForOutlineChange(m.watcher)
}

func (m *model) recordAndRetry(multi bool) (tea.Model, tea.Cmd) {
	doc := m.pendingDoc
	notesPath := m.pendingNotesPath
	path := m.pendingPDFPath
	m.pendingDoc = nil
	m.pendingNotesPath = ""
	m.pendingPDFPath = ""

	if err := session.RecordPDFPath(doc, nil, path, multi); err != nil {
		m.stage = stageInput
		m.composer.Placeholder = composerTargetPlaceholder
		m.composer.SetValue("")
		m.composer.Focus()
		m.errorMessage = err.Error()
		return m, nil
	}
	m.stage = stageLoading
	m.errorMessage = ""
	m.infoMessage = "Recorded document path. Opening…"
	return m, tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindOpen, openSessionJob(m.config.App, notesPath)))
}

// endSession quits the active pairing, restoring the pane layout recorded
// at session start. Safe to call without a session.
func (m *model) endSession() {
	s, ok := m.manager.Current()
	if !ok {
		return
	}
	if m.watcher != nil {
		_ = m.watcher.Close()
		m.watcher = nil
	}
	snapshot := s.Layout()
	if err := m.manager.Quit(index.ParseOrder(m.config.App.SortOrder)); err != nil {
		m.errorMessage = err.Error()
	}
	if restored, ok := snapshot.(paneLayout); ok {
		width, height := m.layout.windowWidth, m.layout.windowHeight
		m.layout = restored
		m.layout.Update(width, height)
	}
	m.engine = nil
	m.notesPath = ""
	m.currentLine = -1
	m.helpVisible = false
}

func (m *model) applyPaneSizes() {
	docWidth, docHeight, noteWidth, noteHeight := m.layout.paneSizes()
	m.docPane.Width = docWidth
	m.docPane.Height = docHeight
	m.notePane.Width = noteWidth
	m.notePane.Height = noteHeight
	m.markDocDirty()
	m.markNotesDirty()
}

func (m *model) markNotesDirty() { m.noteDirty = true }
func (m *model) markDocDirty()   { m.docDirty = true }

func (m *model) refreshPanesIfDirty() {
	if m.docDirty {
		m.docDirty = false
		m.docPane.SetContent(m.buildDocumentContent())
		m.docPane.SetYOffset(0)
	}
	if m.noteDirty {
		m.noteDirty = false
		view := m.buildNotesContent()
		m.currentLine = view.currentLine
		m.noteLineCount = len(splitLinesPreserve(view.content))
		m.notePane.SetContent(applyCurrentLine(view.content, view.currentLine))
		m.scrollNoteToCurrent()
	}
}

// scrollNoteToCurrent keeps the current section visible without jumping the
// pane when it already is.
func (m *model) scrollNoteToCurrent() {
	if m.currentLine < 0 {
		m.notePane.SetYOffset(0)
		return
	}
	height := m.notePane.Height
	if height <= 0 {
		return
	}
	top := m.notePane.YOffset
	if m.currentLine >= top && m.currentLine < top+height {
		return
	}
	offset := m.currentLine - height/3
	maxOffset := m.noteLineCount - height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset < 0 {
		offset = 0
	}
	if offset > maxOffset {
		offset = maxOffset
	}
	m.notePane.SetYOffset(offset)
}

func hasHeadingProperties(doc *outline.Document) bool {
	found := false
	doc.Walk(func(h *outline.Heading) bool {
		if len(h.Properties) > 0 {
			found = true
			return false
		}
		return true
	})
	return found
}

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	heroAccentColor    = lipgloss.Color("#7fb069")
	heroSecondaryText  = lipgloss.Color("#a3be8c")
	heroTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	taglineStyle       = lipgloss.NewStyle().Foreground(heroSecondaryText).Italic(true)
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
	currentLineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	paneTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("110"))
	paneBorderStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
	paneFocusedBorder  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(heroAccentColor).Padding(0, 1)
)
