package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/luhuaei/interleave/internal/config"
	"github.com/luhuaei/interleave/internal/outline"
)

// paneLayout divides the window between the document pane and the notes
// pane. The adjustment shifts the split line in the document pane's favor
// (positive) or against it (negative), in columns or rows depending on the
// orientation.
type paneLayout struct {
	windowWidth  int
	windowHeight int
	orientation  string
	adjustment   int
}

func newPaneLayout(orientation string, adjustment int) paneLayout {
	return paneLayout{
		windowWidth:  100,
		windowHeight: 30,
		orientation:  orientation,
		adjustment:   adjustment,
	}
}

func (l *paneLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
}

// paneSizes returns the inner dimensions of the document pane and the notes
// pane. Each pane spends 4 columns on border and padding and 3 rows on
// border and title; rows for the status bar and message lines come out of
// the window height as well.
func (l *paneLayout) paneSizes() (docWidth, docHeight, noteWidth, noteHeight int) {
	const chromeRows = 4

	if l.orientation == config.SplitHorizontal {
		width := l.windowWidth - 4
		if width < minPaneWidth {
			width = minPaneWidth
		}
		usable := l.windowHeight - chromeRows - 6
		if usable < 2*minPaneHeight {
			usable = 2 * minPaneHeight
		}
		docHeight = clampSplit(usable/2+l.adjustment, minPaneHeight, usable-minPaneHeight)
		return width, docHeight, width, usable - docHeight
	}

	usable := l.windowWidth - 8
	if usable < 2*minPaneWidth {
		usable = 2 * minPaneWidth
	}
	height := l.windowHeight - chromeRows - 3
	if height < minPaneHeight {
		height = minPaneHeight
	}
	docWidth = clampSplit(usable/2+l.adjustment, minPaneWidth, usable-minPaneWidth)
	return docWidth, height, usable - docWidth, height
}

func clampSplit(value, low, high int) int {
	if high < low {
		high = low
	}
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

type notesView struct {
	content string
	// currentLine is the line index of the current section's title within
	// content, -1 when no section is current.
	currentLine int
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

// buildNotesContent renders the outline pane: the narrowed subtree when one
// is active, the session scope otherwise. Property drawers never render;
// the parsed tree keeps them out of heading bodies.
func (m *model) buildNotesContent() notesView {
	cb := &contentBuilder{}
	currentLine := -1
	wrap := m.noteWrapWidth()

	var walk func(h *outline.Heading)
	walk = func(h *outline.Heading) {
		if m.engine != nil && h == m.engine.Current() {
			currentLine = cb.Line()
		}
		cb.WriteString(strings.Repeat("*", h.Level))
		cb.WriteRune(' ')
		cb.WriteString(h.Title)
		cb.WriteRune('\n')
		for _, line := range h.Body {
			cb.WriteString(wordwrap.String(line, wrap))
			cb.WriteRune('\n')
		}
		for _, child := range h.Children {
			walk(child)
		}
	}

	for _, h := range m.visibleHeadings() {
		walk(h)
	}
	if cb.Line() == 0 {
		cb.WriteString(helperStyle.Render("No note sections yet. Press i to start one for this page."))
		cb.WriteRune('\n')
	}
	return notesView{content: strings.TrimRight(cb.String(), "\n"), currentLine: currentLine}
}

// visibleHeadings picks the roots the notes pane shows, honoring narrowing
// and the multi-document scope.
func (m *model) visibleHeadings() []*outline.Heading {
	s, ok := m.manager.Current()
	if !ok {
		return nil
	}
	if m.engine != nil {
		if narrowed := m.engine.Narrowed(); narrowed != nil {
			return []*outline.Heading{narrowed}
		}
	}
	if scope := s.Scope(); scope != nil {
		return []*outline.Heading{scope}
	}
	return s.Doc.Headings
}

// buildDocumentContent renders the current page's extracted text.
func (m *model) buildDocumentContent() string {
	s, ok := m.manager.Current()
	if !ok {
		return ""
	}
	page := s.Viewer.CurrentPage()
	text, err := s.Viewer.PageText(page)
	if err != nil {
		return errorStyle.Render(fmt.Sprintf("page %d unavailable: %v", page, err))
	}
	if strings.TrimSpace(text) == "" {
		return helperStyle.Render("This page has no extractable text.")
	}
	return wordwrap.String(text, m.docWrapWidth())
}

func (m *model) noteWrapWidth() int {
	return wrapWidth(m.notePane.Width)
}

func (m *model) docWrapWidth() int {
	return wrapWidth(m.docPane.Width)
}

func wrapWidth(width int) int {
	if width <= 0 {
		return 78
	}
	if width < 20 {
		return 20
	}
	return width
}

func splitLinesPreserve(content string) []string {
	if content == "" {
		return []string{""}
	}
	return strings.Split(content, "\n")
}

func applyCurrentLine(content string, line int) string {
	if line < 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	if line >= len(lines) {
		return content
	}
	lines[line] = currentLineStyle.Render(lines[line])
	return strings.Join(lines, "\n")
}
