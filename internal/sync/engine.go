// Package sync drives the two halves of an interleave session: page changes
// in the viewer move the outline to the matching note section, and moving
// between note sections jumps the viewer to their page.
package sync

import (
	"github.com/luhuaei/interleave/internal/config"
	"github.com/luhuaei/interleave/internal/index"
	"github.com/luhuaei/interleave/internal/outline"
	"github.com/luhuaei/interleave/internal/session"
)

// Direction selects where Advance moves.
type Direction int

const (
	Next Direction = iota
	Previous
)

// Engine resolves navigation intents against the outline index and keeps
// the outline view state (current section, narrowed subtree). It is not
// safe for concurrent use; every operation is a synchronous reaction to one
// user command, matching how the TUI delivers them.
type Engine struct {
	cfg config.Config
	s   *session.Session

	current  *outline.Heading
	narrowed *outline.Heading

	// driving suppresses the viewer's page-change hook while the engine is
	// the one moving the viewer, so the two sync directions cannot chase
	// each other.
	driving bool
}

// New wires an engine to an active session and registers the viewer's
// page-change hook.
func New(cfg config.Config, s *session.Session) *Engine {
	e := &Engine{cfg: cfg, s: s}
	s.Viewer.OnPageChange(e.onViewerPageChange)
	return e
}

// Current returns the note section the outline is positioned on.
func (e *Engine) Current() *outline.Heading { return e.current }

// Narrowed returns the subtree the outline view is restricted to, or nil
// when the view is widened.
func (e *Engine) Narrowed() *outline.Heading { return e.narrowed }

// GoToPage positions the outline on the first section for page. With
// narrowing enabled the view is widened and re-narrowed to the section's
// subtree; otherwise only the position moves and the caller recenters.
// Returns false, with the view untouched, when no section matches.
func (e *Engine) GoToPage(page int) (*outline.Heading, bool) {
	h := index.FindPageSection(e.s.Doc, e.s.Scope(), page)
	if h == nil {
		return nil, false
	}
	e.focus(h)
	return h, true
}

// SyncViewerToCurrentNote jumps the viewer to the page of the nearest
// enclosing note section. Missing or malformed pages are a silent no-op.
func (e *Engine) SyncViewerToCurrentNote() {
	if e.current == nil {
		return
	}
	_, page, ok := index.AncestorWithPage(e.current)
	if !ok {
		return
	}
	e.driving = true
	_ = e.s.Viewer.JumpTo(page)
	e.driving = false
}

// SyncOutlineToCurrentPage is the opposite direction: it reads the viewer's
// page and positions the outline there.
func (e *Engine) SyncOutlineToCurrentPage() (*outline.Heading, bool) {
	return e.GoToPage(e.s.Viewer.CurrentPage())
}

// TurnPage moves the viewer by delta pages and follows with the outline.
// The returned heading is nil when the new page has no note section yet.
func (e *Engine) TurnPage(delta int) (*outline.Heading, bool) {
	e.driving = true
	_ = e.s.Viewer.JumpTo(e.s.Viewer.CurrentPage() + delta)
	e.driving = false
	return e.SyncOutlineToCurrentPage()
}

// Advance moves to the adjacent sibling note section and syncs the viewer
// to it. With no position yet it enters the scope's first section. At the
// first or last sibling Advance is a no-op that reports the unchanged
// section, so callers can tell the user nothing moved.
func (e *Engine) Advance(dir Direction) (*outline.Heading, bool) {
	anchor, _, ok := index.AncestorWithPage(e.current)
	if !ok {
		first := e.firstSection()
		if first == nil {
			return nil, false
		}
		e.focus(first)
		e.SyncViewerToCurrentNote()
		return first, true
	}

	sib := e.sibling(anchor, dir)
	if sib == nil {
		return anchor, false
	}
	e.focus(sib)
	e.SyncViewerToCurrentNote()
	return sib, true
}

// Refresh drops heading pointers into a replaced outline tree and
// re-resolves the position from the viewer's page. Called after the session
// reloads the outline from disk.
func (e *Engine) Refresh() {
	e.current = nil
	e.narrowed = nil
	e.SyncOutlineToCurrentPage()
}

// Widen clears the narrowed view without moving the position.
func (e *Engine) Widen() { e.narrowed = nil }

func (e *Engine) focus(h *outline.Heading) {
	e.current = h
	if e.cfg.DisableNarrowing {
		e.narrowed = nil
		return
	}
	// Widen-then-narrow: the previous restriction never constrains the next.
	e.narrowed = h
}

func (e *Engine) onViewerPageChange(page int) {
	if e.driving {
		return
	}
	e.GoToPage(page)
}

// firstSection returns the first heading inside the session scope, entering
// the active document root's subtree in multi-document mode.
func (e *Engine) firstSection() *outline.Heading {
	if scope := e.s.Scope(); scope != nil {
		if len(scope.Children) == 0 {
			return nil
		}
		return scope.Children[0]
	}
	if len(e.s.Doc.Headings) == 0 {
		return nil
	}
	return e.s.Doc.Headings[0]
}

// sibling returns the heading next to anchor among its siblings, or nil at
// the boundary.
func (e *Engine) sibling(anchor *outline.Heading, dir Direction) *outline.Heading {
	siblings := e.s.Doc.Headings
	if parent := anchor.Parent(); parent != nil {
		siblings = parent.Children
	}
	for i, h := range siblings {
		if h != anchor {
			continue
		}
		j := i + 1
		if dir == Previous {
			j = i - 1
		}
		if j < 0 || j >= len(siblings) {
			return nil
		}
		return siblings[j]
	}
	return nil
}
