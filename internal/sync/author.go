package sync

import (
	"fmt"
	"strconv"

	"github.com/luhuaei/interleave/internal/index"
	"github.com/luhuaei/interleave/internal/outline"
)

// NoteTitle is the default title for a freshly created note section.
func NoteTitle(page int) string {
	return fmt.Sprintf("Notes for page %d", page)
}

// CreateOrOpenNoteForPage positions the outline on the note section for
// page, creating one at the insertion anchor when none exists. A created
// section lands one level below the active document root (top level in
// single-document mode) and is persisted immediately, so an external editor
// sees it without waiting for session quit. Exactly one section is created
// per call; repeating the call navigates to the existing section.
func (e *Engine) CreateOrOpenNoteForPage(page int) (*outline.Heading, bool, error) {
	if h, ok := e.GoToPage(page); ok {
		return h, false, nil
	}

	parent := index.InsertionParent(e.s.Scope())
	h := &outline.Heading{Level: 1, Title: NoteTitle(page)}
	e.s.Doc.Append(parent, h)
	h.SetProperty(outline.PropertyPageNote, strconv.Itoa(page))
	if err := e.s.Doc.Save(); err != nil {
		return nil, false, fmt.Errorf("persist new note: %w", err)
	}
	e.focus(h)
	return h, true, nil
}
