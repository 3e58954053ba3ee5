// Package session owns the pairing between one outline document and one
// viewer instance. The Manager holds at most one active pairing; every
// mutation of the pairing goes through Start and Quit.
package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/luhuaei/interleave/internal/index"
	"github.com/luhuaei/interleave/internal/outline"
	"github.com/luhuaei/interleave/internal/viewer"
)

var (
	// ErrActive is returned by Start while another session is running.
	ErrActive = errors.New("session: a session is already active")
	// ErrNotSynced is returned by operations that need an active session.
	ErrNotSynced = errors.New("session: no active session")
	// ErrPDFPathUnknown signals that the outline names no document; the
	// caller should prompt for a path, record it, and retry.
	ErrPDFPathUnknown = errors.New("session: outline does not name a document")
)

// Opener opens a viewer on a resolved document path.
type Opener func(path string) (viewer.Viewer, error)

// Session is one active pairing. All fields are set at Start and are
// immutable for the session's lifetime, outline edits aside.
type Session struct {
	Doc      *outline.Document
	Viewer   viewer.Viewer
	PDFPath  string
	MultiDoc bool
	// Root is the active document-root heading; nil in single-document mode.
	Root *outline.Heading

	layout any
}

// Layout returns the window-layout snapshot recorded at Start.
func (s *Session) Layout() any { return s.layout }

// Scope returns the search scope for this session's queries: the document
// root in multi-document mode, the whole document otherwise.
func (s *Session) Scope() *outline.Heading { return s.Root }

// Manager enforces the single-pairing invariant.
type Manager struct {
	current *Session
}

// Current returns the active session, if any.
func (m *Manager) Current() (*Session, bool) {
	return m.current, m.current != nil
}

// Start resolves the document path for doc, opens a viewer on it, and
// records the pairing. The path is resolved, in order, from a document-root
// property reachable by ascending from at, from any document-root property
// in document order, and from the file-level declaration. When all three
// fail, Start returns ErrPDFPathUnknown and leaves the manager unchanged.
// The layout snapshot is handed back verbatim by Session.Layout for the
// caller to restore after Quit.
func (m *Manager) Start(doc *outline.Document, at *outline.Heading, open Opener, layout any) (*Session, error) {
	if m.current != nil {
		return nil, ErrActive
	}

	resolved, root, err := ResolvePDFPath(doc, at)
	if err != nil {
		return nil, err
	}

	view, err := open(resolved)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", resolved, err)
	}

	s := &Session{
		Doc:      doc,
		Viewer:   view,
		PDFPath:  resolved,
		MultiDoc: root != nil,
		Root:     root,
		layout:   layout,
	}
	m.current = s
	return s, nil
}

// Quit normalizes the outline (sort by page when any sections exist), saves
// it, closes the viewer, and clears the pairing. The caller restores the
// layout snapshot afterwards. Quit never fails on sorting; only IO errors
// surface, and the pairing is cleared regardless.
func (m *Manager) Quit(order index.Order) error {
	s := m.current
	if s == nil {
		return ErrNotSynced
	}
	m.current = nil

	if index.HasAnySections(s.Doc, s.Scope()) {
		index.SortByPage(s.Doc, s.Scope(), order)
	}
	saveErr := s.Doc.Save()
	closeErr := s.Viewer.Close()
	if saveErr != nil {
		return fmt.Errorf("save outline on quit: %w", saveErr)
	}
	return closeErr
}

// Reload re-reads the outline from disk, replacing the in-memory document
// and re-resolving the document root. Callers holding heading pointers into
// the old tree must re-resolve them, typically by page.
func (s *Session) Reload() error {
	doc, err := outline.Load(s.Doc.Path)
	if err != nil {
		return fmt.Errorf("reload outline: %w", err)
	}
	s.Doc = doc
	if s.MultiDoc {
		s.Root = index.FindDocumentRoot(doc, s.PDFPath)
	}
	return nil
}

// RecordPDFPath writes a freshly supplied document path into the outline
// and saves it, so a retried Start will resolve it. With multi true the path
// is recorded as a property on the heading reached from at (or the first
// heading), otherwise as the file-level declaration.
func RecordPDFPath(doc *outline.Document, at *outline.Heading, path string, multi bool) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrPDFPathUnknown
	}
	if multi {
		target := at
		if target == nil && len(doc.Headings) > 0 {
			target = doc.Headings[0]
		}
		if target == nil {
			return fmt.Errorf("record document path: outline has no headings")
		}
		for target.Parent() != nil {
			target = target.Parent()
		}
		target.SetProperty(outline.PropertyPDF, path)
	} else {
		doc.SetKeyword(outline.PropertyPDF, path)
	}
	return doc.Save()
}

// ResolvePDFPath resolves the document path Start would use, without
// opening anything. Relative paths are made absolute against the outline's
// directory; URLs pass through untouched. The returned heading is the
// document root when the path came from a heading property, nil otherwise.
func ResolvePDFPath(doc *outline.Document, at *outline.Heading) (string, *outline.Heading, error) {
	raw, root := rawPDFPath(doc, at)
	if raw == "" {
		return "", nil, ErrPDFPathUnknown
	}
	return absolutePath(doc, raw), root, nil
}

// rawPDFPath implements the Start resolution order and reports the
// document root when the path came from a heading property.
func rawPDFPath(doc *outline.Document, at *outline.Heading) (string, *outline.Heading) {
	for cur := at; cur != nil; cur = cur.Parent() {
		if value, ok := cur.Property(outline.PropertyPDF); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), cur
		}
	}
	var path string
	var root *outline.Heading
	doc.Walk(func(h *outline.Heading) bool {
		if value, ok := h.Property(outline.PropertyPDF); ok && strings.TrimSpace(value) != "" {
			path = strings.TrimSpace(value)
			root = h
			return false
		}
		return true
	})
	if root != nil {
		return path, root
	}
	if value, ok := doc.Keyword(outline.PropertyPDF); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value), nil
	}
	return "", nil
}

func absolutePath(doc *outline.Document, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if filepath.IsAbs(path) || doc.Path == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(filepath.Dir(doc.Path), path)
}
