package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/luhuaei/interleave/internal/config"
	"github.com/luhuaei/interleave/internal/index"
	"github.com/luhuaei/interleave/internal/notesfile"
	"github.com/luhuaei/interleave/internal/outline"
	"github.com/luhuaei/interleave/internal/session"
	"github.com/luhuaei/interleave/internal/viewer"
)

// openSessionJob resolves target into an outline plus an open viewer. A PDF
// target is first mapped to its notes file, creating one on the search path
// when none exists; in a multi-document file the session is pinned to that
// PDF's root heading, not the first one. An outline that names no document
// comes back with session.ErrPDFPathUnknown so the model can prompt for the
// path.
func openSessionJob(app config.Config, target string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
		defer cancel()

		notesPath := target
		docTarget := ""
		created := false
		if isDocumentTarget(target) {
			docTarget = target
			var err error
			notesPath, created, err = notesfile.FindOrCreate(target, app.NotesSearchPath, app.RelativePaths)
			if err != nil {
				return openResultMsg{err: err}, err
			}
		}

		doc, err := outline.Load(notesPath)
		if err != nil {
			return openResultMsg{err: err}, err
		}

		root := documentRootFor(doc, docTarget)
		source, _, err := session.ResolvePDFPath(doc, root)
		if err != nil {
			return openResultMsg{notesPath: notesPath, doc: doc, err: err}, err
		}

		view, err := viewer.OpenPDF(ctx, source)
		if err != nil {
			return openResultMsg{notesPath: notesPath, doc: doc, err: err}, err
		}
		return openResultMsg{notesPath: notesPath, doc: doc, root: root, view: view, created: created}, nil
	}
}

// documentRootFor returns the heading rooting target's notes, nil when the
// session was opened by outline file or the file is single-document.
func documentRootFor(doc *outline.Document, target string) *outline.Heading {
	if target == "" {
		return nil
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		if abs, err := filepath.Abs(target); err == nil {
			target = abs
		}
	}
	return index.FindDocumentRoot(doc, target)
}

// waitForOutlineChange blocks on the watcher until the outline file changes
// on disk. A closed watcher produces no message.
func waitForOutlineChange(w *outline.Watcher) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-w.Changes(); !ok {
			return nil
		}
		return outlineChangedMsg{}
	}
}

// isDocumentTarget reports whether the user handed us the document itself
// rather than its outline file.
func isDocumentTarget(target string) bool {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return true
	}
	return strings.EqualFold(filepath.Ext(target), ".pdf")
}

func isPathUnknown(err error) bool {
	return errors.Is(err, session.ErrPDFPathUnknown)
}
