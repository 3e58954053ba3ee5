// Package viewer abstracts the paginated-document display half of an
// interleave session. The engine only ever talks to the Viewer interface;
// the PDF implementation lives alongside it.
package viewer

import "errors"

// ErrNoPages is returned when a document opens but contains nothing to show.
var ErrNoPages = errors.New("viewer: document has no pages")

// Viewer is one open paginated document. Implementations hold the current
// page and report changes through the registered hook so the outline side
// can follow along.
type Viewer interface {
	// Path returns the path or URL the document was opened from.
	Path() string
	// PageCount returns the number of pages, always >= 1.
	PageCount() int
	// CurrentPage returns the 1-based page currently displayed.
	CurrentPage() int
	// JumpTo displays page, clamping into [1, PageCount]. The page-change
	// hook fires only when the displayed page actually changes.
	JumpTo(page int) error
	// PageText returns the plain text of a page for rendering.
	PageText(page int) (string, error)
	// OnPageChange registers the hook invoked after every page change.
	// Passing nil removes the hook.
	OnPageChange(fn func(page int))
	Close() error
}

func clampPage(page, count int) int {
	if page < 1 {
		return 1
	}
	if page > count {
		return count
	}
	return page
}
