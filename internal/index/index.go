// Package index answers positional queries over an outline document: which
// heading holds the notes for a page, which heading roots a document's
// notes, and where a new note belongs. Nothing is cached; every query is a
// forward scan in document order, so "first match wins" holds even after
// arbitrary edits.
package index

import (
	"path/filepath"
	"strings"

	"github.com/luhuaei/interleave/internal/outline"
)

// Order selects the direction for SortByPage.
type Order int

const (
	Ascending Order = iota
	Descending
)

// ParseOrder maps a configuration string to an Order. Anything that is not
// "descending" sorts ascending.
func ParseOrder(value string) Order {
	if strings.EqualFold(strings.TrimSpace(value), "descending") {
		return Descending
	}
	return Ascending
}

// sentinelPage stands in for a missing or malformed page property when
// sorting, placing such sections before every real page in ascending order.
const sentinelPage = -1

// FindPageSection returns the first heading in document order whose page
// property equals page. A non-nil scope restricts the scan to that subtree;
// a nil scope scans the whole document.
func FindPageSection(doc *outline.Document, scope *outline.Heading, page int) *outline.Heading {
	var found *outline.Heading
	walkScope(doc, scope, func(h *outline.Heading) bool {
		if got, ok := h.PageNote(); ok && got == page {
			found = h
			return false
		}
		return true
	})
	return found
}

// FindDocumentRoot returns the first heading carrying an INTERLEAVE_PDF
// property that resolves to pdfPath. Relative property values are resolved
// against the outline file's directory.
func FindDocumentRoot(doc *outline.Document, pdfPath string) *outline.Heading {
	var found *outline.Heading
	doc.Walk(func(h *outline.Heading) bool {
		value, ok := h.Property(outline.PropertyPDF)
		if ok && samePath(filepath.Dir(doc.Path), value, pdfPath) {
			found = h
			return false
		}
		return true
	})
	return found
}

// AncestorWithPage ascends from h (inclusive) to the nearest heading with a
// valid page property. The ascent terminates at the document root.
func AncestorWithPage(h *outline.Heading) (*outline.Heading, int, bool) {
	for cur := h; cur != nil; cur = cur.Parent() {
		if page, ok := cur.PageNote(); ok {
			return cur, page, true
		}
	}
	return nil, 0, false
}

// InsertionParent returns the heading new notes should be appended under:
// the document root in multi-document mode, none (top level) otherwise.
func InsertionParent(scope *outline.Heading) *outline.Heading {
	return scope
}

// HasAnySections reports whether the scope contains at least one heading.
func HasAnySections(doc *outline.Document, scope *outline.Heading) bool {
	if scope != nil {
		return len(scope.Children) > 0
	}
	return len(doc.Headings) > 0
}

// SortByPage reorders the sibling sections directly under scope (the
// top-level headings when scope is nil) by their page property. Sections
// without a usable page sort as page -1. The sort is stable, so duplicate
// pages keep their document order.
func SortByPage(doc *outline.Document, scope *outline.Heading, order Order) {
	doc.SortChildren(scope, func(a, b *outline.Heading) bool {
		pa := pageOrSentinel(a)
		pb := pageOrSentinel(b)
		if order == Descending {
			return pa > pb
		}
		return pa < pb
	})
}

func pageOrSentinel(h *outline.Heading) int {
	if page, ok := h.PageNote(); ok {
		return page
	}
	return sentinelPage
}

func walkScope(doc *outline.Document, scope *outline.Heading, fn func(*outline.Heading) bool) {
	if scope != nil {
		scope.Walk(fn)
		return
	}
	doc.Walk(fn)
}

func samePath(baseDir, candidate, target string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}
	if filepath.Clean(candidate) == filepath.Clean(target) {
		return true
	}
	if !filepath.IsAbs(candidate) && baseDir != "" && baseDir != "." {
		if filepath.Join(baseDir, candidate) == filepath.Clean(target) {
			return true
		}
	}
	return false
}
