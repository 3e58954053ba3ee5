package outline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDocument = `#+INTERLEAVE_PDF: paper.pdf

Intro text before any heading.

* Notes for page 1
:PROPERTIES:
:interleave_page_note: 1
:END:
The abstract promises a lot.

* Notes for page 3
:PROPERTIES:
:interleave_page_note: 3
:END:
** Detail
Nested observation.
* Loose thoughts
No page property here.
`

func TestParseBuildsTree(t *testing.T) {
	t.Parallel()

	doc := Parse(sampleDocument)
	if len(doc.Headings) != 3 {
		t.Fatalf("expected 3 top-level headings, got %d", len(doc.Headings))
	}
	if doc.Headings[0].Title != "Notes for page 1" {
		t.Fatalf("unexpected first title: %q", doc.Headings[0].Title)
	}
	if page, ok := doc.Headings[1].PageNote(); !ok || page != 3 {
		t.Fatalf("second heading page = %d, %v", page, ok)
	}
	if len(doc.Headings[1].Children) != 1 {
		t.Fatalf("expected one child under page 3, got %d", len(doc.Headings[1].Children))
	}
	child := doc.Headings[1].Children[0]
	if child.Level != 2 || child.Parent() != doc.Headings[1] {
		t.Fatalf("child not nested correctly: level=%d parent=%v", child.Level, child.Parent())
	}
	if body := strings.Join(doc.Headings[0].Body, "\n"); !strings.Contains(body, "abstract") {
		t.Fatalf("body not attached to heading: %q", body)
	}
}

func TestParseRenderRoundTrip(t *testing.T) {
	t.Parallel()

	doc := Parse(sampleDocument)
	if got := doc.String(); got != sampleDocument {
		t.Fatalf("round trip mismatch:\n--- want ---\n%s\n--- got ---\n%s", sampleDocument, got)
	}
}

func TestIndentedDrawerRoundTrip(t *testing.T) {
	t.Parallel()

	indented := `* Notes for page 2
  :PROPERTIES:
  :interleave_page_note:  2
  :END:
Body under an indented drawer.
`
	doc := Parse(indented)
	h := doc.Headings[0]
	if page, ok := h.PageNote(); !ok || page != 2 {
		t.Fatalf("indented drawer not parsed: page=%d ok=%v", page, ok)
	}
	if got := doc.String(); got != indented {
		t.Fatalf("round trip mismatch:\n--- want ---\n%s\n--- got ---\n%s", indented, got)
	}

	// An edit rewrites only the touched line, at the drawer's indentation.
	h.SetProperty(PropertyPageNote, "7")
	want := `* Notes for page 2
  :PROPERTIES:
  :interleave_page_note: 7
  :END:
Body under an indented drawer.
`
	if got := doc.String(); got != want {
		t.Fatalf("edit lost drawer indentation:\n--- want ---\n%s\n--- got ---\n%s", want, got)
	}
}

func TestParseKeepsUnterminatedDrawerAsBody(t *testing.T) {
	t.Parallel()

	doc := Parse("* Broken\n:PROPERTIES:\n:interleave_page_note: 4\n")
	h := doc.Headings[0]
	if len(h.Properties) != 0 {
		t.Fatalf("unterminated drawer parsed as properties: %#v", h.Properties)
	}
	if _, ok := h.PageNote(); ok {
		t.Fatal("page note should not resolve from body text")
	}
	if len(h.Body) != 2 {
		t.Fatalf("drawer lines should survive as body, got %#v", h.Body)
	}
}

func TestPropertyLookupIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	doc := Parse("* Root\n:PROPERTIES:\n:Interleave_PDF: doc.pdf\n:END:\n")
	value, ok := doc.Headings[0].Property(PropertyPDF)
	if !ok || value != "doc.pdf" {
		t.Fatalf("property lookup failed: %q, %v", value, ok)
	}
}

func TestPageNoteRejectsMalformedValues(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"words":    "seven",
		"zero":     "0",
		"negative": "-3",
		"float":    "2.5",
	}
	for name, raw := range cases {
		h := &Heading{Level: 1, Title: "x"}
		h.SetProperty(PropertyPageNote, raw)
		if page, ok := h.PageNote(); ok {
			t.Fatalf("%s: malformed value %q resolved to page %d", name, raw, page)
		}
	}
}

func TestSetPropertyReplacesExisting(t *testing.T) {
	t.Parallel()

	h := &Heading{Level: 1, Title: "x"}
	h.SetProperty(PropertyPageNote, "1")
	h.SetProperty(PropertyPageNote, "2")
	if len(h.Properties) != 1 {
		t.Fatalf("expected one property after replace, got %#v", h.Properties)
	}
	if page, _ := h.PageNote(); page != 2 {
		t.Fatalf("replace did not take, page = %d", page)
	}
}

func TestKeywordReadAndWrite(t *testing.T) {
	t.Parallel()

	doc := Parse(sampleDocument)
	value, ok := doc.Keyword(PropertyPDF)
	if !ok || value != "paper.pdf" {
		t.Fatalf("keyword read failed: %q, %v", value, ok)
	}

	doc.SetKeyword(PropertyPDF, "other.pdf")
	if value, _ = doc.Keyword(PropertyPDF); value != "other.pdf" {
		t.Fatalf("keyword replace failed: %q", value)
	}

	empty := Parse("")
	empty.SetKeyword(PropertyPDF, "fresh.pdf")
	if !strings.HasPrefix(empty.String(), "#+INTERLEAVE_PDF: fresh.pdf\n") {
		t.Fatalf("keyword not prepended: %q", empty.String())
	}
}

func TestSetLevelConvergesAndMovesSubtree(t *testing.T) {
	t.Parallel()

	doc := Parse("* A\n** B\n*** C\n")
	root := doc.Headings[0]
	root.SetLevel(3)
	if root.Level != 3 || root.Children[0].Level != 4 || root.Children[0].Children[0].Level != 5 {
		t.Fatalf("demote did not cascade: %d/%d/%d",
			root.Level, root.Children[0].Level, root.Children[0].Children[0].Level)
	}
	root.SetLevel(1)
	if root.Level != 1 || root.Children[0].Level != 2 {
		t.Fatalf("promote did not cascade: %d/%d", root.Level, root.Children[0].Level)
	}
	root.SetLevel(0)
	if root.Level != 1 {
		t.Fatalf("level should clamp at 1, got %d", root.Level)
	}
}

func TestAppendNormalizesLevel(t *testing.T) {
	t.Parallel()

	doc := Parse("* Root\n:PROPERTIES:\n:INTERLEAVE_PDF: doc.pdf\n:END:\n")
	root := doc.Headings[0]

	note := &Heading{Level: 5, Title: "Notes for page 2"}
	doc.Append(root, note)
	if note.Level != 2 || note.Parent() != root {
		t.Fatalf("append under root: level=%d parent=%v", note.Level, note.Parent())
	}

	top := &Heading{Level: 4, Title: "Notes for page 9"}
	doc.Append(nil, top)
	if top.Level != 1 || top.Parent() != nil {
		t.Fatalf("append at top: level=%d parent=%v", top.Level, top.Parent())
	}
	if doc.Headings[len(doc.Headings)-1] != top {
		t.Fatal("appended heading should be last in document order")
	}
}

func TestSortChildrenIsStable(t *testing.T) {
	t.Parallel()

	doc := Parse("* five\n:PROPERTIES:\n:interleave_page_note: 5\n:END:\n" +
		"* three-a\n:PROPERTIES:\n:interleave_page_note: 3\n:END:\n" +
		"* three-b\n:PROPERTIES:\n:interleave_page_note: 3\n:END:\n")
	doc.SortChildren(nil, func(a, b *Heading) bool {
		pa, _ := a.PageNote()
		pb, _ := b.PageNote()
		return pa < pb
	})
	titles := []string{doc.Headings[0].Title, doc.Headings[1].Title, doc.Headings[2].Title}
	want := []string{"three-a", "three-b", "five"}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("sort order mismatch at %d: got %v want %v", i, titles, want)
		}
	}
}

func TestLoadAndSaveRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "notes.org")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	doc.Headings[2].SetProperty(PropertyPageNote, "7")
	if err := doc.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if page, ok := reloaded.Headings[2].PageNote(); !ok || page != 7 {
		t.Fatalf("edit lost across save/load: %d, %v", page, ok)
	}
}
