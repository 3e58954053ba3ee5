package index

import (
	"testing"

	"github.com/luhuaei/interleave/internal/outline"
)

const multiDocument = `* Paper A
:PROPERTIES:
:INTERLEAVE_PDF: a.pdf
:END:
** Notes for page 1
:PROPERTIES:
:interleave_page_note: 1
:END:
** Notes for page 4
:PROPERTIES:
:interleave_page_note: 4
:END:
* Paper B
:PROPERTIES:
:INTERLEAVE_PDF: b.pdf
:END:
** Notes for page 1
:PROPERTIES:
:interleave_page_note: 1
:END:
`

func TestFindPageSectionFirstMatchWins(t *testing.T) {
	t.Parallel()

	doc := outline.Parse("* one\n:PROPERTIES:\n:interleave_page_note: 2\n:END:\n" +
		"* two\n:PROPERTIES:\n:interleave_page_note: 2\n:END:\n")
	h := FindPageSection(doc, nil, 2)
	if h == nil || h.Title != "one" {
		t.Fatalf("expected first duplicate in document order, got %+v", h)
	}
	if FindPageSection(doc, nil, 9) != nil {
		t.Fatal("missing page should return nil")
	}
}

func TestFindPageSectionRespectsScope(t *testing.T) {
	t.Parallel()

	doc := outline.Parse(multiDocument)
	rootA := FindDocumentRoot(doc, "a.pdf")
	rootB := FindDocumentRoot(doc, "b.pdf")
	if rootA == nil || rootB == nil {
		t.Fatalf("document roots not found: %v / %v", rootA, rootB)
	}

	got := FindPageSection(doc, rootA, 1)
	if got == nil {
		t.Fatal("page 1 not found under root A")
	}
	if got.Parent() != rootA {
		t.Fatalf("scoped search leaked outside root A: parent=%q", got.Parent().Title)
	}

	got = FindPageSection(doc, rootB, 1)
	if got == nil || got.Parent() != rootB {
		t.Fatalf("scoped search under root B failed: %+v", got)
	}
}

func TestFindDocumentRootResolvesRelativePaths(t *testing.T) {
	t.Parallel()

	doc := outline.Parse(multiDocument)
	doc.Path = "/home/me/notes/all.org"
	if root := FindDocumentRoot(doc, "/home/me/notes/a.pdf"); root == nil || root.Title != "Paper A" {
		t.Fatalf("relative property did not match absolute target: %+v", root)
	}
	if FindDocumentRoot(doc, "/elsewhere/a.pdf") != nil {
		t.Fatal("path in another directory should not match")
	}
}

func TestAncestorWithPageAscends(t *testing.T) {
	t.Parallel()

	doc := outline.Parse("* Notes for page 6\n:PROPERTIES:\n:interleave_page_note: 6\n:END:\n" +
		"** Sub\n*** Deeper\n")
	deeper := doc.Headings[0].Children[0].Children[0]
	h, page, ok := AncestorWithPage(deeper)
	if !ok || page != 6 || h != doc.Headings[0] {
		t.Fatalf("ascent failed: %v %d %v", h, page, ok)
	}

	orphan := outline.Parse("* Untagged\n").Headings[0]
	if _, _, ok := AncestorWithPage(orphan); ok {
		t.Fatal("heading without page property should not resolve")
	}
}

func TestHasAnySections(t *testing.T) {
	t.Parallel()

	if HasAnySections(outline.Parse("just text\n"), nil) {
		t.Fatal("empty outline reported sections")
	}
	doc := outline.Parse(multiDocument)
	if !HasAnySections(doc, nil) {
		t.Fatal("populated outline reported no sections")
	}
	if !HasAnySections(doc, doc.Headings[0]) {
		t.Fatal("root with children reported no sections")
	}
}

func TestSortByPage(t *testing.T) {
	t.Parallel()

	build := func() *outline.Document {
		return outline.Parse("* five\n:PROPERTIES:\n:interleave_page_note: 5\n:END:\n" +
			"* three\n:PROPERTIES:\n:interleave_page_note: 3\n:END:\n" +
			"* untagged\n")
	}

	doc := build()
	SortByPage(doc, nil, Ascending)
	got := []string{doc.Headings[0].Title, doc.Headings[1].Title, doc.Headings[2].Title}
	want := []string{"untagged", "three", "five"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ascending order mismatch: got %v want %v", got, want)
		}
	}

	doc = build()
	SortByPage(doc, nil, Descending)
	got = []string{doc.Headings[0].Title, doc.Headings[1].Title, doc.Headings[2].Title}
	want = []string{"five", "three", "untagged"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("descending order mismatch: got %v want %v", got, want)
		}
	}
}

func TestParseOrder(t *testing.T) {
	t.Parallel()

	if ParseOrder("descending") != Descending || ParseOrder("DESCENDING") != Descending {
		t.Fatal("descending not recognized")
	}
	if ParseOrder("ascending") != Ascending || ParseOrder("") != Ascending {
		t.Fatal("default order should be ascending")
	}
}
