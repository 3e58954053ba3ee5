package notesfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindOrCreateCreatesSeededFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pdf := filepath.Join(dir, "thesis.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF"), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}

	path, created, err := FindOrCreate(pdf, []string{"."}, true)
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if !created {
		t.Fatal("expected a fresh notes file")
	}
	if path != filepath.Join(dir, "thesis.org") {
		t.Fatalf("unexpected notes path: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read notes file: %v", err)
	}
	if !strings.Contains(string(data), "#+INTERLEAVE_PDF: thesis.pdf") {
		t.Fatalf("declaration should be relative, got:\n%s", data)
	}
}

func TestFindOrCreateAbsoluteDeclaration(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pdf := filepath.Join(dir, "thesis.pdf")

	path, created, err := FindOrCreate(pdf, []string{dir}, false)
	if err != nil || !created {
		t.Fatalf("FindOrCreate() = %v created=%v", err, created)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "#+INTERLEAVE_PDF: "+pdf) {
		t.Fatalf("declaration should be absolute, got:\n%s", data)
	}
}

func TestFindOrCreatePrefersDeclaredFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pdf := filepath.Join(dir, "paper.pdf")
	declared := filepath.Join(dir, "reading-log.org")
	body := "#+INTERLEAVE_PDF: paper.pdf\n* Notes for page 1\n:PROPERTIES:\n:interleave_page_note: 1\n:END:\n"
	if err := os.WriteFile(declared, []byte(body), 0o644); err != nil {
		t.Fatalf("write declared file: %v", err)
	}
	// A decoy with the matching base name must lose to the declaration.
	if err := os.WriteFile(filepath.Join(dir, "paper.org"), []byte("* Unrelated\n"), 0o644); err != nil {
		t.Fatalf("write decoy: %v", err)
	}

	path, created, err := FindOrCreate(pdf, []string{"."}, true)
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if created || path != declared {
		t.Fatalf("declared file should win: %s created=%v", path, created)
	}
}

func TestFindOrCreateFallsBackToBaseName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pdf := filepath.Join(dir, "paper.pdf")
	named := filepath.Join(dir, "paper.org")
	if err := os.WriteFile(named, []byte("* Untagged notes\n"), 0o644); err != nil {
		t.Fatalf("write named file: %v", err)
	}

	path, created, err := FindOrCreate(pdf, []string{"."}, true)
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if created || path != named {
		t.Fatalf("base-name match should win: %s created=%v", path, created)
	}
}

func TestFindOrCreateHonorsSearchOrder(t *testing.T) {
	t.Parallel()

	pdfDir := t.TempDir()
	notesDir := t.TempDir()
	pdf := filepath.Join(pdfDir, "book.pdf")
	existing := filepath.Join(notesDir, "book.org")
	if err := os.WriteFile(existing, []byte("#+INTERLEAVE_PDF: "+pdf+"\n"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	path, created, err := FindOrCreate(pdf, []string{notesDir, "."}, true)
	if err != nil || created {
		t.Fatalf("FindOrCreate() = %v created=%v", err, created)
	}
	if path != existing {
		t.Fatalf("search order ignored: %s", path)
	}

	// Multi-document files are found through their root heading property.
	multi := filepath.Join(notesDir, "all.org")
	other := filepath.Join(pdfDir, "other.pdf")
	body := "* Other\n:PROPERTIES:\n:INTERLEAVE_PDF: " + other + "\n:END:\n"
	if err := os.WriteFile(multi, []byte(body), 0o644); err != nil {
		t.Fatalf("write multi: %v", err)
	}
	path, created, err = FindOrCreate(other, []string{notesDir}, true)
	if err != nil || created || path != multi {
		t.Fatalf("multi-document discovery failed: %s created=%v err=%v", path, created, err)
	}
}
