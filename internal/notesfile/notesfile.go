// Package notesfile locates the outline notes file belonging to a PDF, or
// creates one when no directory on the search path has it yet.
package notesfile

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/luhuaei/interleave/internal/index"
	"github.com/luhuaei/interleave/internal/outline"
)

// FindOrCreate returns the notes file for pdfPath. Directories are tried in
// order; "." stands for the PDF's own directory and "~" expands to the
// user's home. An existing file wins when it declares the PDF (file keyword
// or document-root property) or simply shares the PDF's base name. When
// nothing matches, a fresh file seeded with the declaration is created in
// the first existing search directory. The second result reports creation.
func FindOrCreate(pdfPath string, searchDirs []string, relative bool) (string, bool, error) {
	abs := pdfPath
	ownDir := ""
	if isRemote(pdfPath) {
		// A URL has no directory of its own; "." falls back to the
		// working directory.
		ownDir, _ = os.Getwd()
	} else {
		var err error
		abs, err = filepath.Abs(pdfPath)
		if err != nil {
			return "", false, fmt.Errorf("resolve pdf path: %w", err)
		}
		ownDir = filepath.Dir(abs)
	}
	dirs := expandDirs(searchDirs, ownDir)
	if len(dirs) == 0 {
		return "", false, fmt.Errorf("notes search path is empty")
	}

	if found := findDeclared(dirs, abs); found != "" {
		return found, false, nil
	}

	base := documentBase(abs) + ".org"
	for _, dir := range dirs {
		candidate := filepath.Join(dir, base)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, false, nil
		}
	}

	target := filepath.Join(firstExisting(dirs), base)
	doc := outline.Parse("")
	doc.Path = target
	doc.SetKeyword(outline.PropertyPDF, declaredPath(target, abs, relative))
	if err := doc.Save(); err != nil {
		return "", false, fmt.Errorf("create notes file: %w", err)
	}
	return target, true, nil
}

// findDeclared scans every outline file in the search directories for one
// that names the PDF.
func findDeclared(dirs []string, pdfPath string) string {
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".org") {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			doc, err := outline.Load(path)
			if err != nil {
				continue
			}
			if value, ok := doc.Keyword(outline.PropertyPDF); ok {
				if resolveAgainst(dir, value) == pdfPath {
					return path
				}
			}
			if index.FindDocumentRoot(doc, pdfPath) != nil {
				return path
			}
		}
	}
	return ""
}

func expandDirs(dirs []string, pdfDir string) []string {
	home, _ := os.UserHomeDir()
	out := make([]string, 0, len(dirs))
	seen := map[string]bool{}
	for _, dir := range dirs {
		switch {
		case dir == "" || dir == ".":
			dir = pdfDir
		case dir == "~" || strings.HasPrefix(dir, "~/"):
			if home == "" {
				continue
			}
			dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			out = append(out, dir)
		}
	}
	return out
}

func firstExisting(dirs []string) string {
	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return dirs[0]
}

// declaredPath prefers a relative declaration when configured and the PDF
// is reachable from the notes file's directory.
func declaredPath(notesPath, pdfPath string, relative bool) string {
	if !relative || isRemote(pdfPath) {
		return pdfPath
	}
	rel, err := filepath.Rel(filepath.Dir(notesPath), pdfPath)
	if err != nil {
		return pdfPath
	}
	return rel
}

func resolveAgainst(dir, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if isRemote(value) {
		return value
	}
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(dir, value)
}

// documentBase strips the extension from the document's file name; for a
// URL the name comes from the path component.
func documentBase(source string) string {
	name := filepath.Base(source)
	if isRemote(source) {
		if u, err := url.Parse(source); err == nil && u.Path != "" {
			name = path.Base(u.Path)
		}
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
