package outline

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Property and keyword names that make up the interleave file format.
const (
	PropertyPDF      = "INTERLEAVE_PDF"
	PropertyPageNote = "interleave_page_note"
)

const (
	drawerBegin = ":PROPERTIES:"
	drawerEnd   = ":END:"
)

var (
	headingPattern  = regexp.MustCompile(`^(\*+)\s+(.*)$`)
	keywordPattern  = regexp.MustCompile(`^#\+([A-Za-z_][A-Za-z0-9_]*):\s*(.*)$`)
	propertyPattern = regexp.MustCompile(`^\s*:([^:\s]+):\s*(.*)$`)
)

// Property is a single key/value pair from a heading's property drawer.
type Property struct {
	Name  string
	Value string

	// raw is the original drawer line, kept so untouched properties render
	// back byte-identically. Cleared on edit.
	raw string
}

// Heading is one node of the outline tree: a title line, an optional
// property drawer, free-form body lines, and nested child headings.
type Heading struct {
	Level      int
	Title      string
	Properties []Property
	Body       []string
	Children   []*Heading

	parent *Heading

	// Original drawer delimiter lines; empty for drawers written fresh.
	drawerOpen  string
	drawerClose string
}

// Document is a parsed outline file. Prelude holds every line that appears
// before the first heading, verbatim, so unrecognized content survives a
// load/save cycle.
type Document struct {
	Path     string
	Prelude  []string
	Headings []*Heading
}

// Load reads and parses the outline file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load outline: %w", err)
	}
	doc := Parse(string(data))
	doc.Path = path
	return doc, nil
}

// Parse builds a Document from outline text. Parsing cannot fail: anything
// that is not a heading, drawer, or keyword line is kept as body text.
func Parse(text string) *Document {
	doc := &Document{}
	lines := splitLines(text)

	var stack []*Heading
	i := 0
	for i < len(lines) {
		match := headingPattern.FindStringSubmatch(lines[i])
		if match == nil {
			if len(stack) == 0 {
				doc.Prelude = append(doc.Prelude, lines[i])
			} else {
				current := stack[len(stack)-1]
				current.Body = append(current.Body, lines[i])
			}
			i++
			continue
		}

		heading := &Heading{
			Level: len(match[1]),
			Title: strings.TrimRight(match[2], " \t"),
		}
		i++
		i = parseDrawer(lines, i, heading)

		for len(stack) > 0 && stack[len(stack)-1].Level >= heading.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			doc.Headings = append(doc.Headings, heading)
		} else {
			parent := stack[len(stack)-1]
			heading.parent = parent
			parent.Children = append(parent.Children, heading)
		}
		stack = append(stack, heading)
	}
	return doc
}

// parseDrawer consumes a property drawer directly below a heading line, if
// present, and returns the index of the first line after it.
func parseDrawer(lines []string, i int, heading *Heading) int {
	if i >= len(lines) || !strings.EqualFold(strings.TrimSpace(lines[i]), drawerBegin) {
		return i
	}
	j := i + 1
	var props []Property
	for j < len(lines) {
		trimmed := strings.TrimSpace(lines[j])
		if strings.EqualFold(trimmed, drawerEnd) {
			heading.Properties = props
			heading.drawerOpen = lines[i]
			heading.drawerClose = lines[j]
			return j + 1
		}
		match := propertyPattern.FindStringSubmatch(lines[j])
		if match == nil {
			break
		}
		props = append(props, Property{Name: match[1], Value: strings.TrimSpace(match[2]), raw: lines[j]})
		j++
	}
	// Unterminated drawer: treat the whole run as ordinary body text.
	return i
}

// String renders the document back to outline text.
func (d *Document) String() string {
	var b strings.Builder
	for _, line := range d.Prelude {
		b.WriteString(line)
		b.WriteRune('\n')
	}
	for _, h := range d.Headings {
		renderHeading(&b, h)
	}
	return b.String()
}

func renderHeading(b *strings.Builder, h *Heading) {
	b.WriteString(strings.Repeat("*", h.Level))
	b.WriteRune(' ')
	b.WriteString(h.Title)
	b.WriteRune('\n')
	if len(h.Properties) > 0 {
		open := h.drawerOpen
		if open == "" {
			open = drawerBegin
		}
		indent := open[:len(open)-len(strings.TrimLeft(open, " \t"))]
		b.WriteString(open)
		b.WriteRune('\n')
		for _, p := range h.Properties {
			if p.raw != "" {
				b.WriteString(p.raw)
				b.WriteRune('\n')
			} else {
				fmt.Fprintf(b, "%s:%s: %s\n", indent, p.Name, p.Value)
			}
		}
		if h.drawerClose != "" {
			b.WriteString(h.drawerClose)
		} else {
			b.WriteString(indent + drawerEnd)
		}
		b.WriteRune('\n')
	}
	for _, line := range h.Body {
		b.WriteString(line)
		b.WriteRune('\n')
	}
	for _, child := range h.Children {
		renderHeading(b, child)
	}
}

// Save writes the rendered document back to its path.
func (d *Document) Save() error {
	if d.Path == "" {
		return fmt.Errorf("save outline: document has no path")
	}
	if err := os.MkdirAll(filepath.Dir(d.Path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(d.Path, []byte(d.String()), 0o644)
}

// Walk visits every heading in document order. The walk stops early when fn
// returns false.
func (d *Document) Walk(fn func(*Heading) bool) {
	for _, h := range d.Headings {
		if !walkHeading(h, fn) {
			return
		}
	}
}

// Walk visits the heading and its descendants in document order.
func (h *Heading) Walk(fn func(*Heading) bool) {
	walkHeading(h, fn)
}

func walkHeading(h *Heading, fn func(*Heading) bool) bool {
	if !fn(h) {
		return false
	}
	for _, child := range h.Children {
		if !walkHeading(child, fn) {
			return false
		}
	}
	return true
}

// Parent returns the enclosing heading, or nil for a top-level heading.
func (h *Heading) Parent() *Heading { return h.parent }

// Property returns the value for name. Lookup is case-insensitive, matching
// how outline editors treat drawer keys.
func (h *Heading) Property(name string) (string, bool) {
	for _, p := range h.Properties {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// SetProperty replaces the value for name, or appends the pair when absent.
// The edited line is rewritten at the drawer's indentation.
func (h *Heading) SetProperty(name, value string) {
	for i, p := range h.Properties {
		if strings.EqualFold(p.Name, name) {
			h.Properties[i].Value = value
			h.Properties[i].raw = ""
			return
		}
	}
	h.Properties = append(h.Properties, Property{Name: name, Value: value})
}

// PageNote returns the heading's page number. Missing, non-numeric, and
// non-positive values all report false; a malformed property is never an
// error.
func (h *Heading) PageNote() (int, bool) {
	raw, ok := h.Property(PropertyPageNote)
	if !ok {
		return 0, false
	}
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page <= 0 {
		return 0, false
	}
	return page, true
}

// Keyword returns the value of a #+NAME: line from the document prelude.
func (d *Document) Keyword(name string) (string, bool) {
	for _, line := range d.Prelude {
		match := keywordPattern.FindStringSubmatch(line)
		if match != nil && strings.EqualFold(match[1], name) {
			return strings.TrimSpace(match[2]), true
		}
	}
	return "", false
}

// SetKeyword replaces an existing #+NAME: line or prepends a new one.
func (d *Document) SetKeyword(name, value string) {
	for i, line := range d.Prelude {
		match := keywordPattern.FindStringSubmatch(line)
		if match != nil && strings.EqualFold(match[1], name) {
			d.Prelude[i] = fmt.Sprintf("#+%s: %s", match[1], value)
			return
		}
	}
	d.Prelude = append([]string{fmt.Sprintf("#+%s: %s", name, value)}, d.Prelude...)
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
