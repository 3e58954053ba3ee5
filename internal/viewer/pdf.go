package viewer

import (
	"context"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDF is a Viewer backed by a PDF file on disk. Page text is extracted
// lazily and memoized per page.
type PDF struct {
	source string
	reader *pdflib.Reader
	closer interface{ Close() error }
	page   int
	count  int
	text   map[int]string
	hook   func(page int)
}

// OpenPDF opens a PDF document. An http(s) source is first fetched into the
// local download cache. The viewer starts positioned on page 1.
func OpenPDF(ctx context.Context, source string) (*PDF, error) {
	path := source
	if isRemote(source) {
		cache, err := newFetchCache(nil)
		if err != nil {
			return nil, fmt.Errorf("open pdf: %w", err)
		}
		path, err = cache.Fetch(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("open pdf: %w", err)
		}
	}

	file, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	count := reader.NumPage()
	if count < 1 {
		file.Close()
		return nil, ErrNoPages
	}
	return &PDF{
		source: source,
		reader: reader,
		closer: file,
		page:   1,
		count:  count,
		text:   make(map[int]string, count),
	}, nil
}

func (p *PDF) Path() string     { return p.source }
func (p *PDF) PageCount() int   { return p.count }
func (p *PDF) CurrentPage() int { return p.page }

func (p *PDF) JumpTo(page int) error {
	page = clampPage(page, p.count)
	if page == p.page {
		return nil
	}
	p.page = page
	if p.hook != nil {
		p.hook(page)
	}
	return nil
}

func (p *PDF) PageText(page int) (string, error) {
	page = clampPage(page, p.count)
	if cached, ok := p.text[page]; ok {
		return cached, nil
	}
	pg := p.reader.Page(page)
	if pg.V.IsNull() {
		p.text[page] = ""
		return "", nil
	}
	text, err := pg.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extract page %d: %w", page, err)
	}
	p.text[page] = text
	return text, nil
}

func (p *PDF) OnPageChange(fn func(page int)) { p.hook = fn }

func (p *PDF) Close() error {
	if p.closer == nil {
		return nil
	}
	err := p.closer.Close()
	p.closer = nil
	return err
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
