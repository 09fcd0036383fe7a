// Package extract turns section files into ordered lists of pages.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/noto/internal/models"
)

// PageExtractor extracts the ordered pages of a section file. Implementations
// may perform format parsing, OCR, or other enrichment; callers only see pages.
type PageExtractor interface {
	ExtractPages(path string) ([]models.Page, error)
}

// Extractor extracts pages from the supported section file formats.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractPages reads the file at path and returns its pages in document order.
// Page granularity depends on the format: plain text and markdown split on
// "# " headings, PDFs yield one page per PDF page, spreadsheets one per sheet,
// presentations one per slide, and DOCX/ODT/ODS a single page. Returns an error
// if the file cannot be read or parsed; the caller treats that as "this file
// contributes zero pages" and moves on.
func (e *Extractor) ExtractPages(path string) ([]models.Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.PagesFromBytes(content, ext, baseTitle(path))
}

// PagesFromBytes extracts pages from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"); defaultTitle names pages
// in formats that carry no titles of their own.
func (e *Extractor) PagesFromBytes(content []byte, ext, defaultTitle string) ([]models.Page, error) {
	var pages []models.Page
	var err error
	switch ext {
	case ".pdf":
		pages, err = pagesFromPDF(content, defaultTitle)
	case ".docx", ".odt", ".rtf":
		pages, err = pagesFromDOCX(content, defaultTitle)
	case ".xlsx":
		pages, err = pagesFromExcel(content)
	case ".pptx":
		pages, err = pagesFromPPTX(content, defaultTitle)
	case ".odp":
		pages, err = pagesFromODP(content, defaultTitle)
	case ".ods":
		pages, err = pagesFromODS(content, defaultTitle)
	default:
		// Plain text, markdown, and anything unknown.
		pages, err = pagesFromPlain(content, defaultTitle)
	}
	if err != nil {
		return nil, err
	}
	return cleanPages(pages), nil
}

// backupDateSuffix matches the date tag the backup tool appends to file names,
// e.g. "Algorithm (On 1-4-2026)" or "Daily (On 02.02.26)".
var backupDateSuffix = regexp.MustCompile(`\s*\(On [\d.\-]+\)$`)

// baseTitle derives a display title from a file path: base name without
// extension and without the backup date suffix.
func baseTitle(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = backupDateSuffix.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// cleanPages normalizes every page and drops pages left with no text.
func cleanPages(pages []models.Page) []models.Page {
	out := pages[:0]
	for _, p := range pages {
		p.Title = CleanText(p.Title)
		p.Text = CleanText(p.Text)
		if p.Text == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// CleanText strips NUL bytes, replaces invalid UTF-8, and trims whitespace.
// Backup formats pad strings with NULs, which would otherwise leak into
// fingerprints and snippets.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return strings.TrimSpace(s)
}
