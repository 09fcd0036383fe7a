package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperjump/noto/internal/models"
)

// odfContentPath is the path to the main content inside OpenDocument zips.
const odfContentPath = "content.xml"

// OpenDocument text elements (with optional attributes). Separate patterns so
// opening and closing tags match (e.g. <text:p>...</text:p> only).
var (
	odfTextH    = regexp.MustCompile(`<text:h[^>]*>([^<]*)</text:h>`)
	odfTextP    = regexp.MustCompile(`<text:p[^>]*>([^<]*)</text:p>`)
	odfTextSpan = regexp.MustCompile(`<text:span[^>]*>([^<]*)</text:span>`)
	odfDrawPage = regexp.MustCompile(`<draw:page[^>]*>`)
)

// readODFContent returns content.xml from an OpenDocument zip.
func readODFContent(content []byte, format string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract %s: not a zip: %w", format, err)
	}
	xml, err := readZipFile(zr, odfContentPath)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", format, err)
	}
	return string(xml), nil
}

// odfText joins the text of the given OpenDocument elements in s.
func odfText(s string, patterns ...*regexp.Regexp) string {
	var b strings.Builder
	for _, re := range patterns {
		for _, p := range re.FindAllStringSubmatch(s, -1) {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strings.TrimSpace(p[1]))
		}
	}
	return b.String()
}

// pagesFromODP yields one page per slide of an OpenDocument presentation.
// content.xml holds all slides as draw:page elements; each slide's page is
// titled by its text:h heading when present.
func pagesFromODP(content []byte, defaultTitle string) ([]models.Page, error) {
	s, err := readODFContent(content, "ODP")
	if err != nil {
		return nil, err
	}
	bounds := odfDrawPage.FindAllStringIndex(s, -1)
	if bounds == nil {
		// No slides; fall back to one page with whatever text there is.
		return []models.Page{{Title: defaultTitle, Text: odfText(s, odfTextH, odfTextP, odfTextSpan)}}, nil
	}
	pages := make([]models.Page, 0, len(bounds))
	for i, b := range bounds {
		end := len(s)
		if i+1 < len(bounds) {
			end = bounds[i+1][0]
		}
		slide := s[b[0]:end]
		title := fmt.Sprintf("%s (slide %d)", defaultTitle, i+1)
		if m := odfTextH.FindStringSubmatch(slide); m != nil && strings.TrimSpace(m[1]) != "" {
			title = strings.TrimSpace(m[1])
		}
		pages = append(pages, models.Page{Title: title, Text: odfText(slide, odfTextP, odfTextSpan, odfTextH)})
	}
	return pages, nil
}

// pagesFromODS yields a single page from an OpenDocument spreadsheet, with all
// cell text from text:p and text:span elements.
func pagesFromODS(content []byte, defaultTitle string) ([]models.Page, error) {
	s, err := readODFContent(content, "ODS")
	if err != nil {
		return nil, err
	}
	return []models.Page{{Title: defaultTitle, Text: odfText(s, odfTextP, odfTextSpan)}}, nil
}
