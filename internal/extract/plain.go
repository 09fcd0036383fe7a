package extract

import (
	"strings"

	"github.com/hyperjump/noto/internal/models"
)

// pagesFromPlain splits text content into pages on markdown-style "# " headings.
// Each heading starts a new page titled by the heading text; content before the
// first heading becomes a page titled defaultTitle. A file without headings is
// a single page.
func pagesFromPlain(content []byte, defaultTitle string) ([]models.Page, error) {
	lines := strings.Split(string(content), "\n")

	var pages []models.Page
	title := defaultTitle
	var body []string
	flush := func() {
		pages = append(pages, models.Page{Title: title, Text: strings.Join(body, "\n")})
		body = body[:0]
	}
	for _, line := range lines {
		if heading, ok := strings.CutPrefix(line, "# "); ok {
			flush()
			title = strings.TrimSpace(heading)
			continue
		}
		body = append(body, line)
	}
	flush()
	return pages, nil
}
