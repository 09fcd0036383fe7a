package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/hyperjump/noto/internal/models"
)

// pagesFromPDF yields one page per PDF page. Empty PDF pages are dropped later
// by the shared cleaning pass.
func pagesFromPDF(content []byte, defaultTitle string) ([]models.Page, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	pages := make([]models.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		title := defaultTitle
		if numPages > 1 {
			title = fmt.Sprintf("%s (p. %d)", defaultTitle, i)
		}
		pages = append(pages, models.Page{Title: title, Text: text})
	}
	return pages, nil
}
