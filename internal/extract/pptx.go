package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/noto/internal/models"
)

// pptxSlideRe matches slide XML paths inside a .pptx zip and captures the slide number.
var pptxSlideRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// atTag matches <a:t>text</a:t> with any attributes.
var atTag = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

// pagesFromPPTX yields one page per slide, in slide-number order. PPTX is a ZIP
// containing ppt/slides/slideN.xml (Office Open XML); we extract all
// <a:t>...</a:t> text nodes from each slide.
func pagesFromPPTX(content []byte, defaultTitle string) ([]models.Page, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract PPTX: not a zip: %w", err)
	}
	type slide struct {
		num  int
		name string
	}
	var slides []slide
	for _, f := range zr.File {
		m := pptxSlideRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: n, name: f.Name})
	}
	// Zip entry order is not slide order.
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	pages := make([]models.Page, 0, len(slides))
	for _, s := range slides {
		slideXML, err := readZipFile(zr, s.name)
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: %w", err)
		}
		var buf strings.Builder
		for _, p := range atTag.FindAllStringSubmatch(string(slideXML), -1) {
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(strings.TrimSpace(p[1]))
		}
		pages = append(pages, models.Page{
			Title: fmt.Sprintf("%s (slide %d)", defaultTitle, s.num),
			Text:  buf.String(),
		})
	}
	return pages, nil
}
