package e2e

import (
	"strings"
	"testing"

	"github.com/hyperjump/noto/internal/extract"
)

// Every supported format must round-trip: the text handed to MinimalFile comes
// back out of the extractor.
func TestMinimalFilesAreExtractable(t *testing.T) {
	extractor := extract.NewExtractor()
	const signature = "minimal fixture signature phrase"

	for _, ext := range SupportedFileExtensions {
		t.Run(ext, func(t *testing.T) {
			content, err := MinimalFile(ext, signature)
			if err != nil {
				t.Fatalf("MinimalFile(%s): %v", ext, err)
			}
			pages, err := extractor.PagesFromBytes(content, ext, "Fixture")
			if err != nil {
				t.Fatalf("extract %s: %v", ext, err)
			}
			if len(pages) == 0 {
				t.Fatalf("%s extracted zero pages", ext)
			}
			var all strings.Builder
			for _, p := range pages {
				all.WriteString(p.Text)
				all.WriteByte(' ')
			}
			if !strings.Contains(all.String(), signature) {
				t.Errorf("%s lost the text: %q", ext, all.String())
			}
		})
	}
}

func TestMinimalFilesPlainFormatsSplitOnHeadings(t *testing.T) {
	extractor := extract.NewExtractor()
	content, err := MinimalFile(".md", "# First\nalpha\n# Second\nbeta\n")
	if err != nil {
		t.Fatal(err)
	}
	pages, err := extractor.PagesFromBytes(content, ".md", "Fixture")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if pages[0].Title != "First" || pages[1].Title != "Second" {
		t.Errorf("titles = %q, %q", pages[0].Title, pages[1].Title)
	}
}
