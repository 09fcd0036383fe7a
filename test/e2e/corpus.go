package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/noto/internal/models"
)

// CorpusSection is one section of the synthetic backup: a notebook/section pair
// with the text its file should extract to. Pages holds markdown-style pages
// for plain formats; binary formats flatten them into one block of text.
type CorpusSection struct {
	Notebook string
	Section  string
	Ext      string
	Pages    []CorpusPage
}

// CorpusPage is one page of a corpus section. Each page carries a unique
// signature phrase so queries can assert the right section is returned.
type CorpusPage struct {
	Heading string
	Text    string
}

// QueryCase is a query and the section expected among its results.
type QueryCase struct {
	Query        string
	Mode         models.SearchMode
	FuzzyEnabled bool
	WantNotebook string
	WantSection  string
	Description  string
}

// BuildCorpus returns the synthetic notebook backup used by the e2e tests.
// Sections cycle through every supported file format; every page text contains
// a signature phrase that appears nowhere else in the corpus.
func BuildCorpus() []CorpusSection {
	topics := []struct {
		notebook, section string
		pages             []CorpusPage
	}{
		{"Work", "Standup", []CorpusPage{
			{"Monday", "Reviewed the sprint board and the flaky deploy pipeline. The canary rollout for the billing service is still paused."},
			{"Tuesday", "Paired on the postgres connection pool exhaustion bug. Root cause was a leaked transaction in the retry path."},
		}},
		{"Work", "Architecture", []CorpusPage{
			{"Event bus", "Proposal to replace the cron fanout with a kafka event bus. Consumers get at-least-once delivery with idempotent handlers."},
			{"Caching", "Session data moves to redis with a fifteen minute sliding expiry. Cache invalidation rides the same event bus."},
		}},
		{"Work", "Interviews", []CorpusPage{
			{"Loop notes", "Candidate walked through a rate limiter design using a token bucket per tenant. Strong on tradeoffs, weaker on failure modes."},
		}},
		{"Personal", "Recipes", []CorpusPage{
			{"Ramen", "Tonkotsu broth simmered twelve hours with charred aromatics. The tare is soy, mirin, and dried shiitake."},
			{"Bread", "Sourdough starter fed at ninety percent hydration. Bulk ferment four hours at room temperature before shaping."},
		}},
		{"Personal", "Travel", []CorpusPage{
			{"Kyoto", "Booked the ryokan near the Philosopher's Path for early November. Momiji season peaks in the third week."},
		}},
		{"Personal", "Fitness", []CorpusPage{
			{"Plan", "Three day split with progressive overload on the compound lifts. Deload every sixth week."},
		}},
		{"Research", "Embeddings", []CorpusPage{
			{"Pooling", "Mean pooling over token vectors beat cls pooling on the retrieval benchmark by four points."},
			{"Quantization", "Int8 quantization of the embedding matrix cost under one percent recall at a quarter of the memory."},
		}},
		{"Research", "Papers", []CorpusPage{
			{"Reading list", "The locality sensitive hashing survey covers minhash and simhash families. Good background for dedup work."},
		}},
		{"Research", "Datasets", []CorpusPage{
			{"Licensing", "The crawl subset is cc-by licensed; attribution strings must ship with any derived corpus."},
		}},
	}

	exts := SupportedFileExtensions
	sections := make([]CorpusSection, 0, len(topics))
	for i, tp := range topics {
		sections = append(sections, CorpusSection{
			Notebook: tp.notebook,
			Section:  tp.section,
			Ext:      exts[i%len(exts)],
			Pages:    tp.pages,
		})
	}
	return sections
}

// CorpusQueryCases returns query cases targeting signature phrases of the
// corpus, mixing exact and keyword modes.
func CorpusQueryCases() []QueryCase {
	return []QueryCase{
		{Query: "connection pool exhaustion", Mode: models.ModeExact, WantNotebook: "Work", WantSection: "Standup", Description: "exact phrase in a standup page"},
		{Query: "kafka event bus", Mode: models.ModeExact, WantNotebook: "Work", WantSection: "Architecture", Description: "exact phrase in architecture notes"},
		{Query: "token bucket", Mode: models.ModeExact, WantNotebook: "Work", WantSection: "Interviews", Description: "exact phrase in interview notes"},
		{Query: "Tonkotsu", Mode: models.ModeExact, WantNotebook: "Personal", WantSection: "Recipes", Description: "exact match is case-insensitive"},
		{Query: "philosopher's path", Mode: models.ModeExact, WantNotebook: "Personal", WantSection: "Travel", Description: "exact phrase with punctuation"},
		{Query: "sourdough hydration", Mode: models.ModeKeyword, WantNotebook: "Personal", WantSection: "Recipes", Description: "keyword terms from one recipe page"},
		{Query: "quantization recall", Mode: models.ModeKeyword, WantNotebook: "Research", WantSection: "Embeddings", Description: "keyword terms from research notes"},
		{Query: "minhash simhash", Mode: models.ModeKeyword, WantNotebook: "Research", WantSection: "Papers", Description: "keyword terms from the reading list"},
		{Query: "progressive overload", Mode: models.ModeKeyword, WantNotebook: "Personal", WantSection: "Fitness", Description: "keyword phrase from the training plan"},
		{Query: "quantizaton", Mode: models.ModeKeyword, FuzzyEnabled: true, WantNotebook: "Research", WantSection: "Embeddings", Description: "fuzzy keyword tolerates a typo"},
	}
}

// SectionText renders a corpus section as the text handed to MinimalFile.
// Plain formats get markdown headings so the extractor splits them into pages;
// binary formats get one flat block since their containers hold a single text
// run anyway.
func (s CorpusSection) SectionText() string {
	switch s.Ext {
	case ".txt", ".md", ".rst":
		var b strings.Builder
		for _, p := range s.Pages {
			fmt.Fprintf(&b, "# %s\n%s\n", p.Heading, p.Text)
		}
		return b.String()
	default:
		parts := make([]string, len(s.Pages))
		for i, p := range s.Pages {
			parts[i] = p.Text
		}
		return strings.Join(parts, " ")
	}
}

// WriteBackupTree writes the corpus under root the way the backup tool lays
// files out: <root>/<notebook>/<section> (On <date>).<ext>. Returns the number
// of files written.
func WriteBackupTree(root, date string, sections []CorpusSection) (int, error) {
	for _, s := range sections {
		dir := filepath.Join(root, s.Notebook)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, err
		}
		content, err := MinimalFile(s.Ext, s.SectionText())
		if err != nil {
			return 0, fmt.Errorf("build %s file for %s/%s: %w", s.Ext, s.Notebook, s.Section, err)
		}
		name := fmt.Sprintf("%s (On %s)%s", s.Section, date, s.Ext)
		if err := os.WriteFile(filepath.Join(dir, name), content, 0644); err != nil {
			return 0, err
		}
	}
	return len(sections), nil
}
