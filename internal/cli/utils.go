// Package cli provides CLI output formatting for Noto.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/noto/internal/models"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact is one result per line, grep-friendly.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// ParseOutputFormat validates an --output flag value.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch SearchOutputFormat(s) {
	case OutputText, OutputCompact, OutputJSON:
		return SearchOutputFormat(s), nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		writeSearchResultsCompact(w, response)
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms (%s mode)\n\n",
		response.Total, response.QueryTime, response.Mode)
	for _, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", result.Rank, result.Score)
		fmt.Fprintf(w, "%s > %s > %s\n", result.Notebook, result.Section, result.PageTitle)
		if result.Snippet != "" {
			fmt.Fprintf(w, "\n%s\n", result.Snippet)
		}
		fmt.Fprintln(w)
	}
}

func writeSearchResultsCompact(w io.Writer, response *models.SearchResponse) {
	for _, result := range response.Results {
		fmt.Fprintf(w, "%d\t%.4f\t%s/%s/%s\n",
			result.Rank, result.Score, result.Notebook, result.Section, result.PageTitle)
	}
}

// WriteBuildStats writes one build's statistics to w.
func WriteBuildStats(w io.Writer, stats *models.BuildStats, format SearchOutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Fprintf(w, "build %s finished in %dms\n", stats.BuildID, stats.DurationMS)
	fmt.Fprintf(w, "  pages total:    %d\n", stats.Total)
	fmt.Fprintf(w, "  reused:         %d\n", stats.Reused)
	fmt.Fprintf(w, "  newly embedded: %d\n", stats.Embedded)
	fmt.Fprintf(w, "  removed:        %d\n", stats.Removed)
	return nil
}
