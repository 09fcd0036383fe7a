package models

// SearchResult is a single search hit.
type SearchResult struct {
	Notebook  string  `json:"notebook"`
	Section   string  `json:"section"`
	PageTitle string  `json:"page_title"`
	Snippet   string  `json:"snippet,omitempty"`
	Score     float64 `json:"score"`
	Rank      int     `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	Mode      SearchMode      `json:"mode"`
	Query     string          `json:"query"`
	QueryTime int64           `json:"query_time_ms"`
}

// BuildStats summarizes one index build cycle.
type BuildStats struct {
	BuildID    string `json:"build_id"`
	Total      int    `json:"total"`
	Reused     int    `json:"reused"`
	Embedded   int    `json:"embedded"`
	Removed    int    `json:"removed"`
	DurationMS int64  `json:"duration_ms"`
}
