// Package models defines core data structures for pages, sources, queries, and search results.
package models

// Page is the smallest indexed unit of content: a titled block of text
// extracted from a section file.
type Page struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Group identifies the logical container a page belongs to: a notebook/section pair.
// Matching is case-sensitive and exact.
type Group struct {
	Notebook string `json:"notebook"`
	Section  string `json:"section"`
}

// SourceFile is one group's current backing file as reported by discovery.
// Version is the file's modification time in UnixNano; it changes whenever the
// backup tool rewrites the file, even when the pages inside are identical.
type SourceFile struct {
	Group   `json:"group"`
	Path    string `json:"path"`
	Version int64  `json:"version"`
}
