package models

// IndexEntry is one indexed page. Entries live in the metadata sequence of the
// semantic index; the embedding itself is held in the parallel matrix row at the
// same position, never inline.
type IndexEntry struct {
	Notebook  string `json:"notebook" db:"notebook"`
	Section   string `json:"section" db:"section"`
	PageTitle string `json:"page_title" db:"page_title"`
	Text      string `json:"text" db:"text"`
	// ContentHash is the fingerprint of (title, text): a rename-resilient
	// identity that survives the backup tool rewriting and renaming files.
	ContentHash string `json:"content_hash" db:"content_hash"`
	// SourcePath and SourceVersion record the file that most recently produced
	// this entry. They are rewritten on reuse-by-content-match so the next
	// build's fast path applies; the embedding is untouched by that rewrite.
	SourcePath    string `json:"source_path" db:"source_path"`
	SourceVersion int64  `json:"source_version" db:"source_version"`
}

// Key returns the dedup identity of the entry within one build:
// (notebook, section, content_hash). The reuse path treats this as identity.
func (e *IndexEntry) Key() EntryKey {
	return EntryKey{Notebook: e.Notebook, Section: e.Section, ContentHash: e.ContentHash}
}

// EntryKey is the comparable (notebook, section, content_hash) triple.
type EntryKey struct {
	Notebook    string
	Section     string
	ContentHash string
}

// String renders the key as a single stable identifier, used as the keyword
// index document ID. Fields are joined with the unit separator, which cannot
// appear in notebook or section names.
func (k EntryKey) String() string {
	return k.Notebook + "\x1f" + k.Section + "\x1f" + k.ContentHash
}
