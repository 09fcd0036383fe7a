package models

import "testing"

func TestSearchQuery_Validate(t *testing.T) {
	q := &SearchQuery{Query: "meeting notes"}
	if err := q.Validate(20, 100); err != nil {
		t.Fatal(err)
	}
	if q.TopK != 20 {
		t.Errorf("TopK default = %d, want 20", q.TopK)
	}
	if q.Mode != ModeSemantic {
		t.Errorf("Mode default = %q, want semantic", q.Mode)
	}
}

func TestSearchQuery_Validate_Empty(t *testing.T) {
	q := &SearchQuery{}
	if err := q.Validate(20, 100); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestSearchQuery_Validate_CapsTopK(t *testing.T) {
	q := &SearchQuery{Query: "x", TopK: 500}
	if err := q.Validate(20, 100); err != nil {
		t.Fatal(err)
	}
	if q.TopK != 100 {
		t.Errorf("TopK = %d, want capped to 100", q.TopK)
	}
}

func TestSearchQuery_Validate_BadMode(t *testing.T) {
	q := &SearchQuery{Query: "x", Mode: "hybrid"}
	if err := q.Validate(20, 100); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestEntryKey_String(t *testing.T) {
	a := IndexEntry{Notebook: "Work", Section: "Daily", ContentHash: "abc"}
	b := IndexEntry{Notebook: "Work", Section: "Daily", ContentHash: "abc"}
	if a.Key() != b.Key() {
		t.Error("identical entries should share a key")
	}
	c := IndexEntry{Notebook: "Work", Section: "Weekly", ContentHash: "abc"}
	if a.Key().String() == c.Key().String() {
		t.Error("different sections must not collide")
	}
}
