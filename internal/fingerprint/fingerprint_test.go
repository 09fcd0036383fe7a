package fingerprint

import "testing"

func TestPage_Deterministic(t *testing.T) {
	a := Page("Standup", "discussed roadmap")
	b := Page("Standup", "discussed roadmap")
	if a != b {
		t.Errorf("same content hashed differently: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestPage_TextChangesHash(t *testing.T) {
	a := Page("Standup", "discussed roadmap")
	b := Page("Standup", "discussed roadmap and hiring")
	if a == b {
		t.Error("changed text must change the fingerprint")
	}
}

func TestPage_TitleChangesHash(t *testing.T) {
	a := Page("Standup", "notes")
	b := Page("Retro", "notes")
	if a == b {
		t.Error("changed title must change the fingerprint")
	}
}

func TestPage_BoundaryNotAmbiguous(t *testing.T) {
	// Without a separator, ("ab", "c") and ("a", "bc") would collide.
	if Page("ab", "c") == Page("a", "bc") {
		t.Error("title/text boundary must affect the fingerprint")
	}
}
