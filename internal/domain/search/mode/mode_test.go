package mode

import "testing"

func TestIsValid(t *testing.T) {
	for _, m := range []Mode{Hybrid, Semantic, Keyword} {
		if !m.IsValid() {
			t.Errorf("%q should be valid", m)
		}
	}
	for _, m := range []Mode{"", "HYBRID", "fulltext"} {
		if m.IsValid() {
			t.Errorf("%q should be invalid", m)
		}
	}
}

func TestNeedsSemantic(t *testing.T) {
	if !Hybrid.NeedsSemantic() || !Semantic.NeedsSemantic() {
		t.Error("hybrid and semantic require the semantic retriever")
	}
	if Keyword.NeedsSemantic() {
		t.Error("keyword mode must not require the semantic retriever")
	}
}

func TestNeedsKeyword(t *testing.T) {
	if !Hybrid.NeedsKeyword() || !Keyword.NeedsKeyword() {
		t.Error("hybrid and keyword require the keyword retriever")
	}
	if Semantic.NeedsKeyword() {
		t.Error("semantic mode must not require the keyword retriever")
	}
}
