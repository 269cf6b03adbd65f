package models

import "testing"

func TestTermFrequencies(t *testing.T) {
	doc := &ItemDocument{ItemID: 1, Tags: "action action science_fiction noir"}
	tf := doc.TermFrequencies()
	if tf["action"] != 2 || tf["science_fiction"] != 1 || tf["noir"] != 1 {
		t.Errorf("tf = %v", tf)
	}
	if len(tf) != 3 {
		t.Errorf("tf has %d terms, want 3", len(tf))
	}
}

func TestTokens_empty(t *testing.T) {
	doc := &ItemDocument{ItemID: 1}
	if got := doc.Tokens(); len(got) != 0 {
		t.Errorf("Tokens() = %v, want empty", got)
	}
	if tf := doc.TermFrequencies(); len(tf) != 0 {
		t.Errorf("TermFrequencies() = %v, want empty", tf)
	}
}
