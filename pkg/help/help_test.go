package help

import (
	"strings"
	"testing"
)

func TestQUICKREFNonEmpty(t *testing.T) {
	if len(QUICKREF) == 0 {
		t.Fatal("QUICKREF is empty")
	}
}

func TestQUICKREFContainsVersion(t *testing.T) {
	if !strings.Contains(QUICKREF, "v1.0") {
		t.Error("QUICKREF does not contain version string v1.0")
	}
}

func TestQUICKREFListsTopics(t *testing.T) {
	for _, topic := range TopicList {
		if !strings.Contains(QUICKREF, topic) {
			t.Errorf("QUICKREF does not mention topic %q", topic)
		}
	}
}

func TestTopicListMatchesTopics(t *testing.T) {
	for _, name := range TopicList {
		if _, ok := Topics[name]; !ok {
			t.Errorf("TopicList entry %q not in Topics map", name)
		}
	}
	if len(TopicList) != len(Topics) {
		t.Errorf("TopicList has %d entries, Topics has %d", len(TopicList), len(Topics))
	}
}

func TestTopicsNonEmpty(t *testing.T) {
	for name, content := range Topics {
		if len(content) == 0 {
			t.Errorf("topic %q has empty content", name)
		}
	}
}

func TestMatchTopicExact(t *testing.T) {
	name, content, err := MatchTopic("syntax")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "syntax" {
		t.Errorf("expected name 'syntax', got %q", name)
	}
	if content == "" {
		t.Error("expected non-empty content")
	}
}

func TestMatchTopicPrefix(t *testing.T) {
	tests := map[string]string{
		"diag": "diagnostics",
		"ex":   "examples",
		"REC":  "recipes",
		" v ":  "verbs",
	}
	for query, want := range tests {
		name, _, err := MatchTopic(query)
		if err != nil {
			t.Errorf("MatchTopic(%q): unexpected error: %v", query, err)
			continue
		}
		if name != want {
			t.Errorf("MatchTopic(%q) = %q, want %q", query, name, want)
		}
	}
}

func TestMatchTopicUnknown(t *testing.T) {
	for _, query := range []string{"nonexistent", "", "syntaxes"} {
		if _, _, err := MatchTopic(query); err == nil {
			t.Errorf("expected error for %q", query)
		}
	}
}

func TestNativesIndex(t *testing.T) {
	idx := NativesIndex()
	for _, want := range []string{"clock()", "show(arg1)", "Total: 2 natives"} {
		if !strings.Contains(idx, want) {
			t.Errorf("NativesIndex missing %q:\n%s", want, idx)
		}
	}
	if !strings.Contains(Topics["natives"], idx) {
		t.Error("natives topic does not embed the index")
	}
}

func TestMatchTopicAllExact(t *testing.T) {
	for _, topic := range TopicList {
		name, content, err := MatchTopic(topic)
		if err != nil {
			t.Errorf("MatchTopic(%q) error: %v", topic, err)
			continue
		}
		if name != topic {
			t.Errorf("MatchTopic(%q) returned name %q", topic, name)
		}
		if content == "" {
			t.Errorf("MatchTopic(%q) returned empty content", topic)
		}
	}
}
