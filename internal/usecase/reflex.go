// File: internal/usecase/reflex.go
package usecase

import "strings"

// Reflex is a fixed trigger-phrase-to-canned-response shortcut. A match
// bypasses AI generation entirely.
type Reflex struct {
	Trigger  string
	Response string
}

// ReflexTable matches incoming messages against canned triggers.
// Matching is case-insensitive substring, longest trigger first, so
// "what are you" wins over "what" and "hello" over "hi".
type ReflexTable struct {
	reflexes []Reflex
}

func NewReflexTable(reflexes []Reflex) *ReflexTable {
	sorted := make([]Reflex, len(reflexes))
	copy(sorted, reflexes)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && len(sorted[j].Trigger) > len(sorted[j-1].Trigger); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return &ReflexTable{reflexes: sorted}
}

// DefaultReflexes is the canned set shipped with The Qore chat surface.
func DefaultReflexes() []Reflex {
	return []Reflex{
		{"hello", "Hello! I'm The Qore, your cognitive interface."},
		{"hi", "Hi there! How can I help you think today?"},
		{"help", "I can help you build a knowledge graph, manage ideas, and think more clearly. Try asking me something or just start chatting!"},
		{"what are you", "I'm The Qore - a neural interface that helps you think. I maintain a graph of your memories and ideas, and I learn from our conversations."},
		{"how do you work", "I store your thoughts as nodes in a graph, connected by relationships. When you talk to me, I find relevant context and update the graph based on our conversation."},
	}
}

// Match returns the canned response for the first matching trigger.
func (t *ReflexTable) Match(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, r := range t.reflexes {
		if strings.Contains(lower, strings.ToLower(r.Trigger)) {
			return r.Response, true
		}
	}
	return "", false
}
