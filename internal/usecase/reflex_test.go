package usecase

import "testing"

func TestReflexMatchCaseInsensitive(t *testing.T) {
	table := NewReflexTable(DefaultReflexes())

	reply, ok := table.Match("HELLO there")
	if !ok {
		t.Fatal("expected a match for 'HELLO there'")
	}
	if reply != "Hello! I'm The Qore, your cognitive interface." {
		t.Fatalf("reply = %q", reply)
	}
}

func TestReflexLongestTriggerWins(t *testing.T) {
	table := NewReflexTable([]Reflex{
		{"what", "short"},
		{"what are you", "long"},
	})
	reply, ok := table.Match("so, what are you exactly?")
	if !ok {
		t.Fatal("expected a match")
	}
	if reply != "long" {
		t.Fatalf("reply = %q, want the longest trigger's response", reply)
	}
}

func TestReflexSubstringMatch(t *testing.T) {
	table := NewReflexTable(DefaultReflexes())
	if _, ok := table.Match("could you help me with something"); !ok {
		t.Fatal("'help' embedded in a sentence should match")
	}
}

func TestReflexNoMatch(t *testing.T) {
	table := NewReflexTable(DefaultReflexes())
	if reply, ok := table.Match("summarize my quarterly notes"); ok {
		t.Fatalf("unexpected match: %q", reply)
	}
}
