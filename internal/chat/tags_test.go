package chat

import "testing"

func TestExtractAgentTagRoundTrip(t *testing.T) {
	tag, cleaned := ExtractAgentTag("[[TECH]] fix your bug")
	if tag != TagTech {
		t.Fatalf("expected TECH, got %s", tag)
	}
	if cleaned != "fix your bug" {
		t.Fatalf("unexpected cleaned text %q", cleaned)
	}
}

func TestExtractAgentTagNoMarker(t *testing.T) {
	input := "hello, how can I help?"
	tag, cleaned := ExtractAgentTag(input)
	if tag != TagTeam {
		t.Fatalf("expected TEAM default, got %s", tag)
	}
	if cleaned != input {
		t.Fatalf("expected input unchanged, got %q", cleaned)
	}
}

func TestExtractAgentTagIdempotent(t *testing.T) {
	_, cleaned := ExtractAgentTag("[[DATA]] the join is wrong")
	tag, again := ExtractAgentTag(cleaned)
	if tag != TagTeam {
		t.Fatalf("expected no tag on second pass, got %s", tag)
	}
	if again != cleaned {
		t.Fatalf("second extraction changed text: %q vs %q", again, cleaned)
	}
}

func TestExtractAgentTagMidText(t *testing.T) {
	tag, cleaned := ExtractAgentTag("routing to [[DOCS]] for this one")
	if tag != TagDocs {
		t.Fatalf("expected DOCS, got %s", tag)
	}
	if cleaned != "routing to  for this one" {
		t.Fatalf("unexpected cleaned text %q", cleaned)
	}
}

func TestExtractAgentTagUnknownMarker(t *testing.T) {
	input := "[[PIRATE]] arr"
	tag, cleaned := ExtractAgentTag(input)
	if tag != TagTeam {
		t.Fatalf("expected TEAM for unknown marker, got %s", tag)
	}
	if cleaned != input {
		t.Fatalf("expected unknown marker preserved, got %q", cleaned)
	}
}

func TestExtractAgentTagFirstKnownWins(t *testing.T) {
	tag, cleaned := ExtractAgentTag("[[UNKNOWN]] [[MEMORY]] you told me last week")
	if tag != TagMemory {
		t.Fatalf("expected MEMORY, got %s", tag)
	}
	if cleaned != "[[UNKNOWN]]  you told me last week" {
		t.Fatalf("unexpected cleaned text %q", cleaned)
	}
}
