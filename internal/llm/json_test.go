package llm

import "testing"

func TestExtractJSONObjectFencedJSON(t *testing.T) {
	text := "here you go:\n```json\n{\"a\": 1}\n```\nthanks"
	got := ExtractJSONObject(text)
	if got != `{"a": 1}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractJSONObjectBareFence(t *testing.T) {
	text := "```\n{\"a\": 1}\n```"
	got := ExtractJSONObject(text)
	if got != `{"a": 1}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractJSONObjectProseSurrounding(t *testing.T) {
	text := "Sure, the result is {\"a\": 1} as requested."
	got := ExtractJSONObject(text)
	if got != `{"a": 1}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractJSONArrayFencedJSON(t *testing.T) {
	text := "```json\n[{\"title\":\"X\"}]\n```"
	got := ExtractJSONArray(text)
	if got != `[{"title":"X"}]` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractJSONArrayNoDelimiters(t *testing.T) {
	text := "no json here"
	got := ExtractJSONArray(text)
	if got != text {
		t.Fatalf("got %q", got)
	}
}
