package security

import (
	"context"
	"testing"

	"github.com/ampactor/st-solguard/internal/llm"
)

// stubClient answers every Converse call with one fixed text reply.
type stubClient struct{ reply string }

func (s *stubClient) Complete(ctx context.Context, system, userMessage string) (string, error) {
	return s.reply, nil
}

func (s *stubClient) Converse(ctx context.Context, system string, messages []llm.Message, tools []llm.Tool) (*llm.ConversationResponse, error) {
	return &llm.ConversationResponse{Content: []llm.ContentBlock{llm.TextBlock(s.reply)}, StopReason: llm.StopEndTurn}, nil
}

func (s *stubClient) Model() string { return "stub" }

func TestSeverityDowngradeStepsDownOneLevel(t *testing.T) {
	cases := []struct {
		in, want Severity
	}{
		{SeverityCritical, SeverityHigh},
		{SeverityHigh, SeverityMedium},
		{SeverityMedium, SeverityLow},
		{SeverityLow, SeverityInfo},
		{SeverityInfo, SeverityInfo},
	}
	for _, c := range cases {
		if got := severityDowngrade(c.in); got != c.want {
			t.Errorf("severityDowngrade(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseVerdictCaseInsensitive(t *testing.T) {
	cases := []struct {
		in   string
		want Verdict
	}{
		{"Confirmed", VerdictConfirmed},
		{"confirmed", VerdictConfirmed},
		{"Dismissed", VerdictDismissed},
		{"Disputed", VerdictDisputed},
		{"garbage", VerdictDisputed},
	}
	for _, c := range cases {
		if got := parseVerdict(c.in); got != c.want {
			t.Errorf("parseVerdict(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestMatchVerdictBidirectionalSubstring(t *testing.T) {
	entries := []VerdictEntry{
		{Title: "Unchecked account in deposit", Verdict: "Confirmed"},
	}
	entry, matched := matchVerdict("Unchecked account in deposit instruction", entries)
	if !matched {
		t.Fatal("expected substring match")
	}
	if entry.Verdict != "Confirmed" {
		t.Errorf("got verdict %q, want Confirmed", entry.Verdict)
	}
}

func TestMatchVerdictNoMatchReturnsFalse(t *testing.T) {
	entries := []VerdictEntry{{Title: "Unrelated finding", Verdict: "Confirmed"}}
	_, matched := matchVerdict("Integer overflow in withdraw", entries)
	if matched {
		t.Error("expected no match for unrelated titles")
	}
}

func TestValidatePostProcessingDefaultsUnmatchedFindingToDisputed(t *testing.T) {
	findings := []SecurityFinding{
		{Title: "Integer overflow in withdraw", Severity: SeverityHigh},
	}
	client := &stubClient{reply: `[{"title":"Some other finding entirely","verdict":"Confirmed","reasoning":"ok"}]`}
	registry, err := NewToolRegistry(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	out, _, err := Validate(context.Background(), client, registry, findings, 5)
	if err != nil {
		t.Fatal(err)
	}

	if len(out) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(out))
	}
	got := out[0]
	if got.ValidationStatus != StatusDisputed {
		t.Errorf("expected unmatched finding to default to Disputed, got %v", got.ValidationStatus)
	}
	if got.ValidationReasoning != "No verdict provided by validator" {
		t.Errorf("unexpected reasoning: %q", got.ValidationReasoning)
	}
	if got.Severity != SeverityMedium {
		t.Errorf("expected severity downgraded from High to Medium, got %v", got.Severity)
	}
}

func TestParseVerdictEntriesExtractsTrailingJSONArray(t *testing.T) {
	blocks := []llm.ContentBlock{
		llm.TextBlock(`Here is my analysis.

[{"title":"Unchecked account","verdict":"Confirmed","reasoning":"no owner check"}]`),
	}
	entries := parseVerdictEntries(blocks)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Title != "Unchecked account" || entries[0].Verdict != "Confirmed" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestParseVerdictEntriesReturnsNilWhenNoArrayPresent(t *testing.T) {
	blocks := []llm.ContentBlock{llm.TextBlock("no json here")}
	if entries := parseVerdictEntries(blocks); entries != nil {
		t.Errorf("expected nil, got %+v", entries)
	}
}
