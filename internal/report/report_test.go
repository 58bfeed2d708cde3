package report

import (
	"strings"
	"testing"

	"github.com/ampactor/st-solguard/internal/narrative"
	"github.com/ampactor/st-solguard/internal/security"
)

func TestRenderCombinedReportLinksAndOrphans(t *testing.T) {
	findings := []security.SecurityFinding{
		{Title: "Missing Signer Constraint", Severity: security.SeverityHigh, FilePath: "repos/vault-program/src/lib.rs", LineNumber: 42, ValidationStatus: security.StatusConfirmed},
		{Title: "Orphan Issue", Severity: security.SeverityLow, FilePath: "repos/unrelated/src/lib.rs", LineNumber: 7, ValidationStatus: security.StatusUnvalidated},
	}
	narratives := []narrative.Narrative{
		{
			Title:        "Liquid staking growth",
			Summary:      "Liquid staking protocols are seeing rapid TVL growth.",
			Confidence:   0.8,
			Trend:        string(narrative.TrendAccelerating),
			ActiveRepos:  []string{"acme/vault-program"},
			FindingCount: 1,
			RiskScore:    4.0,
			RiskLevel:    "Low",
			RepoFindings: map[string][]int{"vault-program": {0}},
		},
	}

	html, err := RenderCombinedReport(narratives, findings)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "Liquid staking growth") {
		t.Fatal("expected narrative title in report")
	}
	if !strings.Contains(html, "Missing Signer Constraint") {
		t.Fatal("expected linked finding in report")
	}
	if !strings.Contains(html, "Orphan Issue") {
		t.Fatal("expected orphan finding in report")
	}
}

func TestRenderCombinedReportEmpty(t *testing.T) {
	html, err := RenderCombinedReport(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "0 findings") {
		t.Fatal("expected zero-finding summary line")
	}
}
