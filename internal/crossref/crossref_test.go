package crossref

import (
	"testing"

	"github.com/ampactor/st-solguard/internal/security"
)

func TestValidationMultiplierValues(t *testing.T) {
	cases := []struct {
		status security.ValidationStatus
		want   float64
	}{
		{security.StatusConfirmed, 1.0},
		{security.StatusDisputed, 0.5},
		{security.StatusUnvalidated, 0.7},
		{security.StatusDismissed, 0.0},
	}
	for _, c := range cases {
		if got := validationMultiplier(c.status); got != c.want {
			t.Errorf("validationMultiplier(%v) = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestRepoNameFromReposPrefix(t *testing.T) {
	if got := repoNameFromPath("repos/my-repo/src/lib.rs"); got != "my-repo" {
		t.Errorf("got %q, want my-repo", got)
	}
	if got := repoNameFromPath("repos/other-repo/programs/vault.rs"); got != "other-repo" {
		t.Errorf("got %q, want other-repo", got)
	}
}

func TestRepoNameFallbackNoReposPrefix(t *testing.T) {
	if got := repoNameFromPath("src/lib.rs"); got != "src" {
		t.Errorf("got %q, want src", got)
	}
}

func TestRepoNameJustFilename(t *testing.T) {
	if got := repoNameFromPath("lib.rs"); got != "lib.rs" {
		t.Errorf("got %q, want lib.rs", got)
	}
}

func TestRiskLevelThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{20.0, "Critical"},
		{19.99, "High"},
		{10.0, "High"},
		{9.99, "Medium"},
		{5.0, "Medium"},
		{4.99, "Low"},
		{1.0, "Low"},
		{0.99, "None"},
	}
	for _, c := range cases {
		if got := riskLevel(c.score); got != c.want {
			t.Errorf("riskLevel(%v) = %q, want %q", c.score, got, c.want)
		}
	}
}
