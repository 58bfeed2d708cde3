package pipeline

import (
	"reflect"
	"testing"

	"github.com/ampactor/st-solguard/internal/narrative"
)

func TestSelectTargetsDedupsSortsAndFiltersBlocklist(t *testing.T) {
	narratives := []narrative.Narrative{
		{ActiveRepos: []string{"foo/bar", "foo/baz"}},
		{ActiveRepos: []string{"foo/bar", "qux/quux"}},
	}
	got := selectTargets(narratives, []string{"always/present"}, []string{"baz"})
	want := []string{"always/present", "foo/bar", "qux/quux"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("selectTargets() = %v, want %v", got, want)
	}
}

func TestSelectTargetsBlocklistMatchesTailSegment(t *testing.T) {
	narratives := []narrative.Narrative{{ActiveRepos: []string{"org/evil-repo"}}}
	got := selectTargets(narratives, nil, []string{"someorg/evil-repo"})
	if len(got) != 0 {
		t.Errorf("expected blocklisted repo to be filtered regardless of org prefix, got %v", got)
	}
}

func TestInferProtocolCategory(t *testing.T) {
	cases := []struct {
		title, summary, want string
	}{
		{"New DEX Launch", "an automated market maker for swaps", "DEX"},
		{"Lending Surge", "borrow and loan protocols growing", "Lending"},
		{"Liquid Staking Boom", "", "Staking"},
		{"NFT Marketplace Trend", "", "NFT/Marketplace"},
		{"Privacy Mixer Adoption", "", "Privacy"},
		{"Cross-Chain Bridge Growth", "", "Bridge"},
		{"Something Unrelated", "general ecosystem growth", ""},
	}
	for _, c := range cases {
		n := narrative.Narrative{Title: c.title, Summary: c.summary}
		if got := inferProtocolCategory(n); got != c.want {
			t.Errorf("inferProtocolCategory(%q/%q) = %q, want %q", c.title, c.summary, got, c.want)
		}
	}
}

func TestIsBareName(t *testing.T) {
	if !isBareName("known-good-repo") {
		t.Error("expected bare name to be detected")
	}
	if isBareName("owner/repo") {
		t.Error("expected owner/repo slug not to be a bare name")
	}
}

func TestLastPathSegment(t *testing.T) {
	if got := lastPathSegment("org/repo"); got != "repo" {
		t.Errorf("got %q, want repo", got)
	}
	if got := lastPathSegment("repo"); got != "repo" {
		t.Errorf("got %q, want repo", got)
	}
}
