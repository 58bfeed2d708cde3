package githubsrc

import "testing"

func TestCategorizeRepoByTopic(t *testing.T) {
	repo := repoItem{FullName: "foo/amm-pool", Topics: []string{"defi", "amm"}}
	if got := categorizeRepo(repo); got != "DeFi" {
		t.Errorf("got %q, want DeFi", got)
	}
}

func TestCategorizeRepoByDescription(t *testing.T) {
	cases := []struct {
		desc string
		want string
	}{
		{"A liquid staking protocol for SOL", "General Solana"},
		{"NFT marketplace for digital collectibles", "NFT & Gaming"},
		{"Solana SDK and developer toolkit", "Infrastructure"},
		{"Zero knowledge privacy layer", "Privacy"},
		{"Stablecoin payment rails", "PayFi"},
		{"A random unrelated utility crate", "General Solana"},
	}
	for _, c := range cases {
		repo := repoItem{FullName: "foo/bar", Description: c.desc}
		if got := categorizeRepo(repo); got != c.want {
			t.Errorf("categorizeRepo(%q) = %q, want %q", c.desc, got, c.want)
		}
	}
}
