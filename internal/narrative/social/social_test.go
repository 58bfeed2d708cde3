package social

import "testing"

func TestExtractTitlesFromHeadingAnchor(t *testing.T) {
	htmlText := `<article><h2><a href="/a">Solana DeFi Hits New High</a></h2></article>
<article><h2><a href="/b">Unrelated Short</a></h2></article>`
	titles := extractTitles(htmlText)
	if len(titles) != 2 {
		t.Fatalf("expected 2 titles, got %d: %v", len(titles), titles)
	}
}

func TestExtractTitlesFallsBackThroughSelectorCascade(t *testing.T) {
	htmlText := `<a class="title">Bridge Volume Doubles This Week</a>`
	titles := extractTitles(htmlText)
	if len(titles) != 1 || titles[0] != "Bridge Volume Doubles This Week" {
		t.Fatalf("unexpected titles: %v", titles)
	}
}

func TestCleanTitleStripsTagsAndUnescapesEntities(t *testing.T) {
	got := cleanTitle(`<b>Solana &amp; Friends</b>`)
	if got != "Solana & Friends" {
		t.Errorf("cleanTitle() = %q, want %q", got, "Solana & Friends")
	}
}

func TestDedupRemovesAdjacentDuplicatesFromSortedInput(t *testing.T) {
	in := []string{"a", "a", "b", "b", "b", "c"}
	got := dedup(in)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("dedup() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dedup() = %v, want %v", got, want)
		}
	}
}

func TestIsSolanaRelevant(t *testing.T) {
	cases := []struct {
		title string
		want  bool
	}{
		{"Solana TVL Surges", true},
		{"New Validator Set Announced", true},
		{"Completely unrelated weather report", false},
	}
	for _, c := range cases {
		if got := isSolanaRelevant(c.title); got != c.want {
			t.Errorf("isSolanaRelevant(%q) = %v, want %v", c.title, got, c.want)
		}
	}
}
