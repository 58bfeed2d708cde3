// Package social collects narrative signals from blog/news pages
// configured as social sources. No HTML-parsing library is available in
// the dependency set this module draws from, so article titles are
// recovered with a cascade of regular expressions approximating the
// heading/anchor selectors a CSS-based scraper would use, rather than by
// parsing a DOM tree.
package social

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ampactor/st-solguard/internal/config"
	"github.com/ampactor/st-solguard/internal/httpclient"
	"github.com/ampactor/st-solguard/internal/narrative"
)

// titleSelectors approximates, in cascade order, the CSS selectors a
// DOM-based scraper would try: headings wrapping a link first, then
// title-classed anchors, then any heading link.
var titleSelectors = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<article[^>]*>.*?<h2[^>]*>\s*<a[^>]*>(.*?)</a>`),
	regexp.MustCompile(`(?is)<article[^>]*>.*?<h3[^>]*>\s*<a[^>]*>(.*?)</a>`),
	regexp.MustCompile(`(?is)<[^>]*class="[^"]*post-title[^"]*"[^>]*>\s*<a[^>]*>(.*?)</a>`),
	regexp.MustCompile(`(?is)<h2[^>]*class="[^"]*entry-title[^"]*"[^>]*>\s*<a[^>]*>(.*?)</a>`),
	regexp.MustCompile(`(?is)<a[^>]*class="[^"]*title[^"]*"[^>]*>(.*?)</a>`),
	regexp.MustCompile(`(?is)<h2[^>]*>\s*<a[^>]*>(.*?)</a>`),
	regexp.MustCompile(`(?is)<h3[^>]*>\s*<a[^>]*>(.*?)</a>`),
}

var tagStripRe = regexp.MustCompile(`(?s)<[^>]*>`)

var solanaKeywords = []string{
	"solana", "sol", "defi", "depin", "token", "validator", "staking", "nft", "web3", "blockchain", "crypto",
}

func extractTitles(htmlText string) []string {
	var titles []string
	for _, sel := range titleSelectors {
		matches := sel.FindAllStringSubmatch(htmlText, -1)
		for _, m := range matches {
			title := cleanTitle(m[1])
			if len(title) > 5 {
				titles = append(titles, title)
			}
		}
		if len(titles) > 0 {
			break
		}
	}

	sort.Strings(titles)
	return dedup(titles)
}

func cleanTitle(raw string) string {
	stripped := tagStripRe.ReplaceAllString(raw, "")
	return strings.TrimSpace(html.UnescapeString(stripped))
}

func dedup(sorted []string) []string {
	out := sorted[:0]
	var prev string
	first := true
	for _, s := range sorted {
		if first || s != prev {
			out = append(out, s)
			prev = s
			first = false
		}
	}
	return out
}

func isSolanaRelevant(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range solanaKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Collect scrapes each configured source, skipping (and logging) any that
// fail, and returns one signal per source that yielded article titles.
func Collect(ctx context.Context, cfg config.SocialConfig, http *httpclient.Client) ([]narrative.Signal, error) {
	var signals []narrative.Signal

	for _, source := range cfg.Sources {
		sourceSignals, err := scrapeSource(ctx, http, source.Name, source.URL)
		if err != nil {
			slog.Warn("failed to scrape, skipping", "source", source.Name, "url", source.URL, "error", err)
			continue
		}
		signals = append(signals, sourceSignals...)
	}

	slog.Info("collected social signals", "signal_count", len(signals))
	return signals, nil
}

func scrapeSource(ctx context.Context, http *httpclient.Client, name, url string) ([]narrative.Signal, error) {
	htmlText, err := http.GetText(ctx, url)
	if err != nil {
		return nil, err
	}

	articles := extractTitles(htmlText)
	if len(articles) == 0 {
		return nil, nil
	}

	var solanaArticles []string
	for _, a := range articles {
		if isSolanaRelevant(a) {
			solanaArticles = append(solanaArticles, a)
		}
	}
	solanaCount := len(solanaArticles)

	pool := articles
	if solanaCount > 0 {
		pool = solanaArticles
	}
	titles := pool
	if len(titles) > 10 {
		titles = titles[:10]
	}

	return []narrative.Signal{{
		Source:      narrative.SourceSocial,
		Category:    fmt.Sprintf("Blog: %s", name),
		Title:       fmt.Sprintf("%s: %d recent articles (%d Solana-related)", name, len(articles), solanaCount),
		Description: "Recent topics: " + strings.Join(titles, "; "),
		Metrics: []narrative.Metric{
			{Name: "total_articles", Value: float64(len(articles)), Unit: "articles"},
			{Name: "solana_relevant", Value: float64(solanaCount), Unit: "articles"},
		},
		URL:       url,
		Timestamp: time.Now().UTC(),
	}}, nil
}
