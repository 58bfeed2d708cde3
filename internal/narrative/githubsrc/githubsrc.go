// Package githubsrc collects narrative signals from GitHub repository
// search: new-repo velocity per tracked topic, category breakdowns, and
// trending Solana repos, while also gathering Rust repos as scan-target
// candidates.
package githubsrc

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ampactor/st-solguard/internal/config"
	"github.com/ampactor/st-solguard/internal/httpclient"
	"github.com/ampactor/st-solguard/internal/narrative"
)

const githubAPI = "https://api.github.com"

type searchResponse struct {
	TotalCount int        `json:"total_count"`
	Items      []repoItem `json:"items"`
}

type repoItem struct {
	FullName        string   `json:"full_name"`
	Description     string   `json:"description"`
	HTMLURL         string   `json:"html_url"`
	StargazersCount int      `json:"stargazers_count"`
	ForksCount      int      `json:"forks_count"`
	OpenIssuesCount int      `json:"open_issues_count"`
	Language        string   `json:"language"`
	Topics          []string `json:"topics"`
	CreatedAt       time.Time `json:"created_at"`
	PushedAt        time.Time `json:"pushed_at"`
}

// Data is the result of one Collect call: signals for narrative synthesis
// plus repos discovered as scan targets.
type Data struct {
	Signals         []narrative.Signal
	DiscoveredRepos []narrative.DiscoveredRepo
}

// Collect searches GitHub for each configured topic and for trending
// Solana repos, producing one signal per topic plus per-category
// breakdowns, and gathering Rust-language repos as DiscoveredRepo
// candidates.
func Collect(ctx context.Context, cfg config.GitHubConfig, http *httpclient.Client) (Data, error) {
	var signals []narrative.Signal
	var discovered []narrative.DiscoveredRepo
	seen := make(map[string]bool)

	cutoff := time.Now().UTC().AddDate(0, 0, -cfg.LookbackDays)
	cutoffStr := cutoff.Format("2006-01-02")

	for _, topic := range cfg.Topics {
		url := fmt.Sprintf(
			"%s/search/repositories?q=topic:%s+created:>%s+stars:>=%d&sort=stars&order=desc&per_page=%d",
			githubAPI, topic, cutoffStr, cfg.MinStars, cfg.MaxRepos,
		)

		slog.Info("searching GitHub for new repos", "topic", topic)
		resp, err := httpclient.GetJSONAuthed[searchResponse](ctx, http, url, cfg.Token)
		if err != nil {
			return Data{}, err
		}

		for _, repo := range resp.Items {
			if repo.Language == "Rust" && !seen[repo.FullName] {
				seen[repo.FullName] = true
				discovered = append(discovered, narrative.DiscoveredRepo{
					Name:        repo.FullName,
					Language:    "Rust",
					Stars:       repo.StargazersCount,
					Description: repo.Description,
				})
			}
		}

		signals = append(signals, narrative.Signal{
			Source:   narrative.SourceGitHub,
			Category: fmt.Sprintf("New %s Repositories", topic),
			Title: fmt.Sprintf(
				"%d new repos with topic '%s' in last %d days",
				resp.TotalCount, topic, cfg.LookbackDays,
			),
			Description: fmt.Sprintf(
				"GitHub search found %d repositories created since %s with topic '%s' and %d+ stars.",
				resp.TotalCount, cutoffStr, topic, cfg.MinStars,
			),
			Metrics:   []narrative.Metric{{Name: "total_new_repos", Value: float64(resp.TotalCount), Unit: "repos"}},
			URL:       fmt.Sprintf("https://github.com/topics/%s?o=desc&s=stars", topic),
			Timestamp: time.Now().UTC(),
		})

		categories := make(map[string][]repoItem)
		var categoryOrder []string
		for _, repo := range resp.Items {
			cat := categorizeRepo(repo)
			if _, ok := categories[cat]; !ok {
				categoryOrder = append(categoryOrder, cat)
			}
			categories[cat] = append(categories[cat], repo)
		}
		sort.Strings(categoryOrder)

		for _, cat := range categoryOrder {
			repos := categories[cat]
			var totalStars, totalForks int
			for _, r := range repos {
				totalStars += r.StargazersCount
				totalForks += r.ForksCount
			}
			top := repos
			if len(top) > 5 {
				top = top[:5]
			}
			names := make([]string, 0, len(top))
			for _, r := range top {
				names = append(names, fmt.Sprintf("%s (%d*)", r.FullName, r.StargazersCount))
			}

			signals = append(signals, narrative.Signal{
				Source:      narrative.SourceGitHub,
				Category:    cat,
				Title:       fmt.Sprintf("%s: %d new repos, %d total stars", cat, len(repos), totalStars),
				Description: "Top repos: " + strings.Join(names, ", "),
				Metrics: []narrative.Metric{
					{Name: "repo_count", Value: float64(len(repos)), Unit: "repos"},
					{Name: "total_stars", Value: float64(totalStars), Unit: "stars"},
					{Name: "total_forks", Value: float64(totalForks), Unit: "forks"},
				},
				Timestamp: time.Now().UTC(),
			})
		}
	}

	trendingCutoff := time.Now().UTC().AddDate(0, 0, -7).Format("2006-01-02")
	trendingURL := fmt.Sprintf(
		"%s/search/repositories?q=topic:solana+pushed:>%s&sort=updated&order=desc&per_page=10",
		githubAPI, trendingCutoff,
	)
	trending, err := httpclient.GetJSONAuthed[searchResponse](ctx, http, trendingURL, cfg.Token)
	if err != nil {
		return Data{}, err
	}

	for _, repo := range trending.Items {
		if repo.Language == "Rust" && !seen[repo.FullName] {
			seen[repo.FullName] = true
			discovered = append(discovered, narrative.DiscoveredRepo{
				Name:        repo.FullName,
				Language:    "Rust",
				Stars:       repo.StargazersCount,
				Description: repo.Description,
			})
		}
	}

	if len(trending.Items) > 0 {
		top := trending.Items
		if len(top) > 10 {
			top = top[:10]
		}
		lines := make([]string, 0, len(top))
		for _, r := range top {
			desc := r.Description
			if desc == "" {
				desc = "no description"
			}
			lines = append(lines, fmt.Sprintf("%s (%d*) - %s", r.FullName, r.StargazersCount, desc))
		}

		signals = append(signals, narrative.Signal{
			Source:      narrative.SourceGitHub,
			Category:    "Trending Solana Repos",
			Title:       fmt.Sprintf("Top %d most active Solana repos this week", len(trending.Items)),
			Description: strings.Join(lines, "\n"),
			Metrics:     []narrative.Metric{{Name: "trending_count", Value: float64(len(trending.Items)), Unit: "repos"}},
			URL:         "https://github.com/topics/solana?o=desc&s=updated",
			Timestamp:   time.Now().UTC(),
		})
	}

	slog.Info("collected GitHub signals", "signal_count", len(signals), "repos", len(discovered))
	return Data{Signals: signals, DiscoveredRepos: discovered}, nil
}

func categorizeRepo(repo repoItem) string {
	desc := strings.ToLower(repo.Description)
	name := strings.ToLower(repo.FullName)
	hasTopic := func(values ...string) bool {
		for _, t := range repo.Topics {
			for _, v := range values {
				if t == v {
					return true
				}
			}
		}
		return false
	}

	switch {
	case hasTopic("defi", "dex", "amm", "swap", "lending", "yield") ||
		strings.Contains(desc, "defi") || strings.Contains(desc, "swap") ||
		strings.Contains(desc, "amm") || strings.Contains(desc, "lending"):
		return "DeFi"
	case hasTopic("depin", "iot", "helium", "hivemapper") ||
		strings.Contains(desc, "depin") || strings.Contains(desc, "physical infrastructure"):
		return "DePIN"
	case hasTopic("ai", "agent", "llm", "machine-learning") ||
		strings.Contains(desc, "ai agent") || strings.Contains(desc, "autonomous") || strings.Contains(desc, "llm"):
		return "AI & Agents"
	case hasTopic("nft", "gaming", "metaplex", "metaverse") ||
		strings.Contains(desc, "nft") || strings.Contains(desc, "gaming"):
		return "NFT & Gaming"
	case hasTopic("payments", "payfi", "stablecoin") ||
		strings.Contains(desc, "payment") || strings.Contains(desc, "payfi"):
		return "PayFi"
	case hasTopic("sdk", "toolkit", "framework", "rpc", "validator") ||
		strings.Contains(desc, "sdk") || strings.Contains(desc, "framework") ||
		strings.Contains(desc, "toolkit") || strings.Contains(name, "sdk"):
		return "Infrastructure"
	case hasTopic("privacy", "zk", "zero-knowledge") ||
		strings.Contains(desc, "privacy") || strings.Contains(desc, "zero knowledge") || strings.Contains(desc, "zk-"):
		return "Privacy"
	default:
		return "General Solana"
	}
}
