// Package narrative detects emergent Solana-ecosystem trends from
// multiple signal sources and synthesizes them into scored Narratives
// that drive target selection for the security scan.
package narrative

import "time"

// SignalSource identifies which collector produced a Signal.
type SignalSource string

const (
	SourceGitHub        SignalSource = "GitHub"
	SourceSolanaOnchain SignalSource = "Solana Onchain"
	SourceSocial        SignalSource = "Social"
	SourceDeFiLlama     SignalSource = "DeFiLlama"
	SourceDiscovery     SignalSource = "Discovery"
)

// Metric is one measured data point backing a Signal (e.g. star growth,
// TVL delta).
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Signal is one raw observation from a collector, before synthesis.
type Signal struct {
	Source      SignalSource `json:"source"`
	Category    string       `json:"category"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Metrics     []Metric     `json:"metrics"`
	URL         string       `json:"url,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

// TrendDirection describes how a narrative's activity is moving.
type TrendDirection string

const (
	TrendAccelerating TrendDirection = "Accelerating"
	TrendStable       TrendDirection = "Stable"
	TrendDecelerating TrendDirection = "Decelerating"
	TrendEmerging     TrendDirection = "Emerging"
)

// DiscoveredRepo is a scan-target candidate surfaced by the GitHub signal
// collector.
type DiscoveredRepo struct {
	Name        string `json:"name"`
	Language    string `json:"language"`
	Stars       int    `json:"stars"`
	Description string `json:"description"`
}

// Narrative is an emergent ecosystem trend with a set of candidate repos
// to scan. FindingCount/RiskScore/RiskLevel/RepoFindings are zero-valued
// until cross-reference mutates them after scanning completes.
type Narrative struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Confidence  float64  `json:"confidence"`
	Trend       string   `json:"trend"`
	ActiveRepos []string `json:"active_repos"`

	FindingCount int                `json:"finding_count"`
	RiskScore    float64            `json:"risk_score"`
	RiskLevel    string             `json:"risk_level"`
	RepoFindings map[string][]int   `json:"repo_findings"`
}
