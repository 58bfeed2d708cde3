package narrative

import (
	"encoding/json"
	"sort"
)

// SignalGroup is a category-normalized bucket of raw signals, used to
// assess how many independent sources corroborate a theme before it is
// handed to the synthesizer.
type SignalGroup struct {
	Category        string
	SignalIdx       []int
	SourceDiversity int
	TotalSignals    int
}

// normalizeCategory collapses source-specific category spellings into
// canonical buckets for grouping.
func normalizeCategory(raw string) string {
	switch raw {
	case "DeFi TVL", "Dexes", "DEX", "Lending", "Yield", "Yield Aggregator":
		return "DeFi"
	case "Liquid Staking", "Staking":
		return "Staking"
	case "NFT", "NFT Marketplace", "NFT Lending":
		return "NFT & Gaming"
	default:
		return raw
	}
}

// Aggregate buckets signals by normalized category and ranks buckets by
// source diversity (how many distinct collectors contributed) then by
// total signal count.
func Aggregate(signals []Signal) []SignalGroup {
	byCategory := make(map[string][]int)
	var order []string
	for i, s := range signals {
		cat := normalizeCategory(s.Category)
		if _, ok := byCategory[cat]; !ok {
			order = append(order, cat)
		}
		byCategory[cat] = append(byCategory[cat], i)
	}

	groups := make([]SignalGroup, 0, len(order))
	for _, cat := range order {
		indices := byCategory[cat]
		sources := make(map[SignalSource]bool)
		for _, i := range indices {
			sources[signals[i].Source] = true
		}
		groups = append(groups, SignalGroup{
			Category:        cat,
			SignalIdx:       indices,
			SourceDiversity: len(sources),
			TotalSignals:    len(indices),
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].SourceDiversity != groups[j].SourceDiversity {
			return groups[i].SourceDiversity > groups[j].SourceDiversity
		}
		return groups[i].TotalSignals > groups[j].TotalSignals
	})
	return groups
}

type signalDetailJSON struct {
	Source      string   `json:"source"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Metrics     []Metric `json:"metrics"`
	URL         string   `json:"url,omitempty"`
	Timestamp   string   `json:"timestamp"`
}

type signalGroupJSON struct {
	Category        string              `json:"category"`
	SignalCount     int                 `json:"signal_count"`
	SourceDiversity int                 `json:"source_diversity"`
	Signals         []signalDetailJSON `json:"signals"`
}

// SignalsToJSON renders grouped signals and discovered repos as the JSON
// document handed to the narrative synthesizer as its evidence corpus.
func SignalsToJSON(signals []Signal, groups []SignalGroup, discoveredRepos []DiscoveredRepo) string {
	summary := make([]signalGroupJSON, 0, len(groups))
	for _, g := range groups {
		details := make([]signalDetailJSON, 0, len(g.SignalIdx))
		for _, i := range g.SignalIdx {
			s := signals[i]
			details = append(details, signalDetailJSON{
				Source:      string(s.Source),
				Title:       s.Title,
				Description: s.Description,
				Metrics:     s.Metrics,
				URL:         s.URL,
				Timestamp:   s.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			})
		}
		summary = append(summary, signalGroupJSON{
			Category:        g.Category,
			SignalCount:     g.TotalSignals,
			SourceDiversity: g.SourceDiversity,
			Signals:         details,
		})
	}

	output := map[string]any{
		"signal_groups":    summary,
		"discovered_repos": discoveredRepos,
	}
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
