// Package defillama collects narrative signals from the DeFiLlama public
// API: Solana's chain TVL and overall rank, its top protocols by TVL, and
// a category breakdown of its DeFi ecosystem.
package defillama

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

type chain struct {
	Name string   `json:"name"`
	TVL  *float64 `json:"tvl"`
}

type protocol struct {
	Name     string   `json:"name"`
	Chains   []string `json:"chains"`
	Chain    string   `json:"chain"`
	TVL      *float64 `json:"tvl"`
	Category string   `json:"category"`
}

func (p protocol) tvl() float64 {
	if p.TVL == nil {
		return 0
	}
	return *p.TVL
}

func (p protocol) onSolana() bool {
	if p.Chain == "Solana" {
		return true
	}
	for _, c := range p.Chains {
		if c == "Solana" {
			return true
		}
	}
	return false
}

// Collect fetches chain-level and protocol-level TVL data and derives
// Solana-specific signals. Returns an empty slice without error if the
// collector is disabled.
func Collect(ctx context.Context, cfg config.DefiLlamaConfig, http *httpclient.Client) ([]narrative.Signal, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var signals []narrative.Signal

	chains, err := httpclient.GetJSON[[]chain](ctx, http, "https://api.llama.fi/v2/chains")
	if err != nil {
		return nil, err
	}

	var solana *chain
	for i := range chains {
		if chains[i].Name == "Solana" {
			solana = &chains[i]
			break
		}
	}
	if solana != nil {
		tvl := 0.0
		if solana.TVL != nil {
			tvl = *solana.TVL
		}
		tvlBillions := tvl / 1e9

		var tvls []float64
		for _, c := range chains {
			if c.TVL != nil {
				tvls = append(tvls, *c.TVL)
			}
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(tvls)))
		rank := 0
		for i, t := range tvls {
			if diff := t - tvl; diff < 1 && diff > -1 {
				rank = i + 1
				break
			}
		}

		rankSuffix := ""
		rankSentence := ""
		if rank > 0 {
			rankSuffix = fmt.Sprintf(" (#%d overall)", rank)
			rankSentence = fmt.Sprintf("Ranked #%d among all chains by TVL.", rank)
		}

		signals = append(signals, narrative.Signal{
			Source:   narrative.SourceDeFiLlama,
			Category: "DeFi TVL",
			Title:    fmt.Sprintf("Solana Chain TVL: $%.2fB%s", tvlBillions, rankSuffix),
			Description: fmt.Sprintf(
				"Total value locked across all Solana DeFi protocols. %s", rankSentence,
			),
			Metrics: []narrative.Metric{
				{Name: "solana_tvl", Value: tvl, Unit: "USD"},
				{Name: "solana_tvl_billions", Value: tvlBillions, Unit: "B USD"},
			},
			URL:       "https://defillama.com/chain/Solana",
			Timestamp: time.Now().UTC(),
		})
	}

	protocols, err := httpclient.GetJSON[[]protocol](ctx, http, "https://api.llama.fi/protocols")
	if err != nil {
		return nil, err
	}

	var solanaProtocols []protocol
	for _, p := range protocols {
		if p.onSolana() && p.tvl() > 0 {
			solanaProtocols = append(solanaProtocols, p)
		}
	}
	sort.SliceStable(solanaProtocols, func(i, j int) bool {
		return solanaProtocols[i].tvl() > solanaProtocols[j].tvl()
	})

	topN := cfg.TopProtocols
	if topN > len(solanaProtocols) {
		topN = len(solanaProtocols)
	}
	topProtocols := solanaProtocols[:topN]

	if len(topProtocols) > 0 {
		names := make([]string, 0, len(topProtocols))
		for _, p := range topProtocols {
			names = append(names, fmt.Sprintf("%s: $%.0fM", p.Name, p.tvl()/1e6))
		}

		var totalSolanaTVL float64
		for _, p := range solanaProtocols {
			totalSolanaTVL += p.tvl()
		}

		signals = append(signals, narrative.Signal{
			Source:   narrative.SourceDeFiLlama,
			Category: "DeFi TVL",
			Title: fmt.Sprintf(
				"Top %d Solana DeFi Protocols by TVL (%d total Solana protocols tracked)",
				topN, len(solanaProtocols),
			),
			Description: "Leading protocols: " + strings.Join(names, ", "),
			Metrics: []narrative.Metric{
				{Name: "solana_protocol_count", Value: float64(len(solanaProtocols)), Unit: "protocols"},
				{Name: "total_solana_defi_tvl", Value: totalSolanaTVL, Unit: "USD"},
				{Name: "top_protocol_tvl", Value: topProtocols[0].tvl(), Unit: "USD"},
			},
			URL:       "https://defillama.com/chain/Solana",
			Timestamp: time.Now().UTC(),
		})

		type catAgg struct {
			name  string
			tvl   float64
			count int
		}
		byCategory := make(map[string]*catAgg)
		var catOrder []string
		for _, p := range solanaProtocols {
			cat := p.Category
			if cat == "" {
				cat = "Other"
			}
			agg, ok := byCategory[cat]
			if !ok {
				agg = &catAgg{name: cat}
				byCategory[cat] = agg
				catOrder = append(catOrder, cat)
			}
			agg.tvl += p.tvl()
			agg.count++
		}
		catList := make([]*catAgg, 0, len(catOrder))
		for _, name := range catOrder {
			catList = append(catList, byCategory[name])
		}
		sort.SliceStable(catList, func(i, j int) bool { return catList[i].tvl > catList[j].tvl })

		top5 := catList
		if len(top5) > 5 {
			top5 = top5[:5]
		}
		catDesc := make([]string, 0, len(top5))
		catMetrics := make([]narrative.Metric, 0, len(top5))
		for _, c := range top5 {
			catDesc = append(catDesc, fmt.Sprintf("%s: $%.0fM (%d protocols)", c.name, c.tvl/1e6, c.count))
			metricName := "tvl_" + strings.ReplaceAll(strings.ToLower(c.name), " ", "_")
			catMetrics = append(catMetrics, narrative.Metric{Name: metricName, Value: c.tvl, Unit: "USD"})
		}

		signals = append(signals, narrative.Signal{
			Source:      narrative.SourceDeFiLlama,
			Category:    "DeFi TVL",
			Title:       fmt.Sprintf("Solana DeFi Category Breakdown (%d categories)", len(catList)),
			Description: "Top categories: " + strings.Join(catDesc, ", "),
			Metrics:     catMetrics,
			URL:         "https://defillama.com/chain/Solana",
			Timestamp:   time.Now().UTC(),
		})
	}

	slog.Info("collected DeFiLlama TVL signals", "signal_count", len(signals))
	return signals, nil
}
