package narrative

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ampactor/st-solguard/internal/config"
	"github.com/ampactor/st-solguard/internal/httpclient"
	"github.com/ampactor/st-solguard/internal/llm"
	"github.com/ampactor/st-solguard/internal/narrative/defillama"
	"github.com/ampactor/st-solguard/internal/narrative/githubsrc"
	"github.com/ampactor/st-solguard/internal/narrative/social"
	"github.com/ampactor/st-solguard/internal/narrative/solanarpc"
)

// Result is the full output of one narrative-detection run: the
// synthesized narratives plus the raw repo candidates discovered along
// the way, so the caller can merge them into always-scan targets.
type Result struct {
	Narratives      []Narrative
	DiscoveredRepos []DiscoveredRepo
}

// Run collects signals from every configured source in parallel,
// aggregates them, sends the aggregate to the LLM for narrative
// synthesis, and attaches the discovered repos to every synthesized
// narrative as its candidate scan targets.
func Run(ctx context.Context, cfg config.Config, http *httpclient.Client, router *llm.ModelRouter) (Result, error) {
	slog.Info("narrative pipeline: starting")

	var (
		wg         sync.WaitGroup
		githubData githubsrc.Data

		githubErr, solanaErr, socialErr error
		defiLlamaErr, discoveryErr      error

		solanaSignals, socialSignals       []Signal
		defiLlamaSignals, discoverySignals []Signal
	)

	wg.Add(5)
	go func() {
		defer wg.Done()
		githubData, githubErr = githubsrc.Collect(ctx, cfg.GitHub, http)
	}()
	go func() {
		defer wg.Done()
		solanaSignals, solanaErr = solanarpc.Collect(ctx, cfg.Solana, http)
	}()
	go func() {
		defer wg.Done()
		socialSignals, socialErr = social.Collect(ctx, cfg.Social, http)
	}()
	go func() {
		defer wg.Done()
		defiLlamaSignals, defiLlamaErr = defillama.Collect(ctx, cfg.DefiLlama, http)
	}()
	go func() {
		defer wg.Done()
		discoverySignals, discoveryErr = Discover(ctx, router.ClientFor(llm.TaskDiscovery), cfg.Discovery)
	}()
	wg.Wait()

	var signals []Signal
	var discoveredRepos []DiscoveredRepo

	if githubErr != nil {
		slog.Warn("GitHub signal collection failed", "error", githubErr)
	} else {
		signals = append(signals, githubData.Signals...)
		discoveredRepos = githubData.DiscoveredRepos
	}
	if solanaErr != nil {
		slog.Warn("Solana RPC signal collection failed", "error", solanaErr)
	} else {
		signals = append(signals, solanaSignals...)
	}
	if socialErr != nil {
		slog.Warn("Social signal collection failed", "error", socialErr)
	} else {
		signals = append(signals, socialSignals...)
	}
	if defiLlamaErr != nil {
		slog.Warn("DeFiLlama signal collection failed", "error", defiLlamaErr)
	} else {
		signals = append(signals, defiLlamaSignals...)
	}
	if discoveryErr != nil {
		slog.Warn("discovery signal collection failed", "error", discoveryErr)
	} else {
		signals = append(signals, discoverySignals...)
	}

	slog.Info("signal collection complete", "signals", len(signals), "repos", len(discoveredRepos))

	if len(signals) == 0 {
		slog.Warn("no signals collected — returning empty narratives")
		return Result{}, nil
	}

	groups := Aggregate(signals)
	signalsJSON := SignalsToJSON(signals, groups, discoveredRepos)

	synthesized, err := IdentifyNarratives(ctx, router.ClientFor(llm.TaskNarrativeSynthesis), signalsJSON)
	if err != nil {
		return Result{}, err
	}

	repoNames := make([]string, 0, len(discoveredRepos))
	for _, r := range discoveredRepos {
		repoNames = append(repoNames, r.Name)
	}

	narratives := make([]Narrative, 0, len(synthesized))
	for _, n := range synthesized {
		narratives = append(narratives, Narrative{
			Title:       n.Title,
			Summary:     n.Summary,
			Confidence:  n.Confidence,
			Trend:       string(n.Trend),
			ActiveRepos: repoNames,
		})
	}

	slog.Info("narrative pipeline complete", "narratives", len(narratives))
	return Result{Narratives: narratives, DiscoveredRepos: discoveredRepos}, nil
}
