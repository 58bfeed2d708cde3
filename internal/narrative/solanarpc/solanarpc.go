// Package solanarpc collects narrative signals directly from a Solana
// JSON-RPC endpoint: network throughput, epoch progress, SOL supply, and
// recent activity for each tracked on-chain program.
package solanarpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ampactor/st-solguard/internal/config"
	"github.com/ampactor/st-solguard/internal/errs"
	"github.com/ampactor/st-solguard/internal/httpclient"
	"github.com/ampactor/st-solguard/internal/narrative"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse[T any] struct {
	Result *T        `json:"result"`
	Error  *rpcError `json:"error"`
}

type rpcError struct {
	Message string `json:"message"`
}

type performanceSample struct {
	NumTransactions        uint64 `json:"numTransactions"`
	NumNonVoteTransactions *uint64 `json:"numNonVoteTransactions"`
	NumSlots               uint64 `json:"numSlots"`
	SamplePeriodSecs       uint64 `json:"samplePeriodSecs"`
}

type epochInfo struct {
	Epoch            uint64  `json:"epoch"`
	SlotIndex        uint64  `json:"slotIndex"`
	SlotsInEpoch     uint64  `json:"slotsInEpoch"`
	AbsoluteSlot     uint64  `json:"absoluteSlot"`
	TransactionCount *uint64 `json:"transactionCount"`
}

type supply struct {
	Value supplyValue `json:"value"`
}

type supplyValue struct {
	Total          uint64 `json:"total"`
	Circulating    uint64 `json:"circulating"`
	NonCirculating uint64 `json:"nonCirculating"`
}

type sigInfo struct {
	Signature string `json:"signature"`
	BlockTime *int64 `json:"blockTime"`
}

type programActivity struct {
	txCount       int
	txPerHour     float64
	timeSpanHours float64
}

// Collect queries the configured RPC endpoint for TPS, epoch, supply, and
// per-tracked-program activity signals.
func Collect(ctx context.Context, cfg config.SolanaConfig, http *httpclient.Client) ([]narrative.Signal, error) {
	var signals []narrative.Signal

	perfSamples, err := rpcCall[[]performanceSample](ctx, cfg.RPCURL, http, "getRecentPerformanceSamples", []any{10})
	if err != nil {
		return nil, err
	}
	if len(*perfSamples) > 0 {
		samples := *perfSamples
		var totalTPS, totalNonVoteTPS float64
		nonVoteCount := 0
		for _, s := range samples {
			if s.SamplePeriodSecs == 0 {
				continue
			}
			totalTPS += float64(s.NumTransactions) / float64(s.SamplePeriodSecs)
			if s.NumNonVoteTransactions != nil {
				totalNonVoteTPS += float64(*s.NumNonVoteTransactions) / float64(s.SamplePeriodSecs)
				nonVoteCount++
			}
		}
		avgTPS := totalTPS / float64(len(samples))
		avgNonVoteTPS := 0.0
		if nonVoteCount > 0 {
			avgNonVoteTPS = totalNonVoteTPS / float64(len(samples))
		}

		signals = append(signals, narrative.Signal{
			Source:   narrative.SourceSolanaOnchain,
			Category: "Network Performance",
			Title:    fmt.Sprintf("Solana TPS: %.0f total, %.0f non-vote", avgTPS, avgNonVoteTPS),
			Description: fmt.Sprintf(
				"Average over %d recent samples. Non-vote TPS indicates real user activity.", len(samples),
			),
			Metrics: []narrative.Metric{
				{Name: "avg_tps", Value: avgTPS, Unit: "tx/s"},
				{Name: "avg_non_vote_tps", Value: avgNonVoteTPS, Unit: "tx/s"},
			},
			URL:       "https://explorer.solana.com/",
			Timestamp: time.Now().UTC(),
		})
	}

	epochPtr, err := rpcCall[epochInfo](ctx, cfg.RPCURL, http, "getEpochInfo", []any{})
	if err != nil {
		return nil, err
	}
	epoch := *epochPtr
	epochProgress := 0.0
	if epoch.SlotsInEpoch > 0 {
		epochProgress = float64(epoch.SlotIndex) / float64(epoch.SlotsInEpoch) * 100.0
	}
	txCountStr := ""
	if epoch.TransactionCount != nil {
		txCountStr = fmt.Sprintf("Total transactions: %d", *epoch.TransactionCount)
	}
	signals = append(signals, narrative.Signal{
		Source:   narrative.SourceSolanaOnchain,
		Category: "Network State",
		Title:    fmt.Sprintf("Epoch %d — %.1f%% complete", epoch.Epoch, epochProgress),
		Description: fmt.Sprintf(
			"Slot %d/%d, absolute slot %d. %s",
			epoch.SlotIndex, epoch.SlotsInEpoch, epoch.AbsoluteSlot, txCountStr,
		),
		Metrics: []narrative.Metric{
			{Name: "epoch", Value: float64(epoch.Epoch)},
			{Name: "epoch_progress", Value: epochProgress, Unit: "%"},
		},
		URL:       "https://explorer.solana.com/",
		Timestamp: time.Now().UTC(),
	})

	supplyPtr, err := rpcCall[supply](ctx, cfg.RPCURL, http, "getSupply", []any{})
	if err != nil {
		return nil, err
	}
	sup := *supplyPtr
	circulatingPct := 0.0
	if sup.Value.Total > 0 {
		circulatingPct = float64(sup.Value.Circulating) / float64(sup.Value.Total) * 100.0
	}
	signals = append(signals, narrative.Signal{
		Source:   narrative.SourceSolanaOnchain,
		Category: "Token Economics",
		Title: fmt.Sprintf(
			"SOL Supply: %.1fM circulating (%.1f%%)",
			float64(sup.Value.Circulating)/1e9/1e6, circulatingPct,
		),
		Description: fmt.Sprintf(
			"Total: %.1fM SOL, Circulating: %.1fM SOL, Non-circulating: %.1fM SOL",
			float64(sup.Value.Total)/1e15, float64(sup.Value.Circulating)/1e15, float64(sup.Value.NonCirculating)/1e15,
		),
		Metrics: []narrative.Metric{
			{Name: "circulating_sol", Value: float64(sup.Value.Circulating) / 1e9, Unit: "SOL"},
			{Name: "circulating_pct", Value: circulatingPct, Unit: "%"},
		},
		Timestamp: time.Now().UTC(),
	})

	for _, program := range cfg.TrackedPrograms {
		activity, err := getProgramActivity(ctx, cfg.RPCURL, http, program.Address)
		if err != nil {
			slog.Warn("failed to get program activity", "program", program.Name, "error", err)
			continue
		}

		var title string
		if activity.txPerHour > 0 {
			var timeStr string
			if activity.timeSpanHours < 1.0 {
				timeStr = fmt.Sprintf("%.0fm", activity.timeSpanHours*60.0)
			} else {
				timeStr = fmt.Sprintf("%.1fh", activity.timeSpanHours)
			}
			title = fmt.Sprintf("%s: %.0f tx/hr (%d txs over %s)", program.Name, activity.txPerHour, activity.txCount, timeStr)
		} else {
			title = fmt.Sprintf("%s: %d recent transactions", program.Name, activity.txCount)
		}

		metrics := []narrative.Metric{{Name: "recent_tx_count", Value: float64(activity.txCount), Unit: "txs"}}
		if activity.txPerHour > 0 {
			metrics = append(metrics, narrative.Metric{Name: "tx_per_hour", Value: activity.txPerHour, Unit: "tx/hr"})
		}

		signals = append(signals, narrative.Signal{
			Source:   narrative.SourceSolanaOnchain,
			Category: program.Category,
			Title:    title,
			Description: fmt.Sprintf(
				"Program %s (%s) — %d transactions sampled.", program.Name, program.Address, activity.txCount,
			),
			Metrics:   metrics,
			URL:       fmt.Sprintf("https://explorer.solana.com/address/%s", program.Address),
			Timestamp: time.Now().UTC(),
		})
	}

	slog.Info("collected Solana onchain signals", "signal_count", len(signals))
	return signals, nil
}

// getProgramActivity paginates getSignaturesForAddress up to 10 pages of
// 100 to estimate a program's recent transaction rate.
func getProgramActivity(ctx context.Context, rpcURL string, http *httpclient.Client, address string) (programActivity, error) {
	var allSigs []sigInfo
	var before string

	for i := 0; i < 10; i++ {
		var params any
		if before != "" {
			params = []any{address, map[string]any{"limit": 100, "before": before}}
		} else {
			params = []any{address, map[string]any{"limit": 100}}
		}

		sigsPtr, err := rpcCall[[]sigInfo](ctx, rpcURL, http, "getSignaturesForAddress", params)
		if err != nil {
			return programActivity{}, err
		}
		sigs := *sigsPtr
		batchLen := len(sigs)
		if batchLen > 0 {
			before = sigs[batchLen-1].Signature
		}
		allSigs = append(allSigs, sigs...)
		if batchLen < 100 {
			break
		}
	}

	var timestamps []int64
	for _, s := range allSigs {
		if s.BlockTime != nil {
			timestamps = append(timestamps, *s.BlockTime)
		}
	}

	txCount := len(allSigs)
	var txPerHour, timeSpanHours float64
	if len(timestamps) >= 2 {
		newest := timestamps[0]
		oldest := timestamps[len(timestamps)-1]
		spanSecs := newest - oldest
		if spanSecs < 1 {
			spanSecs = 1
		}
		timeSpanHours = float64(spanSecs) / 3600.0
		txPerHour = float64(txCount) / timeSpanHours
	}

	return programActivity{txCount: txCount, txPerHour: txPerHour, timeSpanHours: timeSpanHours}, nil
}

func rpcCall[T any](ctx context.Context, rpcURL string, http *httpclient.Client, method string, params any) (*T, error) {
	req := rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errs.Parse("serialize RPC request: " + err.Error())
	}

	text, err := http.PostJSONRaw(ctx, rpcURL, string(body), nil)
	if err != nil {
		return nil, err
	}

	var resp rpcResponse[T]
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, errs.Parse("parse RPC response: " + err.Error())
	}
	if resp.Error != nil {
		return nil, errs.API("solana-rpc", resp.Error.Message)
	}
	if resp.Result == nil {
		return nil, errs.Parse("RPC response missing result")
	}
	return resp.Result, nil
}
