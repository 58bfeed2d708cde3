package defillama

import (
	"context"
	"testing"

	"github.com/ampactor/st-solguard/internal/config"
)

func floatPtr(v float64) *float64 { return &v }

func TestProtocolTVLNilIsZero(t *testing.T) {
	p := protocol{}
	if got := p.tvl(); got != 0 {
		t.Errorf("tvl() = %v, want 0", got)
	}
}

func TestProtocolTVLUsesPointerValue(t *testing.T) {
	p := protocol{TVL: floatPtr(42.5)}
	if got := p.tvl(); got != 42.5 {
		t.Errorf("tvl() = %v, want 42.5", got)
	}
}

func TestProtocolOnSolanaViaChainField(t *testing.T) {
	p := protocol{Chain: "Solana"}
	if !p.onSolana() {
		t.Error("expected onSolana() true via Chain field")
	}
}

func TestProtocolOnSolanaViaChainsSlice(t *testing.T) {
	p := protocol{Chains: []string{"Ethereum", "Solana"}}
	if !p.onSolana() {
		t.Error("expected onSolana() true via Chains slice")
	}
}

func TestProtocolNotOnSolana(t *testing.T) {
	p := protocol{Chain: "Ethereum", Chains: []string{"Ethereum", "Polygon"}}
	if p.onSolana() {
		t.Error("expected onSolana() false")
	}
}

func TestCollectDisabledReturnsNilWithoutError(t *testing.T) {
	signals, err := Collect(context.Background(), config.DefiLlamaConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signals != nil {
		t.Errorf("expected nil signals when disabled, got %v", signals)
	}
}
