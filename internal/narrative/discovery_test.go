package narrative

import (
	"testing"

	"github.com/ampactor/st-solguard/internal/config"
)

func TestDiscoveredSignalRelevanceDefaultsWhenNil(t *testing.T) {
	s := discoveredSignal{}
	if got := s.relevance(); got != 0.5 {
		t.Errorf("relevance() = %v, want 0.5", got)
	}
}

func TestDiscoveredSignalRelevanceUsesExplicitValue(t *testing.T) {
	v := 0.9
	s := discoveredSignal{Relevance: &v}
	if got := s.relevance(); got != 0.9 {
		t.Errorf("relevance() = %v, want 0.9", got)
	}
}

func TestDiscoverDisabledReturnsNilWithoutError(t *testing.T) {
	signals, err := Discover(nil, nil, config.DiscoveryConfig{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signals != nil {
		t.Errorf("expected nil signals when discovery disabled, got %v", signals)
	}
}
