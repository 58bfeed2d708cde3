package solanarpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ampactor/st-solguard/internal/httpclient"
)

func TestRPCCallReturnsResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rpcResponse[epochInfo]{
			Result: &epochInfo{Epoch: 42, SlotIndex: 10, SlotsInEpoch: 100},
		})
	}))
	defer srv.Close()

	c := httpclient.New("test-agent")
	got, err := rpcCall[epochInfo](t.Context(), srv.URL, c, "getEpochInfo", []any{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Epoch != 42 {
		t.Errorf("Epoch = %d, want 42", got.Epoch)
	}
}

func TestRPCCallReturnsAPIErrorOnErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rpcResponse[epochInfo]{
			Error: &rpcError{Message: "method not found"},
		})
	}))
	defer srv.Close()

	c := httpclient.New("test-agent")
	_, err := rpcCall[epochInfo](t.Context(), srv.URL, c, "bogus", []any{})
	if err == nil {
		t.Fatal("expected error for RPC error envelope")
	}
}

func TestGetProgramActivityStopsWhenBatchUnderLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		blockTime1 := int64(1000)
		blockTime2 := int64(4600)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rpcResponse[[]sigInfo]{
			Result: &[]sigInfo{
				{Signature: "sig1", BlockTime: &blockTime2},
				{Signature: "sig2", BlockTime: &blockTime1},
			},
		})
	}))
	defer srv.Close()

	c := httpclient.New("test-agent")
	activity, err := getProgramActivity(t.Context(), srv.URL, c, "ProgramAddress111")
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected pagination to stop after first under-limit batch, got %d calls", calls)
	}
	if activity.txCount != 2 {
		t.Errorf("txCount = %d, want 2", activity.txCount)
	}
	if activity.txPerHour <= 0 {
		t.Errorf("expected positive txPerHour, got %v", activity.txPerHour)
	}
}
