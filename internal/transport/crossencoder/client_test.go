package crossencoder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shoptalk-ai/shoptalk/internal/retry"
)

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func newTestClient(url string) *Client {
	return NewClient(&Config{
		URL:     url,
		Model:   "test-ce",
		Timeout: time.Second,
		Retry:   fastRetry(),
		Logger:  zap.NewNop(),
	})
}

func TestScore_IndexAligned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "red shoes" || len(req.Documents) != 3 || req.Model != "test-ce" {
			t.Errorf("unexpected request: %+v", req)
		}

		// Results arrive in relevance order, not input order.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"index":2,"relevance_score":0.9},
			{"index":0,"relevance_score":0.5},
			{"index":1,"relevance_score":0.1}
		]}`))
	}))
	defer server.Close()

	scores, err := newTestClient(server.URL).Score(context.Background(), "red shoes", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	want := []float64{0.5, 0.1, 0.9}
	for i := range want {
		if scores[i] != want[i] {
			t.Fatalf("scores = %v, want %v", scores, want)
		}
	}
}

func TestScore_EmptyDocuments(t *testing.T) {
	scores, err := newTestClient("http://unused").Score(context.Background(), "q", nil)
	if err != nil || scores != nil {
		t.Fatalf("scores = %v, err = %v; want nil, nil", scores, err)
	}
}

func TestScore_RetriesServerError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"index":0,"relevance_score":0.7}]}`))
	}))
	defer server.Close()

	scores, err := newTestClient(server.URL).Score(context.Background(), "q", []string{"a"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if scores[0] != 0.7 {
		t.Errorf("scores = %v", scores)
	}
}

func TestScore_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"bad payload"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Score(context.Background(), "q", []string{"a"})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (4xx is not retryable)", calls)
	}
}

func TestScore_ExhaustsRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Score(context.Background(), "q", []string{"a"})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}
