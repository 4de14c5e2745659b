package convex

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestActiveProposals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Variables["space"] != "cvx.eth" {
			t.Errorf("space = %v", req.Variables["space"])
		}
		w.Write([]byte(`{"data":{"proposals":[
			{"id":"p2","title":"Gauge Weight Vote","state":"active","author":"0xabc"},
			{"id":"p1","title":"Treasury grant","state":"active","author":"0xdef"}
		]}}`))
	}))
	defer srv.Close()

	s := NewSnapshot(srv.URL, slog.Default())
	proposals := s.ActiveProposals(context.Background())
	if len(proposals) != 2 {
		t.Fatalf("got %d proposals, want 2", len(proposals))
	}
	if proposals[0].ID != "p2" {
		t.Errorf("order not preserved: %v", proposals[0].ID)
	}
}

func TestSnapshotFailuresYieldEmptyResults(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http 500", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusInternalServerError)
		}},
		{"graphql errors", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"errors":[{"message":"rate limited"}]}`))
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			s := NewSnapshot(srv.URL, slog.Default())
			if got := s.ActiveProposals(context.Background()); got != nil {
				t.Errorf("ActiveProposals = %v, want nil", got)
			}
			if got := s.ProposalByID(context.Background(), "p1"); got != nil {
				t.Errorf("ProposalByID = %v, want nil", got)
			}
			if got := s.ProposalVotes(context.Background(), "p1", 10); got != nil {
				t.Errorf("ProposalVotes = %v, want nil", got)
			}
		})
	}
}

func TestSnapshotUnreachableHub(t *testing.T) {
	s := NewSnapshot("http://127.0.0.1:1", slog.Default())
	if got := s.ActiveProposals(context.Background()); got != nil {
		t.Errorf("ActiveProposals = %v, want nil", got)
	}
}

func TestGaugeWeightVotesFiltersByTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"proposals":[
			{"id":"p1","title":"Gauge Weight Vote Round 70"},
			{"id":"p2","title":"Treasury diversification"},
			{"id":"p3","title":"Vote on fee change"},
			{"id":"p4","title":"Partnership announcement"}
		]}}`))
	}))
	defer srv.Close()

	s := NewSnapshot(srv.URL, slog.Default())
	got := s.GaugeWeightVotes(context.Background(), 10)
	if len(got) != 2 {
		t.Fatalf("got %d proposals, want 2", len(got))
	}
	if got[0].ID != "p1" || got[1].ID != "p3" {
		t.Errorf("wrong proposals: %v, %v", got[0].ID, got[1].ID)
	}
}

func TestProposalVotesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Variables["proposal"] != "p1" {
			t.Errorf("proposal = %v", req.Variables["proposal"])
		}
		w.Write([]byte(`{"data":{"votes":[
			{"id":"v1","voter":"0xaaa","vp":1000,"choice":1},
			{"id":"v2","voter":"0xbbb","vp":50,"choice":2}
		]}}`))
	}))
	defer srv.Close()

	s := NewSnapshot(srv.URL, slog.Default())
	votes := s.ProposalVotes(context.Background(), "p1", 10)
	if len(votes) != 2 {
		t.Fatalf("got %d votes, want 2", len(votes))
	}
	if votes[0].Vp != 1000 {
		t.Errorf("vp = %v", votes[0].Vp)
	}
}
