package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Velocity-BPA/convex-monitor/internal/convex"
)

func ActiveProposals(c *convex.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		proposals := c.GetActiveProposals(r.Context())
		if proposals == nil {
			proposals = []convex.Proposal{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(proposals)
	}
}

func AllProposals(c *convex.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		proposals := c.GetAllProposals(r.Context(), limitParam(r))
		if proposals == nil {
			proposals = []convex.Proposal{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(proposals)
	}
}

func GetProposal(c *convex.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := c.GetProposalByID(r.Context(), chi.URLParam(r, "id"))
		if p == nil {
			http.Error(w, `{"error":"proposal not found"}`, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p)
	}
}

func ProposalVotes(c *convex.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		votes := c.GetProposalVotes(r.Context(), chi.URLParam(r, "id"), limitParam(r))
		if votes == nil {
			votes = []convex.Vote{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(votes)
	}
}

func GaugeVotes(c *convex.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		proposals := c.GetGaugeWeightVotes(r.Context(), limitParam(r))
		if proposals == nil {
			proposals = []convex.Proposal{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(proposals)
	}
}
