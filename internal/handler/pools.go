package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Velocity-BPA/convex-monitor/internal/convex"
)

func ListPools(c *convex.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pools, err := c.GetPools(r.Context())
		if err != nil {
			http.Error(w, `{"error":"failed to fetch pools"}`, http.StatusBadGateway)
			return
		}
		if pools == nil {
			pools = []convex.Pool{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pools)
	}
}

func GetPool(c *convex.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		pool, err := c.GetPoolByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, convex.ErrNotFound) {
				http.Error(w, `{"error":"pool not found"}`, http.StatusNotFound)
				return
			}
			http.Error(w, `{"error":"failed to fetch pools"}`, http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pool)
	}
}

func TopPoolsByApy(c *convex.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pools, err := c.GetTopPoolsByApy(r.Context(), limitParam(r))
		if err != nil {
			http.Error(w, `{"error":"failed to fetch pools"}`, http.StatusBadGateway)
			return
		}
		if pools == nil {
			pools = []convex.Pool{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pools)
	}
}

func TopPoolsByTvl(c *convex.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pools, err := c.GetTopPoolsByTvl(r.Context(), limitParam(r))
		if err != nil {
			http.Error(w, `{"error":"failed to fetch pools"}`, http.StatusBadGateway)
			return
		}
		if pools == nil {
			pools = []convex.Pool{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pools)
	}
}

// limitParam reads ?limit=N, defaulting to 0 so callers apply their own
// default.
func limitParam(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
