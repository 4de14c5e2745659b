package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Velocity-BPA/convex-monitor/internal/convex"
)

var fraxTerms = []string{"frax", "fxs"}

// FraxPools lists the Frax-aligned Convex pools, largest TVL first.
// Accepts ?limit and ?minTvl.
func FraxPools(c *convex.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		minTvl, err := floatParam(r, "minTvl")
		if err != nil {
			http.Error(w, `{"error":"invalid minTvl"}`, http.StatusBadRequest)
			return
		}

		pools, err := c.GetPoolsMatching(r.Context(), fraxTerms...)
		if err != nil {
			http.Error(w, `{"error":"failed to fetch pools"}`, http.StatusBadGateway)
			return
		}
		writePartnerPools(w, pools, minTvl, limitParam(r))
	}
}

// FraxApy serves APY detail for the Frax pool set. ?poolId narrows to one
// pool and ?sort picks the ordering (apy, tvl, apyBase, apyReward).
func FraxApy(c *convex.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pools, err := c.GetPoolsMatching(r.Context(), fraxTerms...)
		if err != nil {
			http.Error(w, `{"error":"failed to fetch pools"}`, http.StatusBadGateway)
			return
		}
		writePartnerApy(w, r, pools)
	}
}

// CvxFxsStats reports the cvxFXS position: FXS and cvxFXS prices, the peg
// between them, and a supply estimate derived from the Frax pool TVL.
func CvxFxsStats(c *convex.Client) http.HandlerFunc {
	type stats struct {
		CvxFxsContract  string  `json:"cvxFxsContract"`
		FxsPriceUsd     float64 `json:"fxsPriceUsd"`
		CvxFxsPriceUsd  float64 `json:"cvxFxsPriceUsd"`
		PegRatio        float64 `json:"pegRatio"`
		FraxPoolTvlUsd  float64 `json:"fraxPoolTvlUsd"`
		EstCvxFxsSupply float64 `json:"estCvxFxsSupply"`
		PoolCount       int     `json:"poolCount"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var (
			pools  []convex.Pool
			prices map[string]float64
		)

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			var err error
			pools, err = c.GetPoolsMatching(ctx, fraxTerms...)
			return err
		})
		g.Go(func() error {
			var err error
			prices, err = c.GetPrices(ctx, []convex.TokenRef{
				convex.GeckoRef(convex.GeckoFXS),
				convex.GeckoRef(convex.GeckoCvxFXS),
			})
			return err
		})
		if err := g.Wait(); err != nil {
			http.Error(w, `{"error":"failed to fetch cvxFXS stats"}`, http.StatusBadGateway)
			return
		}

		fxsPrice := prices[convex.GeckoRef(convex.GeckoFXS).Key()]
		cvxFxsPrice := prices[convex.GeckoRef(convex.GeckoCvxFXS).Key()]
		tvl := sumTvl(pools)

		out := stats{
			CvxFxsContract: convex.CvxFxsContract,
			FxsPriceUsd:    fxsPrice,
			CvxFxsPriceUsd: cvxFxsPrice,
			FraxPoolTvlUsd: tvl,
			PoolCount:      len(pools),
		}
		if fxsPrice > 0 {
			out.PegRatio = cvxFxsPrice / fxsPrice
			out.EstCvxFxsSupply = tvl / fxsPrice * 0.3
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// FxsRewards estimates annual reward flow for the Frax pools. With ?poolId
// it reports one pool, otherwise the aggregate with a TVL-weighted APY.
func FxsRewards(c *convex.Client) http.HandlerFunc {
	type poolRewards struct {
		Pool             string   `json:"pool"`
		Symbol           string   `json:"symbol"`
		TvlUsd           float64  `json:"tvlUsd"`
		ApyReward        float64  `json:"apyReward"`
		AnnualRewardsUsd float64  `json:"annualRewardsUsd"`
		RewardTokens     []string `json:"rewardTokens"`
	}
	type aggregate struct {
		PoolCount        int     `json:"poolCount"`
		TotalTvlUsd      float64 `json:"totalTvlUsd"`
		WeightedApy      float64 `json:"weightedApy"`
		AnnualRewardsUsd float64 `json:"annualRewardsUsd"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		pools, err := c.GetPoolsMatching(r.Context(), fraxTerms...)
		if err != nil {
			http.Error(w, `{"error":"failed to fetch pools"}`, http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if id := r.URL.Query().Get("poolId"); id != "" {
			for _, p := range pools {
				if strings.EqualFold(p.Pool, id) {
					_ = json.NewEncoder(w).Encode(poolRewards{
						Pool:             p.Pool,
						Symbol:           p.Symbol,
						TvlUsd:           p.TvlUsd,
						ApyReward:        p.ApyReward,
						AnnualRewardsUsd: p.TvlUsd * p.ApyReward / 100,
						RewardTokens:     p.RewardTokens,
					})
					return
				}
			}
			http.Error(w, `{"error":"pool not found"}`, http.StatusNotFound)
			return
		}

		var out aggregate
		var weighted float64
		for _, p := range pools {
			out.PoolCount++
			out.TotalTvlUsd += p.TvlUsd
			out.AnnualRewardsUsd += p.TvlUsd * p.ApyReward / 100
			weighted += p.TvlUsd * p.Apy
		}
		if out.TotalTvlUsd > 0 {
			out.WeightedApy = weighted / out.TotalTvlUsd
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// writePartnerPools applies a minimum-TVL filter, sorts by TVL and truncates
// before encoding. Shared by the Frax and Prisma pool listings.
func writePartnerPools(w http.ResponseWriter, pools []convex.Pool, minTvl float64, limit int) {
	var out []convex.Pool
	for _, p := range pools {
		if p.TvlUsd >= minTvl {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TvlUsd > out[j].TvlUsd })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Count int           `json:"count"`
		Pools []convex.Pool `json:"pools"`
	}{Count: len(out), Pools: out})
}

// writePartnerApy serves the APY view shared by the Frax and Prisma sets:
// ?poolId narrows to a single pool, ?sort orders the listing.
func writePartnerApy(w http.ResponseWriter, r *http.Request, pools []convex.Pool) {
	w.Header().Set("Content-Type", "application/json")

	if id := r.URL.Query().Get("poolId"); id != "" {
		for _, p := range pools {
			if strings.EqualFold(p.Pool, id) {
				_ = json.NewEncoder(w).Encode(p)
				return
			}
		}
		http.Error(w, `{"error":"pool not found"}`, http.StatusNotFound)
		return
	}

	less := func(i, j int) bool { return pools[i].Apy > pools[j].Apy }
	switch r.URL.Query().Get("sort") {
	case "tvl":
		less = func(i, j int) bool { return pools[i].TvlUsd > pools[j].TvlUsd }
	case "apyBase":
		less = func(i, j int) bool { return pools[i].ApyBase > pools[j].ApyBase }
	case "apyReward":
		less = func(i, j int) bool { return pools[i].ApyReward > pools[j].ApyReward }
	}
	sort.SliceStable(pools, less)

	_ = json.NewEncoder(w).Encode(struct {
		Count int           `json:"count"`
		Pools []convex.Pool `json:"pools"`
	}{Count: len(pools), Pools: pools})
}
