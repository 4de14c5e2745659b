package handler

import (
	"encoding/json"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/Velocity-BPA/convex-monitor/internal/convex"
)

var cvxCrvTerms = []string{"cvxcrv"}

// CvxCrvStats aggregates the cvxCRV staking picture: staked TVL from the
// cvxCRV pools, the current staking APR, token prices and protocol context.
func CvxCrvStats(c *convex.Client) http.HandlerFunc {
	type stats struct {
		CvxCrvContract  string   `json:"cvxCrvContract"`
		StakingContract string   `json:"stakingContract"`
		TotalStakedUsd  float64  `json:"totalStakedUsd"`
		StakingApr      float64  `json:"stakingApr"`
		CrvPriceUsd     float64  `json:"crvPriceUsd"`
		CvxPriceUsd     float64  `json:"cvxPriceUsd"`
		PoolCount       int      `json:"poolCount"`
		ProtocolTvlUsd  float64  `json:"protocolTvlUsd"`
		RewardTokens    []string `json:"rewardTokens"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var (
			pools  []convex.Pool
			snap   *convex.Protocol
			prices map[string]float64
		)

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			var err error
			pools, err = c.GetPoolsMatching(ctx, cvxCrvTerms...)
			return err
		})
		g.Go(func() error {
			var err error
			snap, err = c.GetProtocolSnapshot(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			prices, err = c.GetPrices(ctx, []convex.TokenRef{
				convex.GeckoRef(convex.GeckoCRV),
				convex.GeckoRef(convex.GeckoCVX),
			})
			return err
		})
		if err := g.Wait(); err != nil {
			http.Error(w, `{"error":"failed to fetch staking stats"}`, http.StatusBadGateway)
			return
		}

		out := stats{
			CvxCrvContract:  convex.CvxCrvContract,
			StakingContract: convex.CvxCrvStakingContract,
			TotalStakedUsd:  sumTvl(pools),
			CrvPriceUsd:     prices[convex.GeckoRef(convex.GeckoCRV).Key()],
			CvxPriceUsd:     prices[convex.GeckoRef(convex.GeckoCVX).Key()],
			PoolCount:       len(pools),
			ProtocolTvlUsd:  snap.Tvl,
			RewardTokens:    []string{"3CRV", "CVX"},
		}
		if len(pools) > 0 {
			out.StakingApr = pools[0].Apy
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// StakingApr breaks the cvxCRV staking APR into its base and reward parts.
func StakingApr(c *convex.Client) http.HandlerFunc {
	type response struct {
		StakingApr  float64 `json:"stakingApr"`
		BaseApr     float64 `json:"baseApr"`
		RewardApr   float64 `json:"rewardApr"`
		AprChange7d float64 `json:"aprChange7d"`
		AprChange30 float64 `json:"aprChange30d"`
		Token       string  `json:"stakingToken"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		pools, err := c.GetPoolsMatching(r.Context(), cvxCrvTerms...)
		if err != nil {
			http.Error(w, `{"error":"failed to fetch pools"}`, http.StatusBadGateway)
			return
		}

		out := response{Token: "cvxCRV"}
		if len(pools) > 0 {
			p := pools[0]
			out.StakingApr = p.Apy
			out.BaseApr = p.ApyBase
			out.RewardApr = p.ApyReward
			out.AprChange7d = p.ApyPct7D
			out.AprChange30 = p.ApyPct30D
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// StakingTvl reports the cvxCRV staking TVL against the protocol-wide raw
// TVL number and its per-chain breakdown.
func StakingTvl(c *convex.Client) http.HandlerFunc {
	type response struct {
		CvxCrvStakingTvl float64            `json:"cvxCrvStakingTvl"`
		ProtocolTvlUsd   float64            `json:"protocolTvlUsd"`
		TvlPercentage    float64            `json:"tvlPercentage"`
		ChainBreakdown   map[string]float64 `json:"chainBreakdown"`
		PoolCount        int                `json:"poolCount"`
		TvlChange1d      float64            `json:"tvlChange1d"`
		TvlChange7d      float64            `json:"tvlChange7d"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var (
			pools []convex.Pool
			snap  *convex.Protocol
			tvl   float64
		)

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			var err error
			pools, err = c.GetPoolsMatching(ctx, cvxCrvTerms...)
			return err
		})
		g.Go(func() error {
			var err error
			snap, err = c.GetProtocolSnapshot(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			tvl, err = c.GetTvl(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			http.Error(w, `{"error":"failed to fetch staking tvl"}`, http.StatusBadGateway)
			return
		}

		out := response{
			CvxCrvStakingTvl: sumTvl(pools),
			ProtocolTvlUsd:   tvl,
			ChainBreakdown:   snap.ChainTvls,
			PoolCount:        len(pools),
			TvlChange1d:      snap.Change1d,
			TvlChange7d:      snap.Change7d,
		}
		if tvl > 0 {
			out.TvlPercentage = out.CvxCrvStakingTvl / tvl * 100
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// CvxCrvRewards estimates the cvxCRV staker reward split: the 3CRV share
// funded by the platform fee and the CVX emission portion.
func CvxCrvRewards(c *convex.Client) http.HandlerFunc {
	type rewardPart struct {
		Token        string  `json:"token"`
		EstimatedApr float64 `json:"estimatedApr"`
	}
	type response struct {
		TotalApr    float64    `json:"totalApr"`
		ThreeCrv    rewardPart `json:"threeCrv"`
		Cvx         rewardPart `json:"cvx"`
		PlatformFee float64    `json:"platformFeePct"`
		StakerFeeSh float64    `json:"cvxCrvStakerFeePct"`
		CrvPriceUsd float64    `json:"crvPriceUsd"`
		CvxPriceUsd float64    `json:"cvxPriceUsd"`
		Claimable   []string   `json:"claimable"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var (
			pools  []convex.Pool
			prices map[string]float64
		)

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			var err error
			pools, err = c.GetPoolsMatching(ctx, cvxCrvTerms...)
			return err
		})
		g.Go(func() error {
			var err error
			prices, err = c.GetPrices(ctx, []convex.TokenRef{
				convex.GeckoRef(convex.GeckoCRV),
				convex.GeckoRef(convex.GeckoCVX),
			})
			return err
		})
		if err := g.Wait(); err != nil {
			http.Error(w, `{"error":"failed to fetch reward data"}`, http.StatusBadGateway)
			return
		}

		var apr float64
		if len(pools) > 0 {
			apr = pools[0].Apy
		}

		var stakerShare float64
		for _, f := range convex.FeeSplit {
			if f.Name == "cvxCrvStakers" {
				stakerShare = f.Percentage
			}
		}

		out := response{
			TotalApr:    apr,
			ThreeCrv:    rewardPart{Token: "3CRV", EstimatedApr: apr * stakerShare / 100},
			Cvx:         rewardPart{Token: "CVX", EstimatedApr: apr * 0.3},
			PlatformFee: convex.TotalPlatformFeePct,
			StakerFeeSh: stakerShare,
			CrvPriceUsd: prices[convex.GeckoRef(convex.GeckoCRV).Key()],
			CvxPriceUsd: prices[convex.GeckoRef(convex.GeckoCVX).Key()],
			Claimable:   []string{"3CRV", "CVX"},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

func sumTvl(pools []convex.Pool) float64 {
	var total float64
	for _, p := range pools {
		total += p.TvlUsd
	}
	return total
}
