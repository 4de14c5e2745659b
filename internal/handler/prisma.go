package handler

import (
	"encoding/json"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/Velocity-BPA/convex-monitor/internal/convex"
)

var prismaTerms = []string{"prisma", "mkusd"}

// PrismaPools lists the Prisma-aligned Convex pools, largest TVL first.
// Accepts ?limit and ?minTvl.
func PrismaPools(c *convex.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		minTvl, err := floatParam(r, "minTvl")
		if err != nil {
			http.Error(w, `{"error":"invalid minTvl"}`, http.StatusBadRequest)
			return
		}

		pools, err := c.GetPoolsMatching(r.Context(), prismaTerms...)
		if err != nil {
			http.Error(w, `{"error":"failed to fetch pools"}`, http.StatusBadGateway)
			return
		}
		writePartnerPools(w, pools, minTvl, limitParam(r))
	}
}

// PrismaApy serves APY detail for the Prisma pool set with the same query
// surface as the Frax variant.
func PrismaApy(c *convex.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pools, err := c.GetPoolsMatching(r.Context(), prismaTerms...)
		if err != nil {
			http.Error(w, `{"error":"failed to fetch pools"}`, http.StatusBadGateway)
			return
		}
		writePartnerApy(w, r, pools)
	}
}

// CvxPrismaStats reports the cvxPRISMA position: PRISMA price, Prisma pool
// TVL and its share of protocol TVL, plus a derived supply estimate.
func CvxPrismaStats(c *convex.Client) http.HandlerFunc {
	type stats struct {
		CvxPrismaContract  string  `json:"cvxPrismaContract"`
		PrismaPriceUsd     float64 `json:"prismaPriceUsd"`
		PrismaPoolTvlUsd   float64 `json:"prismaPoolTvlUsd"`
		EstCvxPrismaSupply float64 `json:"estCvxPrismaSupply"`
		ProtocolTvlUsd     float64 `json:"protocolTvlUsd"`
		TvlPercentage      float64 `json:"tvlPercentage"`
		PoolCount          int     `json:"poolCount"`
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
			pools, err = c.GetPoolsMatching(ctx, prismaTerms...)
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
				convex.GeckoRef(convex.GeckoPRISMA),
			})
			return err
		})
		if err := g.Wait(); err != nil {
			http.Error(w, `{"error":"failed to fetch cvxPRISMA stats"}`, http.StatusBadGateway)
			return
		}

		prismaPrice := prices[convex.GeckoRef(convex.GeckoPRISMA).Key()]
		tvl := sumTvl(pools)

		out := stats{
			CvxPrismaContract: convex.CvxPrismaContract,
			PrismaPriceUsd:    prismaPrice,
			PrismaPoolTvlUsd:  tvl,
			ProtocolTvlUsd:    snap.Tvl,
			PoolCount:         len(pools),
		}
		if prismaPrice > 0 {
			out.EstCvxPrismaSupply = tvl / prismaPrice * 0.25
		}
		if snap.Tvl > 0 {
			out.TvlPercentage = tvl / snap.Tvl * 100
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}
