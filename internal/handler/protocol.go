package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Velocity-BPA/convex-monitor/internal/convex"
)

func ProtocolTvl(c *convex.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := c.GetProtocolSnapshot(r.Context())
		if err != nil {
			http.Error(w, `{"error":"failed to fetch protocol data"}`, http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	}
}

// PlatformStats aggregates protocol TVL, pool totals and the CVX price into
// one response. The three upstream fetches are independent and run
// concurrently.
func PlatformStats(c *convex.Client) http.HandlerFunc {
	type stats struct {
		Name        string  `json:"name"`
		TvlUsd      float64 `json:"tvlUsd"`
		Change1d    float64 `json:"change_1d"`
		Change7d    float64 `json:"change_7d"`
		PoolCount   int     `json:"poolCount"`
		AverageApy  float64 `json:"averageApy"`
		HighestApy  float64 `json:"highestApy"`
		CvxPriceUsd float64 `json:"cvxPriceUsd"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var (
			snap  *convex.Protocol
			pools []convex.Pool
			price float64
		)

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			var err error
			snap, err = c.GetProtocolSnapshot(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			pools, err = c.GetPools(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			price, err = c.GetPrice(ctx, convex.GeckoRef(convex.GeckoCVX))
			return err
		})
		if err := g.Wait(); err != nil {
			http.Error(w, `{"error":"failed to fetch platform stats"}`, http.StatusBadGateway)
			return
		}

		out := stats{
			Name:        snap.Name,
			TvlUsd:      snap.Tvl,
			Change1d:    snap.Change1d,
			Change7d:    snap.Change7d,
			PoolCount:   len(pools),
			CvxPriceUsd: price,
		}
		var apySum float64
		for _, p := range pools {
			apySum += p.Apy
			if p.Apy > out.HighestApy {
				out.HighestApy = p.Apy
			}
		}
		if len(pools) > 0 {
			out.AverageApy = apySum / float64(len(pools))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

func FeeStructure() http.HandlerFunc {
	type response struct {
		TotalFeePct float64           `json:"totalFeePct"`
		Split       []convex.FeeShare `json:"split"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response{
			TotalFeePct: convex.TotalPlatformFeePct,
			Split:       convex.FeeSplit,
		})
	}
}

// PegRatio reports how far cvxCRV trades from its 1:1 CRV peg.
func PegRatio(c *convex.Client) http.HandlerFunc {
	type response struct {
		CvxCrvPriceUsd   float64 `json:"cvxCrvPriceUsd"`
		CrvPriceUsd      float64 `json:"crvPriceUsd"`
		Ratio            float64 `json:"ratio"`
		DeviationPercent float64 `json:"deviationPercent"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		prices, err := c.GetPrices(r.Context(), []convex.TokenRef{
			convex.GeckoRef(convex.GeckoCvxCRV),
			convex.GeckoRef(convex.GeckoCRV),
		})
		if err != nil {
			http.Error(w, `{"error":"failed to fetch prices"}`, http.StatusBadGateway)
			return
		}

		cvxCrv := prices[convex.GeckoRef(convex.GeckoCvxCRV).Key()]
		crv := prices[convex.GeckoRef(convex.GeckoCRV).Key()]
		if crv == 0 {
			http.Error(w, `{"error":"crv price unavailable"}`, http.StatusBadGateway)
			return
		}

		ratio := cvxCrv / crv
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response{
			CvxCrvPriceUsd:   cvxCrv,
			CrvPriceUsd:      crv,
			Ratio:            ratio,
			DeviationPercent: (ratio - 1) * 100,
		})
	}
}

// Emissions reports the CVX emission schedule at a given point of CRV earned,
// passed as ?crvEarned=N. An optional ?crvAmount=N adds a mint estimate.
func Emissions() http.HandlerFunc {
	type response struct {
		MaxSupply       float64 `json:"maxSupply"`
		CliffCount      int     `json:"cliffCount"`
		CliffSize       float64 `json:"cliffSize"`
		CurrentRate     float64 `json:"currentRate"`
		EstimatedCvx    float64 `json:"estimatedCvx,omitempty"`
		TotalCrvEarned  float64 `json:"totalCrvEarned"`
		RequestedAmount float64 `json:"requestedCrvAmount,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		earned, err := floatParam(r, "crvEarned")
		if err != nil {
			http.Error(w, `{"error":"invalid crvEarned"}`, http.StatusBadRequest)
			return
		}
		amount, err := floatParam(r, "crvAmount")
		if err != nil {
			http.Error(w, `{"error":"invalid crvAmount"}`, http.StatusBadRequest)
			return
		}

		out := response{
			MaxSupply:      convex.MaxCvxSupply,
			CliffCount:     convex.EmissionCliffs,
			CliffSize:      convex.EmissionCliffSize,
			CurrentRate:    convex.EmissionRate(earned),
			TotalCrvEarned: earned,
		}
		if amount > 0 {
			out.RequestedAmount = amount
			out.EstimatedCvx = convex.EstimateCvxFromCrv(amount, earned)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// VotingSchedule reports the next bi-weekly gauge weight vote date and the
// vlCVX lock parameters.
func VotingSchedule() http.HandlerFunc {
	type response struct {
		NextGaugeVote  time.Time `json:"nextGaugeVote"`
		LockWeeks      int       `json:"lockWeeks"`
		SnapshotSpace  string    `json:"snapshotSpace"`
		VlCvxContract  string    `json:"vlCvxContract"`
		SampleUnlockAt time.Time `json:"unlockIfLockedNow"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		now := time.Now().UTC()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response{
			NextGaugeVote:  convex.NextGaugeVote(now),
			LockWeeks:      convex.VlCvxLockWeeks,
			SnapshotSpace:  convex.SnapshotSpace,
			VlCvxContract:  convex.VlCvxContract,
			SampleUnlockAt: convex.UnlockDate(now),
		})
	}
}

func floatParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
