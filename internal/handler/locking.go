package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Velocity-BPA/convex-monitor/internal/convex"
)

// VlCvxStats reports the vote-locked CVX position: estimated locked supply,
// its share of circulating CVX, the lock terms and the locked value in USD.
func VlCvxStats(c *convex.Client) http.HandlerFunc {
	type response struct {
		Contract        string  `json:"contract"`
		EstLockedCvx    float64 `json:"estLockedCvx"`
		PctOfCirculat   float64 `json:"pctOfCirculating"`
		LockDuration    string  `json:"lockDuration"`
		LockWeeks       int     `json:"lockWeeks"`
		CvxPriceUsd     float64 `json:"cvxPriceUsd"`
		LockedValueUsd  float64 `json:"lockedValueUsd"`
		NextUnlockEpoch string  `json:"nextUnlockEpoch"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		prices, err := c.GetPrices(r.Context(), []convex.TokenRef{
			convex.GeckoRef(convex.GeckoCVX),
		})
		if err != nil {
			http.Error(w, `{"error":"failed to fetch price"}`, http.StatusBadGateway)
			return
		}
		price := prices[convex.GeckoRef(convex.GeckoCVX).Key()]

		out := response{
			Contract:        convex.VlCvxContract,
			EstLockedCvx:    convex.EstLockedCvx,
			PctOfCirculat:   float64(convex.EstLockedCvx) / convex.EstCirculatingCvx * 100,
			LockDuration:    "16 weeks + 1 day",
			LockWeeks:       convex.VlCvxLockWeeks,
			CvxPriceUsd:     price,
			LockedValueUsd:  price * convex.EstLockedCvx,
			NextUnlockEpoch: convex.UnlockDate(time.Now()).Format("2006-01-02"),
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// LockApr estimates the vlCVX lock APR from the platform fee share paid to
// lockers plus expected bribe income per locked CVX.
func LockApr(c *convex.Client) http.HandlerFunc {
	type response struct {
		TotalApr     float64 `json:"totalApr"`
		PlatformApr  float64 `json:"platformFeeApr"`
		BribeApr     float64 `json:"bribeApr"`
		CvxPriceUsd  float64 `json:"cvxPriceUsd"`
		LockerFeePct float64 `json:"vlCvxFeePct"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		prices, err := c.GetPrices(r.Context(), []convex.TokenRef{
			convex.GeckoRef(convex.GeckoCVX),
		})
		if err != nil {
			http.Error(w, `{"error":"failed to fetch price"}`, http.StatusBadGateway)
			return
		}
		price := prices[convex.GeckoRef(convex.GeckoCVX).Key()]

		var lockerShare float64
		for _, f := range convex.FeeSplit {
			if f.Name == "vlCvxHolders" {
				lockerShare = f.Percentage
			}
		}

		out := response{
			PlatformApr:  lockerShare,
			CvxPriceUsd:  price,
			LockerFeePct: lockerShare,
		}
		if price > 0 {
			annualPerCvx := float64(convex.EstWeeklyBribeRevenue) * convex.BribeRoundsPerYear / convex.EstLockedCvx
			out.BribeApr = annualPerCvx / price * 100
		}
		out.TotalApr = out.PlatformApr + out.BribeApr

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// BribeRevenue reports estimated bribe income flowing to vlCVX voters per
// round and per year.
func BribeRevenue(c *convex.Client) http.HandlerFunc {
	type response struct {
		EstWeeklyUsd    float64 `json:"estWeeklyRevenueUsd"`
		EstAnnualUsd    float64 `json:"estAnnualRevenueUsd"`
		RoundsPerYear   int     `json:"roundsPerYear"`
		PerVlCvxUsd     float64 `json:"annualPerVlCvxUsd"`
		EstLockedCvx    float64 `json:"estLockedCvx"`
		NextGaugeVote   string  `json:"nextGaugeVote"`
		CvxPriceUsd     float64 `json:"cvxPriceUsd"`
		ImpliedBribeApr float64 `json:"impliedBribeApr"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		prices, err := c.GetPrices(r.Context(), []convex.TokenRef{
			convex.GeckoRef(convex.GeckoCVX),
		})
		if err != nil {
			http.Error(w, `{"error":"failed to fetch price"}`, http.StatusBadGateway)
			return
		}
		price := prices[convex.GeckoRef(convex.GeckoCVX).Key()]

		annual := float64(convex.EstWeeklyBribeRevenue) * convex.BribeRoundsPerYear
		perCvx := annual / convex.EstLockedCvx

		out := response{
			EstWeeklyUsd:  convex.EstWeeklyBribeRevenue,
			EstAnnualUsd:  annual,
			RoundsPerYear: convex.BribeRoundsPerYear,
			PerVlCvxUsd:   perCvx,
			EstLockedCvx:  convex.EstLockedCvx,
			NextGaugeVote: convex.NextGaugeVote(time.Now()).Format("2006-01-02"),
			CvxPriceUsd:   price,
		}
		if price > 0 {
			out.ImpliedBribeApr = perCvx / price * 100
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// VotingPower describes what one vlCVX controls: the veCRV leverage behind
// each locked CVX and the protocol voting surface.
func VotingPower(c *convex.Client) http.HandlerFunc {
	type response struct {
		EstLockedCvx       float64 `json:"estLockedCvx"`
		EstVeCrvControlled float64 `json:"estVeCrvControlled"`
		VeCrvPerVlCvx      float64 `json:"veCrvPerVlCvx"`
		GovernanceSpace    string  `json:"governanceSpace"`
		ActiveProposals    int     `json:"activeProposals"`
		NextGaugeVote      string  `json:"nextGaugeVote"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		proposals := c.GetActiveProposals(r.Context())

		out := response{
			EstLockedCvx:       convex.EstLockedCvx,
			EstVeCrvControlled: convex.EstVeCrvControlled,
			VeCrvPerVlCvx:      float64(convex.EstVeCrvControlled) / convex.EstLockedCvx,
			GovernanceSpace:    convex.SnapshotSpace,
			ActiveProposals:    len(proposals),
			NextGaugeVote:      convex.NextGaugeVote(time.Now()).Format("2006-01-02"),
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}
