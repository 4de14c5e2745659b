package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Velocity-BPA/convex-monitor/internal/convex"
)

// CvxSupply reports CVX supply figures and the market caps they imply at
// the current price.
func CvxSupply(c *convex.Client) http.HandlerFunc {
	type response struct {
		MaxSupply       float64 `json:"maxSupply"`
		EstTotalSupply  float64 `json:"estTotalSupply"`
		EstCirculating  float64 `json:"estCirculatingSupply"`
		EstLocked       float64 `json:"estLockedSupply"`
		PriceUsd        float64 `json:"priceUsd"`
		MarketCapUsd    float64 `json:"marketCapUsd"`
		FullyDilutedUsd float64 `json:"fullyDilutedValuationUsd"`
		PctOfMaxEmitted float64 `json:"pctOfMaxEmitted"`
		Contract        string  `json:"contract"`
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
			MaxSupply:       convex.MaxCvxSupply,
			EstTotalSupply:  convex.EstTotalCvxSupply,
			EstCirculating:  convex.EstCirculatingCvx,
			EstLocked:       convex.EstLockedCvx,
			PriceUsd:        price,
			MarketCapUsd:    price * convex.EstCirculatingCvx,
			FullyDilutedUsd: price * convex.MaxCvxSupply,
			PctOfMaxEmitted: float64(convex.EstTotalCvxSupply) / convex.MaxCvxSupply * 100,
			Contract:        convex.CvxContract,
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// CvxCrvSupply reports cvxCRV supply estimates together with the live peg
// against CRV, priced by contract address.
func CvxCrvSupply(c *convex.Client) http.HandlerFunc {
	type response struct {
		EstTotalSupply float64 `json:"estTotalSupply"`
		EstStaked      float64 `json:"estStakedSupply"`
		StakedPct      float64 `json:"stakedPct"`
		CvxCrvPriceUsd float64 `json:"cvxCrvPriceUsd"`
		CrvPriceUsd    float64 `json:"crvPriceUsd"`
		PegRatio       float64 `json:"pegRatio"`
		MarketCapUsd   float64 `json:"marketCapUsd"`
		Contract       string  `json:"contract"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		cvxCrvRef := convex.AddressRef("ethereum", convex.CvxCrvContract)
		crvRef := convex.AddressRef("ethereum", convex.CrvContract)
		prices, err := c.GetPrices(r.Context(), []convex.TokenRef{cvxCrvRef, crvRef})
		if err != nil {
			http.Error(w, `{"error":"failed to fetch prices"}`, http.StatusBadGateway)
			return
		}

		cvxCrvPrice := prices[cvxCrvRef.Key()]
		crvPrice := prices[crvRef.Key()]

		out := response{
			EstTotalSupply: convex.EstCvxCrvSupply,
			EstStaked:      convex.EstStakedCvxCrv,
			StakedPct:      float64(convex.EstStakedCvxCrv) / convex.EstCvxCrvSupply * 100,
			CvxCrvPriceUsd: cvxCrvPrice,
			CrvPriceUsd:    crvPrice,
			MarketCapUsd:   cvxCrvPrice * convex.EstCvxCrvSupply,
			Contract:       convex.CvxCrvContract,
		}
		if crvPrice > 0 {
			out.PegRatio = cvxCrvPrice / crvPrice
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

type tokenHolderInfo struct {
	Token          string  `json:"token"`
	Contract       string  `json:"contract"`
	EstHolderCount int     `json:"estHolderCount"`
	EstSupply      float64 `json:"estSupply"`
	Note           string  `json:"note"`
}

var tokenHolders = map[string]tokenHolderInfo{
	"cvx": {
		Token:          "CVX",
		Contract:       convex.CvxContract,
		EstHolderCount: 85_000,
		EstSupply:      convex.EstTotalCvxSupply,
		Note:           "holder counts are estimates; exact figures need an on-chain indexer",
	},
	"cvxcrv": {
		Token:          "cvxCRV",
		Contract:       convex.CvxCrvContract,
		EstHolderCount: 30_000,
		EstSupply:      convex.EstCvxCrvSupply,
		Note:           "holder counts are estimates; exact figures need an on-chain indexer",
	},
	"vlcvx": {
		Token:          "vlCVX",
		Contract:       convex.VlCvxContract,
		EstHolderCount: 20_000,
		EstSupply:      convex.EstLockedCvx,
		Note:           "holder counts are estimates; exact figures need an on-chain indexer",
	},
}

// TokenHolders serves per-token holder estimates for the Convex token set.
// The token name is case-insensitive; unknown tokens get a 404.
func TokenHolders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.ToLower(chi.URLParam(r, "token"))
		info, ok := tokenHolders[name]
		if !ok {
			http.Error(w, `{"error":"unknown token"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(info)
	}
}
