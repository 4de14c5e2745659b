package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Velocity-BPA/convex-monitor/internal/convex"
)

func partnerPools() []convex.Pool {
	return []convex.Pool{
		{Pool: "small", Symbol: "FRAX-A", TvlUsd: 100, Apy: 20, ApyBase: 2, ApyReward: 18},
		{Pool: "big", Symbol: "FRAX-B", TvlUsd: 9000, Apy: 5, ApyBase: 4, ApyReward: 1},
		{Pool: "mid", Symbol: "FRAX-C", TvlUsd: 500, Apy: 12, ApyBase: 1, ApyReward: 11},
	}
}

func TestWritePartnerPoolsFiltersAndSorts(t *testing.T) {
	rec := httptest.NewRecorder()
	writePartnerPools(rec, partnerPools(), 200, 0)

	var body struct {
		Count int           `json:"count"`
		Pools []convex.Pool `json:"pools"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2 after minTvl filter", body.Count)
	}
	if body.Pools[0].Pool != "big" || body.Pools[1].Pool != "mid" {
		t.Errorf("order = %s, %s", body.Pools[0].Pool, body.Pools[1].Pool)
	}
}

func TestWritePartnerPoolsLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	writePartnerPools(rec, partnerPools(), 0, 1)

	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}
}

func TestWritePartnerApySortOptions(t *testing.T) {
	tests := []struct {
		sort string
		want string
	}{
		{"", "small"}, // default: highest apy
		{"tvl", "big"},
		{"apyBase", "big"},
		{"apyReward", "small"},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/frax/apy?sort="+tc.sort, nil)
		rec := httptest.NewRecorder()
		writePartnerApy(rec, req, partnerPools())

		var body struct {
			Pools []convex.Pool `json:"pools"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Pools[0].Pool != tc.want {
			t.Errorf("sort=%q first pool = %s, want %s", tc.sort, body.Pools[0].Pool, tc.want)
		}
	}
}

func TestWritePartnerApySinglePool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/frax/apy?poolId=MID", nil)
	rec := httptest.NewRecorder()
	writePartnerApy(rec, req, partnerPools())

	var p convex.Pool
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Pool != "mid" {
		t.Errorf("pool = %s, want mid", p.Pool)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/frax/apy?poolId=nope", nil)
	rec = httptest.NewRecorder()
	writePartnerApy(rec, req, partnerPools())
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown pool status = %d", rec.Code)
	}
}

func TestTokenHolders(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/token/{token}/holders", TokenHolders())

	req := httptest.NewRequest(http.MethodGet, "/api/token/CVX/holders", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Token    string `json:"token"`
		Contract string `json:"contract"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Token != "CVX" || body.Contract != convex.CvxContract {
		t.Errorf("body = %+v", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/token/doge/holders", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown token status = %d", rec.Code)
	}
}

func TestSumTvl(t *testing.T) {
	if got := sumTvl(partnerPools()); got != 9600 {
		t.Errorf("sumTvl = %v, want 9600", got)
	}
	if got := sumTvl(nil); got != 0 {
		t.Errorf("sumTvl(nil) = %v, want 0", got)
	}
}
