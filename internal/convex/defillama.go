package convex

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	resty "github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/Velocity-BPA/convex-monitor/internal/metrics"
)

// DefiLlama fetches Convex pool, TVL and price data from the public
// DefiLlama APIs. It is the required data source: every failure surfaces as
// a *TransportError to the caller.
type DefiLlama struct {
	client      *resty.Client
	protocolURL string
	tvlURL      string
	yieldsURL   string
	pricesURL   string
	limiter     *rate.Limiter
}

func NewDefiLlama(timeout time.Duration) *DefiLlama {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(3*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500 || r.StatusCode() == 429
		}).
		SetHeader("Accept", "application/json")

	return &DefiLlama{
		client:      client,
		protocolURL: DefiLlamaProtocolAPI,
		tvlURL:      DefiLlamaTvlAPI,
		yieldsURL:   DefiLlamaYieldsAPI,
		pricesURL:   DefiLlamaPricesAPI,
		limiter:     rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
	}
}

func (d *DefiLlama) get(ctx context.Context, op, url string, out any) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return &TransportError{Op: op, Err: err}
	}

	start := time.Now()
	resp, err := d.client.R().SetContext(ctx).Get(url)
	metrics.AdapterRequestDuration.WithLabelValues("defillama", op).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.AdapterRequestsTotal.WithLabelValues("defillama", op, "error").Inc()
		return &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode() != 200 {
		metrics.AdapterRequestsTotal.WithLabelValues("defillama", op, "error").Inc()
		return &TransportError{Op: op, Status: resp.StatusCode()}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		metrics.AdapterRequestsTotal.WithLabelValues("defillama", op, "error").Inc()
		return &TransportError{Op: op, Err: err}
	}

	metrics.AdapterRequestsTotal.WithLabelValues("defillama", op, "ok").Inc()
	return nil
}

// ProtocolData returns the Convex protocol snapshot (TVL, chain breakdown,
// 1d/7d change).
func (d *DefiLlama) ProtocolData(ctx context.Context) (*Protocol, error) {
	var p Protocol
	if err := d.get(ctx, "protocol", d.protocolURL+"/"+ConvexSlug, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Tvl returns the protocol-wide TVL as a raw number.
func (d *DefiLlama) Tvl(ctx context.Context) (float64, error) {
	var tvl float64
	if err := d.get(ctx, "tvl", d.tvlURL+"/"+ConvexSlug, &tvl); err != nil {
		return 0, err
	}
	return tvl, nil
}

// ConvexPools returns all yield pools tagged to Convex on the primary chain,
// in the order the yields API lists them.
func (d *DefiLlama) ConvexPools(ctx context.Context) ([]Pool, error) {
	var payload struct {
		Data []Pool `json:"data"`
	}
	if err := d.get(ctx, "pools", d.yieldsURL, &payload); err != nil {
		return nil, err
	}

	pools := make([]Pool, 0, 64)
	for _, p := range payload.Data {
		if strings.EqualFold(p.Project, ConvexSlug) && p.Chain == PrimaryChain {
			pools = append(pools, p)
		}
	}
	return pools, nil
}

// Prices resolves current USD prices for the given token references. Tokens
// the API does not know resolve to 0.
func (d *DefiLlama) Prices(ctx context.Context, refs []TokenRef) (map[string]float64, error) {
	if len(refs) == 0 {
		return map[string]float64{}, nil
	}

	keys := make([]string, len(refs))
	for i, r := range refs {
		keys[i] = r.Key()
	}

	var payload struct {
		Coins map[string]struct {
			Price float64 `json:"price"`
		} `json:"coins"`
	}
	if err := d.get(ctx, "prices", d.pricesURL+"/"+strings.Join(keys, ","), &payload); err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(refs))
	for _, k := range keys {
		out[k] = payload.Coins[k].Price
	}
	return out, nil
}
