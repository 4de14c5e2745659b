package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/Velocity-BPA/convex-monitor/internal/convex"
	"github.com/Velocity-BPA/convex-monitor/internal/metrics"
)

// DataClient is the slice of the unified data client the engine needs.
// Governance data is best effort and therefore carries no error return.
type DataClient interface {
	GetPools(ctx context.Context) ([]convex.Pool, error)
	GetProtocolSnapshot(ctx context.Context) (*convex.Protocol, error)
	GetPrices(ctx context.Context, refs []convex.TokenRef) (map[string]float64, error)
	GetActiveProposals(ctx context.Context) []convex.Proposal
}

// Engine runs one change-detection rule per invocation: fetch current
// values, compare against the last observation, decide emit-or-not, and
// overwrite the stored observation. Persisting the returned state is the
// caller's job.
type Engine struct {
	client DataClient
	logger *slog.Logger
	now    func() time.Time
}

func NewEngine(client DataClient, logger *slog.Logger) *Engine {
	return &Engine{client: client, logger: logger, now: time.Now}
}

type handlerFunc func(ctx context.Context, e *Engine, cfg Config, st *PollingState) ([]Event, error)

// handlers is the closed dispatch table over event kinds.
var handlers = map[EventKind]handlerFunc{
	PoolApyChanged:     checkPoolApyChanged,
	NewPoolAdded:       checkNewPoolAdded,
	PoolTvlChanged:     checkPoolTvlChanged,
	CvxCrvAprChanged:   checkCvxCrvAprChanged,
	CvxCrvPegAlert:     checkCvxCrvPegAlert,
	NewProposal:        checkNewProposal,
	CvxPriceAlert:      checkCvxPriceAlert,
	ProtocolTvlChanged: checkProtocolTvlChanged,
}

// Poll runs the configured event kind once. On success it returns the
// emitted events (possibly none) and the updated state. On failure the
// input state is returned untouched: a failed fetch must not move the
// baseline.
func (e *Engine) Poll(ctx context.Context, cfg Config, st *PollingState) ([]Event, *PollingState, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, st, err
	}

	handler, ok := handlers[cfg.Event]
	if !ok {
		return nil, st, fmt.Errorf("unknown event kind %q", cfg.Event)
	}

	next := st.Clone()
	start := time.Now()
	events, err := handler(ctx, e, cfg, next)
	metrics.PollDuration.WithLabelValues(string(cfg.Event)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.PollTotal.WithLabelValues(string(cfg.Event), "error").Inc()
		return nil, st, err
	}

	metrics.PollTotal.WithLabelValues(string(cfg.Event), "ok").Inc()
	metrics.EventsEmittedTotal.WithLabelValues(string(cfg.Event)).Add(float64(len(events)))
	return events, next, nil
}

func (e *Engine) newEvent(kind EventKind, fields map[string]any) Event {
	return Event{Kind: kind, Fields: fields, Timestamp: e.now()}
}

func checkPoolApyChanged(ctx context.Context, e *Engine, cfg Config, st *PollingState) ([]Event, error) {
	pools, err := e.client.GetPools(ctx)
	if err != nil {
		return nil, err
	}

	var relevant []convex.Pool
	if cfg.PoolID != "" {
		for _, p := range pools {
			if strings.EqualFold(p.Pool, cfg.PoolID) {
				relevant = append(relevant, p)
			}
		}
	} else {
		relevant = pools
		if len(relevant) > poolApyScanLimit {
			relevant = relevant[:poolApyScanLimit]
		}
	}

	// First observation seeds the baseline without emitting.
	if st.LastPoolApys == nil {
		st.LastPoolApys = make(map[string]float64, len(relevant))
		for _, p := range relevant {
			st.LastPoolApys[p.Pool] = p.Apy
		}
		return nil, nil
	}

	var events []Event
	for _, p := range relevant {
		last := st.LastPoolApys[p.Pool]
		if math.Abs(p.Apy-last) >= cfg.ApyThreshold {
			events = append(events, e.newEvent(PoolApyChanged, map[string]any{
				"poolId":      p.Pool,
				"symbol":      p.Symbol,
				"previousApy": last,
				"currentApy":  p.Apy,
				"change":      p.Apy - last,
				"tvl":         p.TvlUsd,
			}))
		}
		st.LastPoolApys[p.Pool] = p.Apy
	}
	return events, nil
}

func checkNewPoolAdded(ctx context.Context, e *Engine, _ Config, st *PollingState) ([]Event, error) {
	pools, err := e.client.GetPools(ctx)
	if err != nil {
		return nil, err
	}
	count := len(pools)

	if st.LastPoolCount == nil {
		st.LastPoolCount = ptr(count)
		return nil, nil
	}

	var events []Event
	if count > *st.LastPoolCount {
		// Count-delta heuristic: the yields API carries no creation
		// timestamp, so the first N entries stand in for the N new pools.
		for _, p := range pools[:count-*st.LastPoolCount] {
			events = append(events, e.newEvent(NewPoolAdded, map[string]any{
				"poolId": p.Pool,
				"symbol": p.Symbol,
				"tvl":    p.TvlUsd,
				"apy":    p.Apy,
			}))
		}
	}

	st.LastPoolCount = ptr(count)
	return events, nil
}

func checkPoolTvlChanged(ctx context.Context, e *Engine, cfg Config, st *PollingState) ([]Event, error) {
	current, err := e.protocolTvl(ctx)
	if err != nil {
		return nil, err
	}

	if st.LastPoolTvl == nil || *st.LastPoolTvl == 0 {
		st.LastPoolTvl = ptr(current)
		return nil, nil
	}

	last := *st.LastPoolTvl
	changePercent := (current - last) / last * 100

	var events []Event
	if math.Abs(changePercent) >= cfg.TvlThreshold {
		events = append(events, e.newEvent(PoolTvlChanged, map[string]any{
			"previousTvl":   last,
			"currentTvl":    current,
			"changeUsd":     current - last,
			"changePercent": changePercent,
		}))
	}

	st.LastPoolTvl = ptr(current)
	return events, nil
}

func checkCvxCrvAprChanged(ctx context.Context, e *Engine, cfg Config, st *PollingState) ([]Event, error) {
	pools, err := e.client.GetPools(ctx)
	if err != nil {
		return nil, err
	}

	// Value source: the first pool whose symbol mentions cvxcrv, else 0.
	var current float64
	for _, p := range pools {
		if strings.Contains(strings.ToLower(p.Symbol), "cvxcrv") {
			current = p.Apy
			break
		}
	}

	if st.LastApy == nil {
		st.LastApy = make(map[string]float64, 1)
	}
	last, seeded := st.LastApy["cvxcrv"]
	if !seeded {
		st.LastApy["cvxcrv"] = current
		return nil, nil
	}

	var events []Event
	if math.Abs(current-last) >= cfg.ApyThreshold {
		events = append(events, e.newEvent(CvxCrvAprChanged, map[string]any{
			"previousApr": last,
			"currentApr":  current,
			"change":      current - last,
		}))
	}

	st.LastApy["cvxcrv"] = current
	return events, nil
}

func checkCvxCrvPegAlert(ctx context.Context, e *Engine, cfg Config, st *PollingState) ([]Event, error) {
	prices, err := e.client.GetPrices(ctx, []convex.TokenRef{
		convex.GeckoRef(convex.GeckoCvxCRV),
		convex.GeckoRef(convex.GeckoCRV),
	})
	if err != nil {
		return nil, err
	}

	cvxCrvPrice := prices[convex.GeckoRef(convex.GeckoCvxCRV).Key()]
	crvPrice := prices[convex.GeckoRef(convex.GeckoCRV).Key()]

	ratio := 1.0
	if crvPrice > 0 {
		ratio = cvxCrvPrice / crvPrice
	}
	deviation := math.Abs(1-ratio) * 100

	if st.LastCvxCrvRatio == nil {
		st.LastCvxCrvRatio = ptr(ratio)
		return nil, nil
	}

	var events []Event
	if deviation >= cfg.PegThreshold {
		status := "over-peg"
		if ratio < 1 {
			status = "under-peg"
		}
		events = append(events, e.newEvent(CvxCrvPegAlert, map[string]any{
			"cvxCrvPrice":      cvxCrvPrice,
			"crvPrice":         crvPrice,
			"ratio":            ratio,
			"deviationPercent": deviation,
			"status":           status,
			"previousRatio":    *st.LastCvxCrvRatio,
		}))
	}

	st.LastCvxCrvRatio = ptr(ratio)
	return events, nil
}

func checkNewProposal(ctx context.Context, e *Engine, _ Config, st *PollingState) ([]Event, error) {
	proposals := e.client.GetActiveProposals(ctx)
	if len(proposals) == 0 {
		// Includes the unreachable-hub case: governance data is best
		// effort, so an empty result is "no signal", never a failure.
		return nil, nil
	}

	latest := proposals[0]
	if st.LastProposalID == nil {
		st.LastProposalID = ptr(latest.ID)
		return nil, nil
	}
	if latest.ID == *st.LastProposalID {
		return nil, nil
	}

	var events []Event
	for _, p := range proposals {
		if p.ID == *st.LastProposalID {
			continue
		}
		events = append(events, e.newEvent(NewProposal, map[string]any{
			"proposalId":  p.ID,
			"title":       p.Title,
			"author":      p.Author,
			"choices":     p.Choices,
			"startTime":   time.Unix(p.Start, 0).UTC().Format(time.RFC3339),
			"endTime":     time.Unix(p.End, 0).UTC().Format(time.RFC3339),
			"snapshotUrl": fmt.Sprintf("https://snapshot.org/#/%s/proposal/%s", convex.SnapshotSpace, p.ID),
		}))
	}

	st.LastProposalID = ptr(latest.ID)
	return events, nil
}

func checkCvxPriceAlert(ctx context.Context, e *Engine, cfg Config, st *PollingState) ([]Event, error) {
	prices, err := e.client.GetPrices(ctx, []convex.TokenRef{convex.GeckoRef(convex.GeckoCVX)})
	if err != nil {
		return nil, err
	}
	current := prices[convex.GeckoRef(convex.GeckoCVX).Key()]

	if st.LastCvxPrice == nil {
		st.LastCvxPrice = ptr(current)
		return nil, nil
	}
	previous := *st.LastCvxPrice

	fire := false
	reason := ""
	switch cfg.PriceCondition {
	case PriceAbove:
		// Crossing only: a price that stays above the threshold does not
		// re-fire.
		if current > cfg.PriceThreshold && previous <= cfg.PriceThreshold {
			fire = true
			reason = fmt.Sprintf("Price crossed above $%v", cfg.PriceThreshold)
		}
	case PriceBelow:
		if current < cfg.PriceThreshold && previous >= cfg.PriceThreshold {
			fire = true
			reason = fmt.Sprintf("Price crossed below $%v", cfg.PriceThreshold)
		}
	case PriceChange:
		if previous != 0 {
			changePercent := (current - previous) / previous * 100
			if math.Abs(changePercent) >= cfg.PriceChangeThreshold {
				fire = true
				reason = fmt.Sprintf("Price changed by %.2f%%", changePercent)
			}
		}
	}

	var events []Event
	if fire {
		var changePercent float64
		if previous != 0 {
			changePercent = (current - previous) / previous * 100
		}
		events = append(events, e.newEvent(CvxPriceAlert, map[string]any{
			"previousPrice": previous,
			"currentPrice":  current,
			"changeUsd":     current - previous,
			"changePercent": changePercent,
			"condition":     string(cfg.PriceCondition),
			"reason":        reason,
		}))
	}

	st.LastCvxPrice = ptr(current)
	return events, nil
}

// ConditionReset reports whether a crossing-style alert condition moved
// back to the non-firing side of its threshold between two polls. Only
// cvxPriceAlert with the above or below condition is crossing-style; change
// alerts carry no armed state to reset.
func ConditionReset(cfg Config, prev, next *PollingState) bool {
	if cfg.Event != CvxPriceAlert || prev == nil || next == nil {
		return false
	}
	if prev.LastCvxPrice == nil || next.LastCvxPrice == nil {
		return false
	}
	cfg = cfg.WithDefaults()
	before, after := *prev.LastCvxPrice, *next.LastCvxPrice
	switch cfg.PriceCondition {
	case PriceAbove:
		return before > cfg.PriceThreshold && after <= cfg.PriceThreshold
	case PriceBelow:
		return before < cfg.PriceThreshold && after >= cfg.PriceThreshold
	}
	return false
}

func checkProtocolTvlChanged(ctx context.Context, e *Engine, cfg Config, st *PollingState) ([]Event, error) {
	current, err := e.protocolTvl(ctx)
	if err != nil {
		return nil, err
	}

	if st.LastProtocolTvl == nil || *st.LastProtocolTvl == 0 {
		st.LastProtocolTvl = ptr(current)
		return nil, nil
	}

	last := *st.LastProtocolTvl
	changePercent := (current - last) / last * 100

	var events []Event
	if math.Abs(changePercent) >= cfg.TvlThreshold {
		direction := "increase"
		if changePercent < 0 {
			direction = "decrease"
		}
		events = append(events, e.newEvent(ProtocolTvlChanged, map[string]any{
			"previousTvl":   last,
			"currentTvl":    current,
			"changeUsd":     current - last,
			"changePercent": changePercent,
			"direction":     direction,
		}))
	}

	st.LastProtocolTvl = ptr(current)
	return events, nil
}

func (e *Engine) protocolTvl(ctx context.Context) (float64, error) {
	protocol, err := e.client.GetProtocolSnapshot(ctx)
	if err != nil {
		return 0, err
	}
	if protocol == nil {
		return 0, nil
	}
	return protocol.Tvl, nil
}
