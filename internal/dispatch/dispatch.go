package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Velocity-BPA/convex-monitor/internal/dedup"
	"github.com/Velocity-BPA/convex-monitor/internal/metrics"
	"github.com/Velocity-BPA/convex-monitor/internal/store"
	"github.com/Velocity-BPA/convex-monitor/internal/trigger"
)

// Marker records whether an event was already delivered. Clear re-arms a
// key so a later identical event is delivered again.
type Marker interface {
	AlreadySent(ctx context.Context, key string) bool
	Record(ctx context.Context, key string)
	Clear(ctx context.Context, key string)
}

// Dispatcher delivers emitted events to each trigger instance's webhook.
// Every event is posted individually; the deduplicator guarantees a
// detected change is delivered at most once even if the engine re-emits it.
type Dispatcher struct {
	client *http.Client
	marker Marker
	logger *slog.Logger
}

func New(marker Marker, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		client: &http.Client{Timeout: 15 * time.Second},
		marker: marker,
		logger: logger,
	}
}

// Deliver posts each event to the instance's webhook URL. Failures are
// logged and counted, never propagated: a broken webhook must not stall the
// poll loop or corrupt state.
func (d *Dispatcher) Deliver(ctx context.Context, inst store.Instance, events []trigger.Event) {
	if inst.WebhookURL == "" {
		for _, ev := range events {
			d.logger.Info("event detected (no webhook configured)",
				"instance", inst.ID, "event", string(ev.Kind))
		}
		return
	}

	for _, ev := range events {
		key := deliveryKey(inst, ev)
		if d.marker != nil && d.marker.AlreadySent(ctx, key) {
			metrics.DeliveriesDeduplicatedTotal.WithLabelValues(string(ev.Kind)).Inc()
			continue
		}

		if err := d.post(ctx, inst.WebhookURL, ev); err != nil {
			metrics.DeliveriesTotal.WithLabelValues(string(ev.Kind), "error").Inc()
			d.logger.Error("webhook delivery failed",
				"instance", inst.ID, "event", string(ev.Kind), "error", err)
			continue
		}

		metrics.DeliveriesTotal.WithLabelValues(string(ev.Kind), "ok").Inc()
		if d.marker != nil {
			d.marker.Record(ctx, key)
		}
	}
}

// ClearAlert re-arms the instance's crossing-style price alert after its
// condition reset, so the next genuine crossing is delivered instead of
// deduplicated.
func (d *Dispatcher) ClearAlert(ctx context.Context, inst store.Instance) {
	if d.marker == nil {
		return
	}
	cfg := inst.Config.WithDefaults()
	if cfg.PriceCondition != trigger.PriceAbove && cfg.PriceCondition != trigger.PriceBelow {
		return
	}
	d.marker.Clear(ctx, dedup.AlertKey(inst.ID, trigger.CvxPriceAlert, string(cfg.PriceCondition), cfg.PriceThreshold))
}

// deliveryKey picks the dedup key for one event. Crossing-style price
// alerts use the stable per-condition alert key so ClearAlert can re-arm
// them; everything else keys on the event fingerprint.
func deliveryKey(inst store.Instance, ev trigger.Event) string {
	if ev.Kind == trigger.CvxPriceAlert {
		cfg := inst.Config.WithDefaults()
		if cfg.PriceCondition == trigger.PriceAbove || cfg.PriceCondition == trigger.PriceBelow {
			return dedup.AlertKey(inst.ID, ev.Kind, string(cfg.PriceCondition), cfg.PriceThreshold)
		}
	}
	return dedup.EventKey(inst.ID, ev)
}

func (d *Dispatcher) post(ctx context.Context, url string, ev trigger.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status: %d", resp.StatusCode)
	}
	return nil
}
