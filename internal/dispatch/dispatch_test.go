package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Velocity-BPA/convex-monitor/internal/store"
	"github.com/Velocity-BPA/convex-monitor/internal/trigger"
)

type fakeMarker struct {
	sent     map[string]bool
	recorded []string
}

func (f *fakeMarker) AlreadySent(_ context.Context, key string) bool { return f.sent[key] }

func (f *fakeMarker) Record(_ context.Context, key string) {
	f.recorded = append(f.recorded, key)
	f.sent[key] = true
}

func (f *fakeMarker) Clear(_ context.Context, key string) {
	delete(f.sent, key)
}

func testEvent() trigger.Event {
	return trigger.Event{
		Kind:      trigger.CvxPriceAlert,
		Fields:    map[string]any{"currentPrice": 3.5},
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDeliverPostsEvent(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&received)
	}))
	defer srv.Close()

	marker := &fakeMarker{sent: map[string]bool{}}
	d := New(marker, slog.Default())
	inst := store.Instance{ID: 1, WebhookURL: srv.URL}

	d.Deliver(context.Background(), inst, []trigger.Event{testEvent()})

	if received["event"] != "cvxPriceAlert" {
		t.Errorf("payload event = %v", received["event"])
	}
	if received["currentPrice"] != 3.5 {
		t.Errorf("payload fields = %v", received)
	}
	if len(marker.recorded) != 1 {
		t.Errorf("recorded %d keys, want 1", len(marker.recorded))
	}
}

func TestDeliverSkipsDuplicates(t *testing.T) {
	var posts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts++
	}))
	defer srv.Close()

	ev := testEvent()
	marker := &fakeMarker{sent: map[string]bool{}}
	d := New(marker, slog.Default())
	inst := store.Instance{ID: 1, WebhookURL: srv.URL}

	d.Deliver(context.Background(), inst, []trigger.Event{ev})
	marker.sent[marker.recorded[0]] = true
	d.Deliver(context.Background(), inst, []trigger.Event{ev})

	if posts != 1 {
		t.Errorf("posts = %d, want 1", posts)
	}
}

func TestDeliverFailureDoesNotRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	marker := &fakeMarker{sent: map[string]bool{}}
	d := New(marker, slog.Default())
	inst := store.Instance{ID: 1, WebhookURL: srv.URL}

	d.Deliver(context.Background(), inst, []trigger.Event{testEvent()})

	if len(marker.recorded) != 0 {
		t.Error("failed delivery must not be marked as sent")
	}
}

func TestPriceAlertRedeliversAfterConditionReset(t *testing.T) {
	var posts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts++
	}))
	defer srv.Close()

	crossing := trigger.Event{
		Kind: trigger.CvxPriceAlert,
		Fields: map[string]any{
			"previousPrice": 4.0,
			"currentPrice":  6.0,
			"condition":     "above",
		},
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	marker := &fakeMarker{sent: map[string]bool{}}
	d := New(marker, slog.Default())
	inst := store.Instance{
		ID:         1,
		WebhookURL: srv.URL,
		Config: trigger.Config{
			Event:          trigger.CvxPriceAlert,
			PriceCondition: trigger.PriceAbove,
			PriceThreshold: 5,
		},
	}

	// First crossing above $5 delivers; the identical re-emission is
	// suppressed while the condition holds.
	d.Deliver(context.Background(), inst, []trigger.Event{crossing})
	d.Deliver(context.Background(), inst, []trigger.Event{crossing})
	if posts != 1 {
		t.Fatalf("posts before reset = %d, want 1", posts)
	}

	// Price fell back under the threshold: the alert re-arms, and the
	// next crossing produces identical fields but must still deliver.
	d.ClearAlert(context.Background(), inst)
	d.Deliver(context.Background(), inst, []trigger.Event{crossing})
	if posts != 2 {
		t.Errorf("posts after reset = %d, want 2", posts)
	}
}

func TestChangeAlertKeepsFingerprintKey(t *testing.T) {
	inst := store.Instance{ID: 7, Config: trigger.Config{
		Event:          trigger.CvxPriceAlert,
		PriceCondition: trigger.PriceChange,
	}}
	ev := testEvent()

	if got, want := deliveryKey(inst, ev), "event:"; got[:len(want)] != want {
		t.Errorf("change-condition key = %q, want event fingerprint key", got)
	}

	inst.Config.PriceCondition = trigger.PriceBelow
	inst.Config.PriceThreshold = 3
	if got, want := deliveryKey(inst, ev), "alert:7:cvxPriceAlert:below:3"; got != want {
		t.Errorf("crossing-condition key = %q, want %q", got, want)
	}
}

func TestDeliverWithoutWebhookOnlyLogs(t *testing.T) {
	marker := &fakeMarker{sent: map[string]bool{}}
	d := New(marker, slog.Default())

	d.Deliver(context.Background(), store.Instance{ID: 1}, []trigger.Event{testEvent()})

	if len(marker.recorded) != 0 {
		t.Error("no webhook means nothing to record")
	}
}
