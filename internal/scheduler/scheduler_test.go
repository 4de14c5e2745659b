package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Velocity-BPA/convex-monitor/internal/metrics"
	"github.com/Velocity-BPA/convex-monitor/internal/store"
	"github.com/Velocity-BPA/convex-monitor/internal/trigger"
)

type fakeStore struct {
	instances []store.Instance
	listErr   error
	states    map[int64]*trigger.PollingState
	saved     map[int64]*trigger.PollingState
}

func (f *fakeStore) ListEnabledInstances(context.Context) ([]store.Instance, error) {
	return f.instances, f.listErr
}

func (f *fakeStore) GetState(_ context.Context, id int64) (*trigger.PollingState, error) {
	if st, ok := f.states[id]; ok {
		return st, nil
	}
	return &trigger.PollingState{}, nil
}

func (f *fakeStore) SaveState(_ context.Context, id int64, st *trigger.PollingState) error {
	if f.saved == nil {
		f.saved = make(map[int64]*trigger.PollingState)
	}
	f.saved[id] = st
	return nil
}

type fakePoller struct {
	events []trigger.Event
	next   *trigger.PollingState
	err    error
	calls  int
}

func (f *fakePoller) Poll(_ context.Context, _ trigger.Config, st *trigger.PollingState) ([]trigger.Event, *trigger.PollingState, error) {
	f.calls++
	if f.err != nil {
		return nil, st, f.err
	}
	return f.events, f.next, nil
}

type fakeDeliverer struct {
	delivered []trigger.Event
	cleared   []int64
}

func (f *fakeDeliverer) Deliver(_ context.Context, _ store.Instance, events []trigger.Event) {
	f.delivered = append(f.delivered, events...)
}

func (f *fakeDeliverer) ClearAlert(_ context.Context, inst store.Instance) {
	f.cleared = append(f.cleared, inst.ID)
}

func testInstance(id int64) store.Instance {
	return store.Instance{ID: id, Name: "t", Config: trigger.Config{Event: trigger.CvxPriceAlert}, Enabled: true}
}

func TestTickSavesStateAndDelivers(t *testing.T) {
	count := 5
	next := &trigger.PollingState{LastPoolCount: &count}
	poller := &fakePoller{
		events: []trigger.Event{{Kind: trigger.NewPoolAdded, Fields: map[string]any{"poolId": "p1"}}},
		next:   next,
	}
	st := &fakeStore{instances: []store.Instance{testInstance(1)}}
	deliverer := &fakeDeliverer{}

	s := New(st, poller, deliverer, slog.Default(), time.Minute)
	s.Tick(context.Background())

	if poller.calls != 1 {
		t.Fatalf("poll calls = %d, want 1", poller.calls)
	}
	if st.saved[1] != next {
		t.Error("updated state was not persisted")
	}
	if len(deliverer.delivered) != 1 {
		t.Errorf("delivered %d events, want 1", len(deliverer.delivered))
	}
	if testutil.ToFloat64(metrics.PollLastSuccess.WithLabelValues(string(trigger.CvxPriceAlert))) == 0 {
		t.Error("poll success gauge not set for the instance's event kind")
	}
}

func TestTickDoesNotSaveOnPollError(t *testing.T) {
	poller := &fakePoller{err: errors.New("upstream down")}
	st := &fakeStore{instances: []store.Instance{testInstance(1)}}
	deliverer := &fakeDeliverer{}

	s := New(st, poller, deliverer, slog.Default(), time.Minute)
	s.Tick(context.Background())

	if len(st.saved) != 0 {
		t.Error("state must not be saved after a failed poll")
	}
	if len(deliverer.delivered) != 0 {
		t.Error("no events must be delivered after a failed poll")
	}
}

func TestTickNoDeliveryWithoutEvents(t *testing.T) {
	poller := &fakePoller{next: &trigger.PollingState{}}
	st := &fakeStore{instances: []store.Instance{testInstance(1)}}
	deliverer := &fakeDeliverer{}

	s := New(st, poller, deliverer, slog.Default(), time.Minute)
	s.Tick(context.Background())

	if st.saved[1] == nil {
		t.Error("state must be saved even when no events fire")
	}
	if len(deliverer.delivered) != 0 {
		t.Errorf("delivered %d events, want 0", len(deliverer.delivered))
	}
}

func TestTickClearsAlertWhenConditionResets(t *testing.T) {
	prev, next := 6.0, 4.0
	poller := &fakePoller{next: &trigger.PollingState{LastCvxPrice: &next}}

	inst := store.Instance{ID: 1, Name: "t", Enabled: true, Config: trigger.Config{
		Event:          trigger.CvxPriceAlert,
		PriceCondition: trigger.PriceAbove,
		PriceThreshold: 5,
	}}
	st := &fakeStore{
		instances: []store.Instance{inst},
		states:    map[int64]*trigger.PollingState{1: {LastCvxPrice: &prev}},
	}
	deliverer := &fakeDeliverer{}

	s := New(st, poller, deliverer, slog.Default(), time.Minute)
	s.Tick(context.Background())

	if len(deliverer.cleared) != 1 || deliverer.cleared[0] != 1 {
		t.Fatalf("cleared = %v, want instance 1 re-armed", deliverer.cleared)
	}

	// Price still below the threshold on the next tick: nothing new to
	// re-arm.
	st.states[1] = &trigger.PollingState{LastCvxPrice: &next}
	s.Tick(context.Background())
	if len(deliverer.cleared) != 1 {
		t.Errorf("cleared = %v, want no extra re-arm while condition stays reset", deliverer.cleared)
	}
}

func TestTickPollsEveryInstance(t *testing.T) {
	poller := &fakePoller{next: &trigger.PollingState{}}
	st := &fakeStore{instances: []store.Instance{testInstance(1), testInstance(2), testInstance(3)}}

	s := New(st, poller, &fakeDeliverer{}, slog.Default(), time.Minute)
	s.Tick(context.Background())

	if poller.calls != 3 {
		t.Errorf("poll calls = %d, want 3", poller.calls)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	poller := &fakePoller{next: &trigger.PollingState{}}
	st := &fakeStore{}
	s := New(st, poller, &fakeDeliverer{}, slog.Default(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
