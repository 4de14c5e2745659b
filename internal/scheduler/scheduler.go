package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/Velocity-BPA/convex-monitor/internal/metrics"
	"github.com/Velocity-BPA/convex-monitor/internal/store"
	"github.com/Velocity-BPA/convex-monitor/internal/trigger"
)

// InstanceStore is the persistence the scheduler needs: the enabled trigger
// instances and their polling state blobs.
type InstanceStore interface {
	ListEnabledInstances(ctx context.Context) ([]store.Instance, error)
	GetState(ctx context.Context, instanceID int64) (*trigger.PollingState, error)
	SaveState(ctx context.Context, instanceID int64, st *trigger.PollingState) error
}

// Poller runs one change-detection invocation.
type Poller interface {
	Poll(ctx context.Context, cfg trigger.Config, st *trigger.PollingState) ([]trigger.Event, *trigger.PollingState, error)
}

// Deliverer forwards emitted events to an instance's consumer and re-arms
// crossing-style alerts when their condition resets.
type Deliverer interface {
	Deliver(ctx context.Context, inst store.Instance, events []trigger.Event)
	ClearAlert(ctx context.Context, inst store.Instance)
}

// Scheduler invokes the engine for every enabled trigger instance on a
// fixed interval. Instances are polled sequentially from a single
// goroutine, so no two invocations ever share one PollingState.
type Scheduler struct {
	store    InstanceStore
	engine   Poller
	dispatch Deliverer
	logger   *slog.Logger
	interval time.Duration
}

func New(st InstanceStore, engine Poller, dispatch Deliverer, logger *slog.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		store:    st,
		engine:   engine,
		dispatch: dispatch,
		logger:   logger,
		interval: interval,
	}
}

// Run starts the polling loop and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	// Initial tick so fresh instances seed their baseline immediately.
	s.Tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick polls every enabled instance once.
func (s *Scheduler) Tick(ctx context.Context) {
	instances, err := s.store.ListEnabledInstances(ctx)
	if err != nil {
		s.logger.Error("list trigger instances failed", "error", err)
		return
	}
	metrics.TriggerInstancesActive.Set(float64(len(instances)))

	for _, inst := range instances {
		if ctx.Err() != nil {
			return
		}
		s.pollInstance(ctx, inst)
	}
}

func (s *Scheduler) pollInstance(ctx context.Context, inst store.Instance) {
	st, err := s.store.GetState(ctx, inst.ID)
	if err != nil {
		s.logger.Error("load polling state failed", "instance", inst.ID, "error", err)
		return
	}

	events, next, err := s.engine.Poll(ctx, inst.Config, st)
	if err != nil {
		// Failed polls leave the last-good baseline in place; the next
		// tick retries cleanly.
		s.logger.Error("poll failed", "instance", inst.ID, "event", string(inst.Config.Event), "error", err)
		return
	}

	if err := s.store.SaveState(ctx, inst.ID, next); err != nil {
		s.logger.Error("save polling state failed", "instance", inst.ID, "error", err)
		return
	}

	metrics.PollLastSuccess.WithLabelValues(string(inst.Config.Event)).SetToCurrentTime()

	if trigger.ConditionReset(inst.Config, st, next) {
		s.dispatch.ClearAlert(ctx, inst)
	}

	if len(events) > 0 {
		s.logger.Info("events detected",
			"instance", inst.ID, "event", string(inst.Config.Event), "count", len(events))
		s.dispatch.Deliver(ctx, inst, events)
	}
}
