package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Velocity-BPA/convex-monitor/internal/trigger"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Trigger instances ---

// Instance is one configured trigger: an event kind with its thresholds and
// the webhook its events are delivered to.
type Instance struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Config     trigger.Config `json:"config"`
	WebhookURL string         `json:"webhook_url"`
	Enabled    bool           `json:"enabled"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (s *Store) CreateInstance(ctx context.Context, name string, cfg trigger.Config, webhookURL string) (*Instance, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	var inst Instance
	var raw []byte
	err = s.pool.QueryRow(ctx, `
		INSERT INTO trigger_instances (name, event, config, webhook_url, enabled)
		VALUES ($1, $2, $3, $4, true)
		RETURNING id, name, config, webhook_url, enabled, created_at`,
		name, string(cfg.Event), cfgJSON, webhookURL).
		Scan(&inst.ID, &inst.Name, &raw, &inst.WebhookURL, &inst.Enabled, &inst.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &inst.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &inst, nil
}

func (s *Store) ListInstances(ctx context.Context) ([]Instance, error) {
	return s.listInstances(ctx, `
		SELECT id, name, config, webhook_url, enabled, created_at
		FROM trigger_instances ORDER BY id`)
}

// ListEnabledInstances returns the instances the scheduler should poll.
func (s *Store) ListEnabledInstances(ctx context.Context) ([]Instance, error) {
	return s.listInstances(ctx, `
		SELECT id, name, config, webhook_url, enabled, created_at
		FROM trigger_instances WHERE enabled = true ORDER BY id`)
}

func (s *Store) listInstances(ctx context.Context, query string) ([]Instance, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []Instance
	for rows.Next() {
		var inst Instance
		var raw []byte
		if err := rows.Scan(&inst.ID, &inst.Name, &raw, &inst.WebhookURL, &inst.Enabled, &inst.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &inst.Config); err != nil {
			return nil, fmt.Errorf("unmarshal config for instance %d: %w", inst.ID, err)
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

func (s *Store) GetInstance(ctx context.Context, id int64) (*Instance, error) {
	var inst Instance
	var raw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, config, webhook_url, enabled, created_at
		FROM trigger_instances WHERE id = $1`, id).
		Scan(&inst.ID, &inst.Name, &raw, &inst.WebhookURL, &inst.Enabled, &inst.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &inst.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &inst, nil
}

func (s *Store) SetInstanceEnabled(ctx context.Context, id int64, enabled bool) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE trigger_instances SET enabled = $2 WHERE id = $1`, id, enabled)
	return err
}

// DeleteInstance removes an instance and, via cascade, its polling state.
func (s *Store) DeleteInstance(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM trigger_instances WHERE id = $1`, id)
	return err
}

// --- Polling state ---

// GetState loads the persisted polling state for one instance. A missing
// row means "not yet observed" and yields an empty state.
func (s *Store) GetState(ctx context.Context, instanceID int64) (*trigger.PollingState, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM polling_state WHERE instance_id = $1`, instanceID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return &trigger.PollingState{}, nil
	}
	if err != nil {
		return nil, err
	}

	var st trigger.PollingState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("unmarshal polling state: %w", err)
	}
	return &st, nil
}

// SaveState upserts the polling state blob for one instance. Written only
// after the emit decision, so a crash mid-poll keeps the last-good baseline.
func (s *Store) SaveState(ctx context.Context, instanceID int64, st *trigger.PollingState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal polling state: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO polling_state (instance_id, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (instance_id) DO UPDATE SET state = $2, updated_at = now()`,
		instanceID, raw)
	return err
}
