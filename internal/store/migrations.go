package store

import "context"

const migrationSQL = `
CREATE TABLE IF NOT EXISTS trigger_instances (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    event TEXT NOT NULL,
    config JSONB NOT NULL DEFAULT '{}',
    webhook_url TEXT NOT NULL DEFAULT '',
    enabled BOOLEAN NOT NULL DEFAULT true,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS polling_state (
    instance_id BIGINT PRIMARY KEY REFERENCES trigger_instances(id) ON DELETE CASCADE,
    state JSONB NOT NULL DEFAULT '{}',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_trigger_instances_enabled
    ON trigger_instances (enabled) WHERE enabled = true;
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migrationSQL)
	return err
}
