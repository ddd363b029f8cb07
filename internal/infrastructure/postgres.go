package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(connString string) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}

	if err := client.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

func (p *PostgresClient) Migrate() error {
	ctx := context.Background()

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS businesses (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			contract_status VARCHAR(20) NOT NULL DEFAULT 'pending',
			chatbot_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			channel_id VARCHAR(128),             -- legacy direct lookup
			legacy_credentials TEXT,             -- sealed, legacy rows only
			created_at TIMESTAMPTZ DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS branches (
			id BIGSERIAL PRIMARY KEY,
			business_id BIGINT NOT NULL REFERENCES businesses(id),
			name VARCHAR(255) NOT NULL,
			chatbot_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			channel_id VARCHAR(128),             -- legacy direct lookup
			legacy_credentials TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS channel_integrations (
			id BIGSERIAL PRIMARY KEY,
			platform VARCHAR(32) NOT NULL,
			external_id VARCHAR(128) NOT NULL,
			business_id BIGINT REFERENCES businesses(id),
			branch_id BIGINT REFERENCES branches(id),
			provider VARCHAR(32) NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			credentials TEXT NOT NULL,           -- sealed JSON
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (platform, external_id)
		);`,
		`CREATE TABLE IF NOT EXISTS carts (
			id BIGSERIAL PRIMARY KEY,
			business_id BIGINT NOT NULL REFERENCES businesses(id),
			customer_channel_id VARCHAR(128) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'cart',
			items JSONB NOT NULL DEFAULT '[]',
			delivery JSONB,
			scheduled_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_carts_open
			ON carts (business_id, customer_channel_id) WHERE status = 'cart';`,
		`CREATE TABLE IF NOT EXISTS cart_status_history (
			id BIGSERIAL PRIMARY KEY,
			cart_id BIGINT NOT NULL REFERENCES carts(id),
			status VARCHAR(20) NOT NULL,
			note TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS conversation_sessions (
			business_id BIGINT NOT NULL REFERENCES businesses(id),
			customer_channel_id VARCHAR(128) NOT NULL,
			assigned_employee_id BIGINT,
			locked BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (business_id, customer_channel_id)
		);`,
		`CREATE TABLE IF NOT EXISTS message_logs (
			id BIGSERIAL PRIMARY KEY,
			business_id BIGINT NOT NULL,
			direction VARCHAR(4) NOT NULL,
			channel VARCHAR(32) NOT NULL,
			customer_channel_id VARCHAR(128) NOT NULL,
			correlation_id VARCHAR(64) NOT NULL,
			kind VARCHAR(16) NOT NULL,
			body TEXT,
			provider_message_id VARCHAR(128),
			tokens_in INT NOT NULL DEFAULT 0,
			tokens_out INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_message_logs_conv
			ON message_logs (business_id, customer_channel_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS reservations (
			id BIGSERIAL PRIMARY KEY,
			business_id BIGINT NOT NULL REFERENCES businesses(id),
			resource_id VARCHAR(128) NOT NULL,
			customer_channel_id VARCHAR(128),
			starts_at TIMESTAMPTZ NOT NULL,
			ends_at TIMESTAMPTZ NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'confirmed',
			created_at TIMESTAMPTZ DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_window
			ON reservations (business_id, resource_id, starts_at);`,
		`CREATE TABLE IF NOT EXISTS operators (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'operator',
			business_id BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS business_settings (
			business_id BIGINT NOT NULL REFERENCES businesses(id),
			key VARCHAR(64) NOT NULL,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (business_id, key)
		);`,
		`CREATE TABLE IF NOT EXISTS catalog_items (
			id BIGSERIAL PRIMARY KEY,
			business_id BIGINT NOT NULL REFERENCES businesses(id),
			name VARCHAR(255) NOT NULL,
			price DECIMAL(15, 2) NOT NULL DEFAULT 0,
			available BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);`,
	}

	for _, stmt := range ddl {
		if _, err := p.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
