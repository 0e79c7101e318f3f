package main

import (
	"context"
	"fmt"
	"os"

	"skeptical-attorney-backend/config"
	"skeptical-attorney-backend/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var tables = []struct {
	name string
	sql  string
}{
	{
		name: "users",
		sql: `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    name VARCHAR(255) NOT NULL,
    firm_name VARCHAR(255),
    billing_goal VARCHAR(255),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);`,
	},
	{
		name: "api_tokens",
		sql: `
CREATE TABLE IF NOT EXISTS api_tokens (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    secret_hash VARCHAR(255) NOT NULL,
    label VARCHAR(255),
    expires_at TIMESTAMPTZ,
    revoked_at TIMESTAMPTZ,
    last_used_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ DEFAULT NOW()
);`,
	},
	{
		name: "cases",
		sql: `
CREATE TABLE IF NOT EXISTS cases (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    case_name VARCHAR(500) NOT NULL,
    case_number VARCHAR(100),
    case_type VARCHAR(100),
    client VARCHAR(255),
    trial_date DATE,
    msc_date DATE,
    court VARCHAR(255),
    court_county VARCHAR(100),

    -- [{id, date, description, completed, isCalculated}]
    deadlines JSONB DEFAULT '[]'::jsonb,
    plaintiffs JSONB DEFAULT '[]'::jsonb,
    defendants JSONB DEFAULT '[]'::jsonb,

    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);`,
	},
	{
		name: "billing_entries",
		sql: `
CREATE TABLE IF NOT EXISTS billing_entries (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    case_id UUID REFERENCES cases(id) ON DELETE SET NULL,
    case_name VARCHAR(500),
    description TEXT NOT NULL,
    hours NUMERIC(6, 2) NOT NULL CHECK (hours > 0),
    rate NUMERIC(10, 2),
    amount NUMERIC(12, 2),
    billing_date DATE NOT NULL,
    is_ai_generated BOOLEAN DEFAULT false,
    created_at TIMESTAMP DEFAULT NOW()
);`,
	},
}

var indexes = []struct {
	name string
	sql  string
}{
	{"Cases by owner", "CREATE INDEX IF NOT EXISTS idx_cases_user_id ON cases(user_id, updated_at DESC);"},
	{"Tokens by owner", "CREATE INDEX IF NOT EXISTS idx_api_tokens_user_id ON api_tokens(user_id);"},
	{"Billing by owner and date", "CREATE INDEX IF NOT EXISTS idx_billing_user_date ON billing_entries(user_id, billing_date DESC);"},
	{"Billing by case", "CREATE INDEX IF NOT EXISTS idx_billing_case_id ON billing_entries(case_id) WHERE case_id IS NOT NULL;"},
}

func main() {
	logger := logging.Must("info", "console")
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	for _, t := range tables {
		if _, err := pool.Exec(ctx, t.sql); err != nil {
			logger.Error("failed to create table", zap.String("table", t.name), zap.Error(err))
			os.Exit(1)
		}
		logger.Info("created table", zap.String("table", t.name))
	}

	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx.sql); err != nil {
			logger.Warn("failed to create index", zap.String("index", idx.name), zap.Error(err))
			continue
		}
		logger.Info("created index", zap.String("index", idx.name))
	}

	fmt.Printf("\nDatabase schema created: %d tables, %d indexes\n", len(tables), len(indexes))
}
