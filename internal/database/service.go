/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"

	"invest-settlement-go/internal/models"
	"invest-settlement-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time checks: *Service must satisfy the store contracts.
var (
	_ store.SettlementStore = (*Service)(nil)
	_ store.SettingsStore   = (*Service)(nil)
)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.InitSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

// NewServiceWithDB wraps an existing connection; used by tests and cmd/setup.
func NewServiceWithDB(db *sql.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) InitSchema() error {
	schema := `
	-- Accounts: current balance state per user (hot data)
	CREATE TABLE IF NOT EXISTS accounts (
		user_id TEXT PRIMARY KEY,
		balance TEXT NOT NULL DEFAULT '0',
		available_balance TEXT NOT NULL DEFAULT '0',
		invested_balance TEXT NOT NULL DEFAULT '0',
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Ledger: append-only audit trail of every balance change (cold data)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		transaction_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		balance_before TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		chain TEXT DEFAULT '',
		reference_type TEXT DEFAULT '',
		reference_id TEXT DEFAULT '',
		description TEXT DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_user_id ON ledger_entries(user_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_created_at ON ledger_entries(created_at);
	CREATE INDEX IF NOT EXISTS idx_ledger_reference ON ledger_entries(reference_type, reference_id);

	-- Deposits: user-submitted claims, credited only on confirmation
	CREATE TABLE IF NOT EXISTS deposits (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		chain TEXT NOT NULL,
		tx_hash TEXT NOT NULL,
		from_address TEXT DEFAULT '',
		to_address TEXT DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		admin_notes TEXT DEFAULT '',
		verified_by TEXT DEFAULT '',
		verified_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(chain, tx_hash)
	);

	CREATE INDEX IF NOT EXISTS idx_deposits_user_id ON deposits(user_id);
	CREATE INDEX IF NOT EXISTS idx_deposits_status ON deposits(status);
	CREATE INDEX IF NOT EXISTS idx_deposits_tx_hash ON deposits(tx_hash);

	-- Withdrawals: funds held at request time, released or refunded later
	CREATE TABLE IF NOT EXISTS withdrawals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		chain TEXT NOT NULL,
		wallet_address TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		tx_hash TEXT DEFAULT '',
		rejection_reason TEXT DEFAULT '',
		admin_notes TEXT DEFAULT '',
		requested_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		processed_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_withdrawals_user_id ON withdrawals(user_id);
	CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals(status);

	-- Investments: amount is the immutable original principal
	CREATE TABLE IF NOT EXISTS investments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		level INTEGER NOT NULL,
		level_name TEXT NOT NULL,
		profit_rate TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		next_profit_date TEXT NOT NULL,
		last_profit_date TEXT DEFAULT '',
		total_profit_earned TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		closed_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_investments_user_id ON investments(user_id);
	CREATE INDEX IF NOT EXISTS idx_investments_due ON investments(status, next_profit_date);
	-- At most one active investment per user, enforced at the database level
	CREATE UNIQUE INDEX IF NOT EXISTS idx_investments_one_active
		ON investments(user_id) WHERE status = 'active';

	-- Investment levels: contiguous [min,max] tiers with a daily rate in percent
	CREATE TABLE IF NOT EXISTS investment_levels (
		level INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		min_amount TEXT NOT NULL,
		max_amount TEXT NOT NULL,
		daily_rate TEXT NOT NULL
	);

	-- Profit runs: the (run_type, run_date) uniqueness is the distributed lock
	CREATE TABLE IF NOT EXISTS profit_runs (
		id TEXT PRIMARY KEY,
		run_type TEXT NOT NULL,
		run_date TEXT NOT NULL,
		idempotency_key TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'running',
		total_investments_processed INTEGER NOT NULL DEFAULT 0,
		total_profit_distributed TEXT NOT NULL DEFAULT '0',
		total_users_credited INTEGER NOT NULL DEFAULT 0,
		errors_count INTEGER NOT NULL DEFAULT 0,
		error_details TEXT DEFAULT '',
		started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		finished_at TIMESTAMP,
		UNIQUE(run_type, run_date)
	);

	-- KYC submissions: written by the KYC collaborator, read here
	CREATE TABLE IF NOT EXISTS kyc_submissions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_kyc_user_id ON kyc_submissions(user_id, created_at);

	-- Settings: key-value store for scan cursors and platform wallets
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}
