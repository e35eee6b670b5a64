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

const (
	// Account queries
	queryGetAccount = `
		SELECT user_id, balance, available_balance, invested_balance, version, updated_at
		FROM accounts
		WHERE user_id = ?`

	queryInsertAccount = `
		INSERT INTO accounts (user_id, balance, available_balance, invested_balance, version)
		VALUES (?, '0', '0', '0', 1)`

	queryUpdateAccount = `
		UPDATE accounts
		SET balance = ?, available_balance = ?, invested_balance = ?,
		    version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND version = ?`

	// Ledger queries
	queryInsertLedgerEntry = `
		INSERT INTO ledger_entries (
			id, user_id, transaction_type, amount, balance_before, balance_after,
			chain, reference_type, reference_id, description
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryListLedgerEntries = `
		SELECT id, user_id, transaction_type, amount, balance_before, balance_after,
		       chain, reference_type, reference_id, description, created_at
		FROM ledger_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	// Deposit queries
	queryInsertDeposit = `
		INSERT INTO deposits (id, user_id, amount, chain, tx_hash, to_address, status)
		VALUES (?, ?, ?, ?, ?, ?, 'pending')`

	queryGetDeposit = `
		SELECT id, user_id, amount, chain, tx_hash, from_address, to_address,
		       status, admin_notes, verified_by, verified_at, created_at
		FROM deposits
		WHERE id = ?`

	queryFindPendingDepositByTxHash = `
		SELECT id, user_id, amount, chain, tx_hash, from_address, to_address,
		       status, admin_notes, verified_by, verified_at, created_at
		FROM deposits
		WHERE tx_hash = ? AND status = 'pending'
		LIMIT 1`

	queryFindDepositByChainTxHash = `
		SELECT id FROM deposits WHERE chain = ? AND tx_hash = ? LIMIT 1`

	queryConfirmDeposit = `
		UPDATE deposits
		SET status = 'confirmed', verified_by = ?, verified_at = CURRENT_TIMESTAMP,
		    admin_notes = ?, from_address = ?, to_address = ?
		WHERE id = ? AND status = 'pending'`

	queryRejectDeposit = `
		UPDATE deposits
		SET status = 'failed', verified_by = ?, verified_at = CURRENT_TIMESTAMP, admin_notes = ?
		WHERE id = ? AND status = 'pending'`

	queryAppendDepositNote = `
		UPDATE deposits
		SET admin_notes = CASE WHEN admin_notes = '' THEN ? ELSE admin_notes || char(10) || ? END
		WHERE id = ?`

	queryDepositStats = `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'confirmed' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'confirmed' THEN CAST(amount AS REAL) ELSE 0 END), 0)
		FROM deposits`

	// Withdrawal queries
	queryInsertWithdrawal = `
		INSERT INTO withdrawals (id, user_id, amount, chain, wallet_address, status)
		VALUES (?, ?, ?, ?, ?, 'pending')`

	queryGetWithdrawal = `
		SELECT id, user_id, amount, chain, wallet_address, status, tx_hash,
		       rejection_reason, admin_notes, requested_at, processed_at
		FROM withdrawals
		WHERE id = ?`

	queryApproveWithdrawal = `
		UPDATE withdrawals
		SET status = 'completed', tx_hash = ?, admin_notes = ?, processed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'`

	queryRefundWithdrawal = `
		UPDATE withdrawals
		SET status = ?, rejection_reason = ?, processed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'`

	queryWithdrawalStats = `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'completed' THEN CAST(amount AS REAL) ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'pending' THEN CAST(amount AS REAL) ELSE 0 END), 0)
		FROM withdrawals`

	// Investment queries
	queryInsertInvestment = `
		INSERT INTO investments (
			id, user_id, amount, level, level_name, profit_rate, status,
			next_profit_date, last_profit_date, total_profit_earned
		) VALUES (?, ?, ?, ?, ?, ?, 'active', ?, '', '0')`

	queryGetInvestment = `
		SELECT id, user_id, amount, level, level_name, profit_rate, status,
		       next_profit_date, last_profit_date, total_profit_earned, created_at, closed_at
		FROM investments
		WHERE id = ?`

	queryGetActiveInvestment = `
		SELECT id, user_id, amount, level, level_name, profit_rate, status,
		       next_profit_date, last_profit_date, total_profit_earned, created_at, closed_at
		FROM investments
		WHERE user_id = ? AND status = 'active'
		LIMIT 1`

	queryListDueInvestments = `
		SELECT id, user_id, amount, level, level_name, profit_rate, status,
		       next_profit_date, last_profit_date, total_profit_earned, created_at, closed_at
		FROM investments
		WHERE status = 'active' AND next_profit_date <= ?
		ORDER BY created_at`

	queryCancelInvestment = `
		UPDATE investments
		SET status = 'cancelled', closed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'active'`

	queryCreditInvestmentProfit = `
		UPDATE investments
		SET next_profit_date = ?, last_profit_date = ?, total_profit_earned = ?
		WHERE id = ? AND status = 'active'`

	// Investment level queries
	queryUpsertInvestmentLevel = `
		INSERT INTO investment_levels (level, name, min_amount, max_amount, daily_rate)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(level) DO UPDATE SET
			name = excluded.name, min_amount = excluded.min_amount,
			max_amount = excluded.max_amount, daily_rate = excluded.daily_rate`

	queryListInvestmentLevels = `
		SELECT level, name, min_amount, max_amount, daily_rate
		FROM investment_levels
		ORDER BY level`

	// Profit run queries
	queryInsertProfitRun = `
		INSERT INTO profit_runs (id, run_type, run_date, idempotency_key, status)
		VALUES (?, ?, ?, ?, 'running')`

	queryFindCompletedProfitRun = `
		SELECT id, run_type, run_date, idempotency_key, status,
		       total_investments_processed, total_profit_distributed, total_users_credited,
		       errors_count, error_details, started_at, finished_at
		FROM profit_runs
		WHERE run_type = ? AND run_date = ? AND status = 'completed'
		LIMIT 1`

	queryFinalizeProfitRun = `
		UPDATE profit_runs
		SET status = ?, total_investments_processed = ?, total_profit_distributed = ?,
		    total_users_credited = ?, errors_count = ?, error_details = ?,
		    finished_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	queryGetProfitRun = `
		SELECT id, run_type, run_date, idempotency_key, status,
		       total_investments_processed, total_profit_distributed, total_users_credited,
		       errors_count, error_details, started_at, finished_at
		FROM profit_runs
		WHERE id = ?`

	// KYC queries
	queryLatestKycStatus = `
		SELECT status
		FROM kyc_submissions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	queryInsertKycSubmission = `
		INSERT INTO kyc_submissions (id, user_id, status) VALUES (?, ?, ?)`

	// Settings queries
	queryGetSetting = `
		SELECT value FROM settings WHERE key = ?`

	querySetSetting = `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
)
