package database

import (
	"context"
	"database/sql"
	"fmt"

	"invest-settlement-go/internal/models"
	"invest-settlement-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanWithdrawal(row rowScanner) (*models.Withdrawal, error) {
	var w models.Withdrawal
	var amountStr string
	var processedAt sql.NullTime

	err := row.Scan(&w.Id, &w.UserId, &amountStr, &w.Chain, &w.WalletAddress,
		&w.Status, &w.TxHash, &w.RejectionReason, &w.AdminNotes,
		&w.RequestedAt, &processedAt)
	if err != nil {
		return nil, err
	}

	if w.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse withdrawal amount %q: %w", amountStr, err)
	}
	if processedAt.Valid {
		t := processedAt.Time
		w.ProcessedAt = &t
	}
	return &w, nil
}

// RequestWithdrawal holds the funds immediately: the amount leaves both the
// available and total balance in the same transaction that creates the
// pending withdrawal row and its negative ledger entry.
func (s *Service) RequestWithdrawal(ctx context.Context, params store.RequestWithdrawalParams) (*models.Withdrawal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()

	_, err = s.applyBalanceChange(ctx, tx, balanceChange{
		userId:          params.UserId,
		availableDelta:  params.Amount.Neg(),
		investedDelta:   decimal.Zero,
		transactionType: models.EntryWithdrawal,
		chain:           params.Chain,
		referenceType:   "withdrawal",
		referenceId:     id,
		description:     fmt.Sprintf("Withdrawal requested to %s (%s)", params.WalletAddress, params.Chain),
	})
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, queryInsertWithdrawal,
		id, params.UserId, params.Amount.String(), params.Chain, params.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to insert withdrawal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Withdrawal requested, funds held",
		zap.String("withdrawal_id", id),
		zap.String("user_id", params.UserId),
		zap.String("chain", params.Chain),
		zap.String("amount", params.Amount.String()))

	return s.GetWithdrawal(ctx, id)
}

func (s *Service) GetWithdrawal(ctx context.Context, id string) (*models.Withdrawal, error) {
	withdrawal, err := scanWithdrawal(s.db.QueryRowContext(ctx, queryGetWithdrawal, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: withdrawal %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return withdrawal, nil
}

// ApproveWithdrawal completes a pending withdrawal after broadcast. The funds
// were already deducted at request time, so no balance change happens here.
func (s *Service) ApproveWithdrawal(ctx context.Context, id, txHash, notes string) (*models.Withdrawal, error) {
	result, err := s.db.ExecContext(ctx, queryApproveWithdrawal, txHash, notes, id)
	if err != nil {
		return nil, fmt.Errorf("failed to approve withdrawal: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		withdrawal, err := s.GetWithdrawal(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: withdrawal %s is %s, expected pending",
			store.ErrInvalidStateTransition, id, withdrawal.Status)
	}

	zap.L().Info("Withdrawal approved",
		zap.String("withdrawal_id", id),
		zap.String("tx_hash", txHash))

	return s.GetWithdrawal(ctx, id)
}

// RefundWithdrawal resolves a pending withdrawal without broadcasting:
// finalStatus is "rejected" (admin) or "cancelled" (user). The held amount
// returns to the available balance with a refund ledger entry, atomically
// with the status change.
func (s *Service) RefundWithdrawal(ctx context.Context, id, finalStatus, reason string) (*models.Withdrawal, error) {
	if finalStatus != models.WithdrawalRejected && finalStatus != models.WithdrawalCancelled {
		return nil, fmt.Errorf("%w: refund cannot end in status %q", store.ErrValidation, finalStatus)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	withdrawal, err := scanWithdrawal(tx.QueryRowContext(ctx, queryGetWithdrawal, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: withdrawal %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load withdrawal: %w", err)
	}
	if withdrawal.Status != models.WithdrawalPending {
		return nil, fmt.Errorf("%w: withdrawal %s is %s, expected pending",
			store.ErrInvalidStateTransition, id, withdrawal.Status)
	}

	_, err = s.applyBalanceChange(ctx, tx, balanceChange{
		userId:          withdrawal.UserId,
		availableDelta:  withdrawal.Amount,
		investedDelta:   decimal.Zero,
		transactionType: models.EntryRefund,
		chain:           withdrawal.Chain,
		referenceType:   "withdrawal",
		referenceId:     withdrawal.Id,
		description:     fmt.Sprintf("Withdrawal %s: %s", finalStatus, reason),
	})
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, queryRefundWithdrawal, finalStatus, reason, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update withdrawal: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: withdrawal %s no longer pending", store.ErrInvalidStateTransition, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Withdrawal refunded",
		zap.String("withdrawal_id", id),
		zap.String("user_id", withdrawal.UserId),
		zap.String("final_status", finalStatus),
		zap.String("amount", withdrawal.Amount.String()))

	return s.GetWithdrawal(ctx, id)
}

func (s *Service) ListWithdrawals(ctx context.Context, filter store.ListFilter) ([]models.Withdrawal, error) {
	query := `
		SELECT id, user_id, amount, chain, wallet_address, status, tx_hash,
		       rejection_reason, admin_notes, requested_at, processed_at
		FROM withdrawals`
	where, args := buildListFilter(filter)
	query += where + `
		ORDER BY requested_at DESC
		LIMIT ? OFFSET ?`
	args = append(args, listLimit(filter.Limit), filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var withdrawals []models.Withdrawal
	for rows.Next() {
		withdrawal, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, *withdrawal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdrawal rows: %w", err)
	}
	return withdrawals, nil
}

func (s *Service) WithdrawalStats(ctx context.Context) (*models.WithdrawalStats, error) {
	var stats models.WithdrawalStats
	var completedTotal, pendingTotal float64

	err := s.db.QueryRowContext(ctx, queryWithdrawalStats).Scan(
		&stats.TotalCount, &stats.PendingCount, &stats.CompletedCount,
		&stats.RejectedCount, &stats.CancelledCount, &completedTotal, &pendingTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal stats: %w", err)
	}
	stats.CompletedTotal = decimal.NewFromFloat(completedTotal)
	stats.PendingTotal = decimal.NewFromFloat(pendingTotal)
	return &stats, nil
}
