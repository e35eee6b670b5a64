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

// balanceChange describes one money movement against a single account.
// The ledger entry amount is the total-balance delta (available + invested),
// so pure reallocations between the two dimensions produce zero-amount
// entries that exist purely for audit continuity.
type balanceChange struct {
	userId          string
	availableDelta  decimal.Decimal
	investedDelta   decimal.Decimal
	transactionType string
	chain           string
	referenceType   string
	referenceId     string
	description     string
}

// applyBalanceChange is the only path that mutates account balances. It must
// run inside the caller's transaction so the balance update, the ledger entry
// and any related row change (deposit status, withdrawal status, ...) commit
// or roll back together.
func (s *Service) applyBalanceChange(ctx context.Context, tx *sql.Tx, change balanceChange) (*models.LedgerEntry, error) {
	var (
		balanceStr   string
		availableStr string
		investedStr  string
		version      int64
	)

	row := tx.QueryRowContext(ctx, `
		SELECT balance, available_balance, invested_balance, version
		FROM accounts WHERE user_id = ?`, change.userId)
	err := row.Scan(&balanceStr, &availableStr, &investedStr, &version)
	if err == sql.ErrNoRows {
		if _, err := tx.ExecContext(ctx, queryInsertAccount, change.userId); err != nil {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		balanceStr, availableStr, investedStr, version = "0", "0", "0", 1
	} else if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance %q: %w", balanceStr, err)
	}
	available, err := decimal.NewFromString(availableStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse available balance %q: %w", availableStr, err)
	}
	invested, err := decimal.NewFromString(investedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse invested balance %q: %w", investedStr, err)
	}

	if !balance.Equal(available.Add(invested)) {
		zap.L().Error("Account balance does not equal available + invested",
			zap.String("user_id", change.userId),
			zap.String("balance", balance.String()),
			zap.String("available", available.String()),
			zap.String("invested", invested.String()))
		return nil, fmt.Errorf("%w: account %s", store.ErrIntegrityViolation, change.userId)
	}

	newAvailable := available.Add(change.availableDelta)
	newInvested := invested.Add(change.investedDelta)
	if newAvailable.IsNegative() || newInvested.IsNegative() {
		return nil, fmt.Errorf("%w: available %s, invested %s after change",
			store.ErrInsufficientFunds, newAvailable.String(), newInvested.String())
	}
	newBalance := newAvailable.Add(newInvested)
	amount := change.availableDelta.Add(change.investedDelta)

	entry := &models.LedgerEntry{
		Id:              uuid.New().String(),
		UserId:          change.userId,
		TransactionType: change.transactionType,
		Amount:          amount,
		BalanceBefore:   balance,
		BalanceAfter:    newBalance,
		Chain:           change.chain,
		ReferenceType:   change.referenceType,
		ReferenceId:     change.referenceId,
		Description:     change.description,
	}

	_, err = tx.ExecContext(ctx, queryInsertLedgerEntry,
		entry.Id, entry.UserId, entry.TransactionType,
		entry.Amount.String(), entry.BalanceBefore.String(), entry.BalanceAfter.String(),
		entry.Chain, entry.ReferenceType, entry.ReferenceId, entry.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	result, err := tx.ExecContext(ctx, queryUpdateAccount,
		newBalance.String(), newAvailable.String(), newInvested.String(),
		change.userId, version)
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("account update failed - %w", store.ErrConcurrentModification)
	}

	zap.L().Info("Balance change applied",
		zap.String("user_id", change.userId),
		zap.String("type", change.transactionType),
		zap.String("amount", amount.String()),
		zap.String("balance_before", balance.String()),
		zap.String("balance_after", newBalance.String()))

	return entry, nil
}

// GetAccount returns the account for a user, creating a zero-balance view if
// none exists yet (users get a real row on their first money movement).
func (s *Service) GetAccount(ctx context.Context, userId string) (*models.Account, error) {
	var account models.Account
	var balanceStr, availableStr, investedStr string

	row := s.db.QueryRowContext(ctx, queryGetAccount, userId)
	err := row.Scan(&account.UserId, &balanceStr, &availableStr, &investedStr,
		&account.Version, &account.UpdatedAt)
	if err == sql.ErrNoRows {
		return &models.Account{
			UserId:           userId,
			Balance:          decimal.Zero,
			AvailableBalance: decimal.Zero,
			InvestedBalance:  decimal.Zero,
			Version:          0,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if account.Balance, err = decimal.NewFromString(balanceStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance %q: %w", balanceStr, err)
	}
	if account.AvailableBalance, err = decimal.NewFromString(availableStr); err != nil {
		return nil, fmt.Errorf("failed to parse available balance %q: %w", availableStr, err)
	}
	if account.InvestedBalance, err = decimal.NewFromString(investedStr); err != nil {
		return nil, fmt.Errorf("failed to parse invested balance %q: %w", investedStr, err)
	}

	return &account, nil
}

// ListLedgerEntries returns a user's ledger entries, newest first.
func (s *Service) ListLedgerEntries(ctx context.Context, userId string, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, queryListLedgerEntries, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var entries []models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		var amountStr, beforeStr, afterStr string
		err := rows.Scan(&entry.Id, &entry.UserId, &entry.TransactionType,
			&amountStr, &beforeStr, &afterStr,
			&entry.Chain, &entry.ReferenceType, &entry.ReferenceId,
			&entry.Description, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		if entry.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
		}
		if entry.BalanceBefore, err = decimal.NewFromString(beforeStr); err != nil {
			return nil, fmt.Errorf("failed to parse balance_before %q: %w", beforeStr, err)
		}
		if entry.BalanceAfter, err = decimal.NewFromString(afterStr); err != nil {
			return nil, fmt.Errorf("failed to parse balance_after %q: %w", afterStr, err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}

	return entries, nil
}
