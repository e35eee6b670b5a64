package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"invest-settlement-go/internal/models"
	"invest-settlement-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanInvestment(row rowScanner) (*models.Investment, error) {
	var inv models.Investment
	var amountStr, rateStr, earnedStr string
	var closedAt sql.NullTime

	err := row.Scan(&inv.Id, &inv.UserId, &amountStr, &inv.Level, &inv.LevelName,
		&rateStr, &inv.Status, &inv.NextProfitDate, &inv.LastProfitDate,
		&earnedStr, &inv.CreatedAt, &closedAt)
	if err != nil {
		return nil, err
	}

	if inv.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse investment amount %q: %w", amountStr, err)
	}
	if inv.ProfitRate, err = decimal.NewFromString(rateStr); err != nil {
		return nil, fmt.Errorf("failed to parse profit rate %q: %w", rateStr, err)
	}
	if inv.TotalProfitEarned, err = decimal.NewFromString(earnedStr); err != nil {
		return nil, fmt.Errorf("failed to parse total profit %q: %w", earnedStr, err)
	}
	if closedAt.Valid {
		t := closedAt.Time
		inv.ClosedAt = &t
	}
	return &inv, nil
}

// CreateInvestment moves the amount from available to invested and opens the
// active investment, all in one transaction. The total balance is unchanged,
// so the audit ledger entry carries a zero amount. The partial unique index
// on (user_id) WHERE status='active' backs the one-active-investment rule
// even under concurrent requests.
func (s *Service) CreateInvestment(ctx context.Context, params store.CreateInvestmentParams) (*models.Investment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()

	_, err = s.applyBalanceChange(ctx, tx, balanceChange{
		userId:          params.UserId,
		availableDelta:  params.Amount.Neg(),
		investedDelta:   params.Amount,
		transactionType: models.EntryInvestment,
		referenceType:   "investment",
		referenceId:     id,
		description: fmt.Sprintf("Investment created: %s at level %d (%s), %s%% daily",
			params.Amount.String(), params.Level, params.LevelName, params.ProfitRate.String()),
	})
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, queryInsertInvestment,
		id, params.UserId, params.Amount.String(), params.Level, params.LevelName,
		params.ProfitRate.String(), params.NextProfitDate)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: user %s", store.ErrDuplicateActiveInvestment, params.UserId)
		}
		return nil, fmt.Errorf("failed to insert investment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Investment created",
		zap.String("investment_id", id),
		zap.String("user_id", params.UserId),
		zap.String("amount", params.Amount.String()),
		zap.Int("level", params.Level),
		zap.String("next_profit_date", params.NextProfitDate))

	return s.GetInvestment(ctx, id)
}

// CancelInvestment returns the original principal from invested to available
// and closes the investment. Profit already distributed stays where it was
// credited; only the principal moves back.
func (s *Service) CancelInvestment(ctx context.Context, id string) (*models.Investment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inv, err := scanInvestment(tx.QueryRowContext(ctx, queryGetInvestment, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: investment %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load investment: %w", err)
	}
	if inv.Status != models.InvestmentActive {
		return nil, fmt.Errorf("%w: investment %s is %s, expected active",
			store.ErrInvalidStateTransition, id, inv.Status)
	}

	_, err = s.applyBalanceChange(ctx, tx, balanceChange{
		userId:          inv.UserId,
		availableDelta:  inv.Amount,
		investedDelta:   inv.Amount.Neg(),
		transactionType: models.EntryRefund,
		referenceType:   "investment",
		referenceId:     inv.Id,
		description:     fmt.Sprintf("Investment cancelled: %s returned to available balance", inv.Amount.String()),
	})
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, queryCancelInvestment, id)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel investment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: investment %s no longer active", store.ErrInvalidStateTransition, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Investment cancelled",
		zap.String("investment_id", id),
		zap.String("user_id", inv.UserId),
		zap.String("principal_returned", inv.Amount.String()),
		zap.String("total_profit_earned", inv.TotalProfitEarned.String()))

	return s.GetInvestment(ctx, id)
}

func (s *Service) GetInvestment(ctx context.Context, id string) (*models.Investment, error) {
	inv, err := scanInvestment(s.db.QueryRowContext(ctx, queryGetInvestment, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: investment %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	return inv, nil
}

func (s *Service) GetActiveInvestment(ctx context.Context, userId string) (*models.Investment, error) {
	inv, err := scanInvestment(s.db.QueryRowContext(ctx, queryGetActiveInvestment, userId))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no active investment for user %s", store.ErrNotFound, userId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active investment: %w", err)
	}
	return inv, nil
}

// ListDueInvestments returns every active investment whose next_profit_date
// is on or before the given date (YYYY-MM-DD).
func (s *Service) ListDueInvestments(ctx context.Context, date string) ([]models.Investment, error) {
	rows, err := s.db.QueryContext(ctx, queryListDueInvestments, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list due investments: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var investments []models.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		investments = append(investments, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investment rows: %w", err)
	}
	return investments, nil
}

// CreditInvestmentProfit credits one day of profit to the investment owner's
// available balance and advances the profit schedule, atomically. The profit
// amount is computed by the caller from the immutable original principal.
func (s *Service) CreditInvestmentProfit(ctx context.Context, params store.CreditProfitParams) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inv, err := scanInvestment(tx.QueryRowContext(ctx, queryGetInvestment, params.InvestmentId))
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: investment %s", store.ErrNotFound, params.InvestmentId)
	}
	if err != nil {
		return fmt.Errorf("failed to load investment: %w", err)
	}
	if inv.Status != models.InvestmentActive {
		return fmt.Errorf("%w: investment %s is %s, expected active",
			store.ErrInvalidStateTransition, params.InvestmentId, inv.Status)
	}
	if inv.NextProfitDate > params.RunDate {
		// Already credited for this date by a concurrent run.
		return fmt.Errorf("%w: investment %s already credited through %s",
			store.ErrInvalidStateTransition, params.InvestmentId, inv.NextProfitDate)
	}

	_, err = s.applyBalanceChange(ctx, tx, balanceChange{
		userId:          inv.UserId,
		availableDelta:  params.Amount,
		investedDelta:   decimal.Zero,
		transactionType: models.EntryProfit,
		referenceType:   "investment",
		referenceId:     inv.Id,
		description:     fmt.Sprintf("Daily profit for %s (%s%% of %s)", params.RunDate, inv.ProfitRate.String(), inv.Amount.String()),
	})
	if err != nil {
		return err
	}

	newTotal := inv.TotalProfitEarned.Add(params.Amount)
	result, err := tx.ExecContext(ctx, queryCreditInvestmentProfit,
		params.NextProfitDate, params.RunDate, newTotal.String(), inv.Id)
	if err != nil {
		return fmt.Errorf("failed to update investment profit: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: investment %s no longer active", store.ErrInvalidStateTransition, inv.Id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpsertInvestmentLevel seeds or updates one tier; used by cmd/setup.
func (s *Service) UpsertInvestmentLevel(ctx context.Context, level models.InvestmentLevel) error {
	_, err := s.db.ExecContext(ctx, queryUpsertInvestmentLevel,
		level.Level, level.Name, level.MinAmount.String(), level.MaxAmount.String(), level.DailyRate.String())
	if err != nil {
		return fmt.Errorf("failed to upsert investment level %d: %w", level.Level, err)
	}
	return nil
}

func (s *Service) ListInvestmentLevels(ctx context.Context) ([]models.InvestmentLevel, error) {
	rows, err := s.db.QueryContext(ctx, queryListInvestmentLevels)
	if err != nil {
		return nil, fmt.Errorf("failed to list investment levels: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var levels []models.InvestmentLevel
	for rows.Next() {
		var level models.InvestmentLevel
		var minStr, maxStr, rateStr string
		if err := rows.Scan(&level.Level, &level.Name, &minStr, &maxStr, &rateStr); err != nil {
			return nil, fmt.Errorf("failed to scan investment level: %w", err)
		}
		if level.MinAmount, err = decimal.NewFromString(minStr); err != nil {
			return nil, fmt.Errorf("failed to parse level min %q: %w", minStr, err)
		}
		if level.MaxAmount, err = decimal.NewFromString(maxStr); err != nil {
			return nil, fmt.Errorf("failed to parse level max %q: %w", maxStr, err)
		}
		if level.DailyRate, err = decimal.NewFromString(rateStr); err != nil {
			return nil, fmt.Errorf("failed to parse level rate %q: %w", rateStr, err)
		}
		levels = append(levels, level)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating level rows: %w", err)
	}
	return levels, nil
}

// LatestKycStatus returns the user's most recent KYC status, or "none" when
// the user has never submitted.
func (s *Service) LatestKycStatus(ctx context.Context, userId string) (string, error) {
	var status string
	err := s.db.QueryRowContext(ctx, queryLatestKycStatus, userId).Scan(&status)
	if err == sql.ErrNoRows {
		return models.KycNone, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get kyc status: %w", err)
	}
	return status, nil
}

// RecordKycSubmission inserts a KYC status row; used by tests and cmd/setup
// to mirror the collaborator's records.
func (s *Service) RecordKycSubmission(ctx context.Context, userId, status string) error {
	_, err := s.db.ExecContext(ctx, queryInsertKycSubmission, uuid.New().String(), userId, status)
	if err != nil {
		return fmt.Errorf("failed to record kyc submission: %w", err)
	}
	return nil
}
