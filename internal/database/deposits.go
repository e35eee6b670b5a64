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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDeposit(row rowScanner) (*models.Deposit, error) {
	var d models.Deposit
	var amountStr string
	var verifiedAt sql.NullTime

	err := row.Scan(&d.Id, &d.UserId, &amountStr, &d.Chain, &d.TxHash,
		&d.FromAddress, &d.ToAddress, &d.Status, &d.AdminNotes,
		&d.VerifiedBy, &verifiedAt, &d.CreatedAt)
	if err != nil {
		return nil, err
	}

	if d.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse deposit amount %q: %w", amountStr, err)
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		d.VerifiedAt = &t
	}
	return &d, nil
}

// SubmitDeposit records a pending deposit claim. No balance change happens
// here; claims are untrusted until confirmed.
func (s *Service) SubmitDeposit(ctx context.Context, params store.SubmitDepositParams) (*models.Deposit, error) {
	var existingId string
	err := s.db.QueryRowContext(ctx, queryFindDepositByChainTxHash, params.Chain, params.TxHash).Scan(&existingId)
	if err == nil {
		return nil, fmt.Errorf("%w: tx %s already submitted on %s", store.ErrDuplicateTxHash, params.TxHash, params.Chain)
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check for duplicate deposit: %w", err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, queryInsertDeposit,
		id, params.UserId, params.Amount.String(), params.Chain, params.TxHash, params.WalletAddress)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: tx %s already submitted on %s", store.ErrDuplicateTxHash, params.TxHash, params.Chain)
		}
		return nil, fmt.Errorf("failed to insert deposit: %w", err)
	}

	zap.L().Info("Deposit claim submitted",
		zap.String("deposit_id", id),
		zap.String("user_id", params.UserId),
		zap.String("chain", params.Chain),
		zap.String("tx_hash", params.TxHash),
		zap.String("amount", params.Amount.String()))

	return s.GetDeposit(ctx, id)
}

func (s *Service) GetDeposit(ctx context.Context, id string) (*models.Deposit, error) {
	deposit, err := scanDeposit(s.db.QueryRowContext(ctx, queryGetDeposit, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: deposit %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	return deposit, nil
}

// FindPendingDepositByTxHash looks up the pending claim matching an observed
// on-chain transfer. Non-pending matches are intentionally excluded so
// reprocessing the same transfer is a no-op.
func (s *Service) FindPendingDepositByTxHash(ctx context.Context, txHash string) (*models.Deposit, error) {
	deposit, err := scanDeposit(s.db.QueryRowContext(ctx, queryFindPendingDepositByTxHash, txHash))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no pending deposit for tx %s", store.ErrNotFound, txHash)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find deposit by tx hash: %w", err)
	}
	return deposit, nil
}

// ConfirmDeposit credits the user's available balance and marks the deposit
// confirmed, atomically. Only pending deposits can be confirmed; anything
// else fails with the current status so callers can report it.
func (s *Service) ConfirmDeposit(ctx context.Context, params store.ConfirmDepositParams) (*models.Deposit, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deposit, err := scanDeposit(tx.QueryRowContext(ctx, queryGetDeposit, params.DepositId))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: deposit %s", store.ErrNotFound, params.DepositId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load deposit: %w", err)
	}
	if deposit.Status != models.DepositPending {
		return nil, fmt.Errorf("%w: deposit %s is %s, expected pending",
			store.ErrInvalidStateTransition, deposit.Id, deposit.Status)
	}

	_, err = s.applyBalanceChange(ctx, tx, balanceChange{
		userId:          deposit.UserId,
		availableDelta:  deposit.Amount,
		investedDelta:   decimal.Zero,
		transactionType: models.EntryDeposit,
		chain:           deposit.Chain,
		referenceType:   "deposit",
		referenceId:     deposit.Id,
		description:     fmt.Sprintf("Deposit %s confirmed (%s)", deposit.TxHash, deposit.Chain),
	})
	if err != nil {
		return nil, err
	}

	notes := deposit.AdminNotes
	if params.Notes != "" {
		if notes != "" {
			notes += "\n"
		}
		notes += params.Notes
	}
	toAddress := deposit.ToAddress
	if params.ToAddress != "" {
		toAddress = params.ToAddress
	}

	result, err := tx.ExecContext(ctx, queryConfirmDeposit,
		params.VerifiedBy, notes, deposit.FromAddress, toAddress, deposit.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm deposit: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: deposit %s no longer pending", store.ErrInvalidStateTransition, deposit.Id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Deposit confirmed",
		zap.String("deposit_id", deposit.Id),
		zap.String("user_id", deposit.UserId),
		zap.String("chain", deposit.Chain),
		zap.String("amount", deposit.Amount.String()),
		zap.String("verified_by", params.VerifiedBy))

	return s.GetDeposit(ctx, deposit.Id)
}

// RejectDeposit marks a pending claim failed. No balance change: nothing was
// ever credited for it.
func (s *Service) RejectDeposit(ctx context.Context, id, adminId, reason string) (*models.Deposit, error) {
	result, err := s.db.ExecContext(ctx, queryRejectDeposit, adminId, reason, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reject deposit: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		deposit, err := s.GetDeposit(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: deposit %s is %s, expected pending",
			store.ErrInvalidStateTransition, id, deposit.Status)
	}

	zap.L().Info("Deposit rejected",
		zap.String("deposit_id", id),
		zap.String("admin_id", adminId),
		zap.String("reason", reason))

	return s.GetDeposit(ctx, id)
}

// AppendDepositNote adds a line to admin_notes; used by the reconciler to
// flag amount or chain mismatches for manual review.
func (s *Service) AppendDepositNote(ctx context.Context, id, note string) error {
	result, err := s.db.ExecContext(ctx, queryAppendDepositNote, note, note, id)
	if err != nil {
		return fmt.Errorf("failed to append deposit note: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: deposit %s", store.ErrNotFound, id)
	}
	return nil
}

func (s *Service) ListDeposits(ctx context.Context, filter store.ListFilter) ([]models.Deposit, error) {
	query := `
		SELECT id, user_id, amount, chain, tx_hash, from_address, to_address,
		       status, admin_notes, verified_by, verified_at, created_at
		FROM deposits`
	where, args := buildListFilter(filter)
	query += where + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`
	args = append(args, listLimit(filter.Limit), filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var deposits []models.Deposit
	for rows.Next() {
		deposit, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, *deposit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deposit rows: %w", err)
	}
	return deposits, nil
}

func (s *Service) DepositStats(ctx context.Context) (*models.DepositStats, error) {
	var stats models.DepositStats
	var confirmedTotal float64

	err := s.db.QueryRowContext(ctx, queryDepositStats).Scan(
		&stats.TotalCount, &stats.PendingCount, &stats.ConfirmedCount,
		&stats.FailedCount, &confirmedTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit stats: %w", err)
	}
	stats.ConfirmedTotal = decimal.NewFromFloat(confirmedTotal)
	return &stats, nil
}

// buildListFilter turns the optional filter fields into a WHERE clause.
func buildListFilter(filter store.ListFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if filter.UserId != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserId)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Chain != "" {
		clauses = append(clauses, "chain = ?")
		args = append(args, filter.Chain)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "\n\t\tWHERE " + strings.Join(clauses, " AND "), args
}

func listLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}
