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

func scanProfitRun(row rowScanner) (*models.ProfitRun, error) {
	var run models.ProfitRun
	var distributedStr string
	var finishedAt sql.NullTime

	err := row.Scan(&run.Id, &run.RunType, &run.RunDate, &run.IdempotencyKey,
		&run.Status, &run.TotalInvestmentsProcessed, &distributedStr,
		&run.TotalUsersCredited, &run.ErrorsCount, &run.ErrorDetails,
		&run.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	if run.TotalProfitDistributed, err = decimal.NewFromString(distributedStr); err != nil {
		return nil, fmt.Errorf("failed to parse distributed total %q: %w", distributedStr, err)
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func (s *Service) FindCompletedProfitRun(ctx context.Context, runType, runDate string) (*models.ProfitRun, error) {
	run, err := scanProfitRun(s.db.QueryRowContext(ctx, queryFindCompletedProfitRun, runType, runDate))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no completed %s run for %s", store.ErrNotFound, runType, runDate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profit run: %w", err)
	}
	return run, nil
}

// CreateProfitRun inserts the run row. The UNIQUE(run_type, run_date)
// constraint is the distributed lock: a second scheduler racing for the same
// date loses the insert and gets ErrAlreadyRun instead of double-crediting.
func (s *Service) CreateProfitRun(ctx context.Context, runType, runDate string) (*models.ProfitRun, error) {
	id := uuid.New().String()
	idempotencyKey := fmt.Sprintf("%s-%s", runType, runDate)

	_, err := s.db.ExecContext(ctx, queryInsertProfitRun, id, runType, runDate, idempotencyKey)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: %s run for %s", store.ErrAlreadyRun, runType, runDate)
		}
		return nil, fmt.Errorf("failed to insert profit run: %w", err)
	}

	zap.L().Info("Profit run created",
		zap.String("run_id", id),
		zap.String("run_type", runType),
		zap.String("run_date", runDate))

	run, err := scanProfitRun(s.db.QueryRowContext(ctx, queryGetProfitRun, id))
	if err != nil {
		return nil, fmt.Errorf("failed to read back profit run: %w", err)
	}
	return run, nil
}

func (s *Service) FinalizeProfitRun(ctx context.Context, params store.FinalizeProfitRunParams) (*models.ProfitRun, error) {
	_, err := s.db.ExecContext(ctx, queryFinalizeProfitRun,
		params.Status, params.TotalInvestmentsProcessed, params.TotalProfitDistributed.String(),
		params.TotalUsersCredited, params.ErrorsCount, params.ErrorDetails, params.RunId)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize profit run: %w", err)
	}

	run, err := scanProfitRun(s.db.QueryRowContext(ctx, queryGetProfitRun, params.RunId))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: profit run %s", store.ErrNotFound, params.RunId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read back profit run: %w", err)
	}
	return run, nil
}
