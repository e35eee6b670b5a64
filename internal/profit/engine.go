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

package profit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"invest-settlement-go/internal/models"
	"invest-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	RunTypeDaily = "daily"
	dateLayout   = "2006-01-02"
)

var hundred = decimal.NewFromInt(100)

// Engine distributes daily profit to active investments. Each calendar day
// gets exactly one run; the run row's uniqueness makes re-execution safe.
type Engine struct {
	store store.SettlementStore
	cfg   models.ProfitConfig

	stopChan chan struct{}
	doneChan chan struct{}

	// now is swapped out in tests.
	now func() time.Time
}

func New(st store.SettlementStore, cfg models.ProfitConfig) *Engine {
	return &Engine{
		store:    st,
		cfg:      cfg,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
		now:      time.Now,
	}
}

// Run executes the daily distribution for runDate (YYYY-MM-DD). Returns
// store.ErrAlreadyRun when a run for that date already exists. Individual
// investment failures do not abort the batch; the run finishes as "partial"
// and the failed investments keep their old next_profit_date, so the next
// day's run picks them up without losing a day of profit.
func (e *Engine) Run(ctx context.Context, runDate string) (*models.ProfitRun, error) {
	date, err := time.Parse(dateLayout, runDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid run date %q", store.ErrValidation, runDate)
	}
	nextProfitDate := date.AddDate(0, 0, 1).Format(dateLayout)

	run, err := e.store.CreateProfitRun(ctx, RunTypeDaily, runDate)
	if err != nil {
		return nil, err
	}

	due, err := e.store.ListDueInvestments(ctx, runDate)
	if err != nil {
		// The run row stays in "running"; finalize it as failed-empty so the
		// date is not silently blocked without explanation.
		return e.finalize(ctx, run.Id, models.ProfitRunPartial, 0, decimal.Zero, 0, 1, err.Error())
	}

	zap.L().Info("Profit run started",
		zap.String("run_id", run.Id),
		zap.String("run_date", runDate),
		zap.Int("due_investments", len(due)))

	var (
		processed   int
		distributed = decimal.Zero
		users       = make(map[string]struct{})
		errorsCount int
		errorLines  []string
	)

	for i := range due {
		investment := &due[i]

		// Daily profit is always computed from the original principal.
		amount := investment.Amount.Mul(investment.ProfitRate).Div(hundred)

		err := e.store.CreditInvestmentProfit(ctx, store.CreditProfitParams{
			InvestmentId:   investment.Id,
			Amount:         amount,
			RunDate:        runDate,
			NextProfitDate: nextProfitDate,
		})
		if err != nil {
			errorsCount++
			errorLines = append(errorLines, fmt.Sprintf("%s: %v", investment.Id, err))
			zap.L().Error("Failed to credit profit",
				zap.String("investment_id", investment.Id),
				zap.String("user_id", investment.UserId),
				zap.Error(err))
			continue
		}

		processed++
		distributed = distributed.Add(amount)
		users[investment.UserId] = struct{}{}
	}

	status := models.ProfitRunCompleted
	if errorsCount > 0 {
		status = models.ProfitRunPartial
	}

	finished, err := e.finalize(ctx, run.Id, status, processed, distributed, len(users), errorsCount, strings.Join(errorLines, "\n"))
	if err != nil {
		return nil, err
	}

	zap.L().Info("Profit run finished",
		zap.String("run_id", finished.Id),
		zap.String("status", finished.Status),
		zap.Int("investments_processed", finished.TotalInvestmentsProcessed),
		zap.String("total_distributed", finished.TotalProfitDistributed.String()),
		zap.Int("users_credited", finished.TotalUsersCredited),
		zap.Int("errors", finished.ErrorsCount))

	return finished, nil
}

func (e *Engine) finalize(ctx context.Context, runId, status string, processed int, distributed decimal.Decimal, users, errorsCount int, errorDetails string) (*models.ProfitRun, error) {
	return e.store.FinalizeProfitRun(ctx, store.FinalizeProfitRunParams{
		RunId:                     runId,
		Status:                    status,
		TotalInvestmentsProcessed: processed,
		TotalProfitDistributed:    distributed,
		TotalUsersCredited:        users,
		ErrorsCount:               errorsCount,
		ErrorDetails:              errorDetails,
	})
}

// Start launches the scheduler loop. Every tick it checks whether today's run
// is due (past the configured UTC hour) and attempts it; losing the race to
// another scheduler instance is not an error.
func (e *Engine) Start(ctx context.Context) {
	go func() {
		defer close(e.doneChan)

		ticker := time.NewTicker(e.cfg.CheckInterval)
		defer ticker.Stop()

		e.runIfDue(ctx)

		for {
			select {
			case <-e.stopChan:
				zap.L().Info("Profit scheduler stopped")
				return
			case <-ctx.Done():
				zap.L().Info("Profit scheduler context cancelled")
				return
			case <-ticker.C:
				e.runIfDue(ctx)
			}
		}
	}()

	zap.L().Info("Profit scheduler started",
		zap.Duration("check_interval", e.cfg.CheckInterval),
		zap.Int("run_hour_utc", e.cfg.RunHourUTC))
}

// Stop signals the loop to exit and waits for an in-flight run to finish.
func (e *Engine) Stop() {
	close(e.stopChan)
	<-e.doneChan
}

func (e *Engine) runIfDue(ctx context.Context) {
	now := e.now().UTC()
	if now.Hour() < e.cfg.RunHourUTC {
		return
	}
	runDate := now.Format(dateLayout)

	if _, err := e.Run(ctx, runDate); err != nil {
		if errors.Is(err, store.ErrAlreadyRun) {
			return
		}
		zap.L().Error("Scheduled profit run failed",
			zap.String("run_date", runDate),
			zap.Error(err))
	}
}
