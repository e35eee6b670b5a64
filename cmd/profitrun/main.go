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

package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"invest-settlement-go/internal/common"
	"invest-settlement-go/internal/config"
	"invest-settlement-go/internal/profit"
	"invest-settlement-go/internal/store"

	"go.uber.org/zap"
)

func main() {
	runDate := flag.String("date", "", "Run date as YYYY-MM-DD (default: today UTC)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx := context.Background()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	date := *runDate
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	engine := profit.New(services.DbService, cfg.Profit)

	run, err := engine.Run(ctx, date)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyRun) {
			zap.L().Info("Profit already distributed for date", zap.String("run_date", date))
			return
		}
		zap.L().Fatal("Profit run failed", zap.String("run_date", date), zap.Error(err))
	}

	zap.L().Info("Profit run complete",
		zap.String("run_id", run.Id),
		zap.String("run_date", run.RunDate),
		zap.String("status", run.Status),
		zap.Int("investments_processed", run.TotalInvestmentsProcessed),
		zap.String("total_distributed", run.TotalProfitDistributed.String()),
		zap.Int("users_credited", run.TotalUsersCredited),
		zap.Int("errors", run.ErrorsCount))
}
