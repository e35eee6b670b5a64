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
	"flag"

	"invest-settlement-go/internal/common"
	"invest-settlement-go/internal/config"
	"invest-settlement-go/internal/store"

	"go.uber.org/zap"
)

func main() {
	levelsFile := flag.String("levels", "", "Path to levels.yaml (default: LEVELS_FILE env)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx := context.Background()

	// NewService creates the schema on first open.
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	path := *levelsFile
	if path == "" {
		path = cfg.Reconciler.LevelsFile
	}

	seed, err := common.LoadSeedConfig(path)
	if err != nil {
		zap.L().Fatal("Failed to load seed config", zap.String("file", path), zap.Error(err))
	}

	levels, err := seed.InvestmentLevels()
	if err != nil {
		zap.L().Fatal("Invalid investment levels", zap.Error(err))
	}

	for _, level := range levels {
		if err := services.DbService.UpsertInvestmentLevel(ctx, level); err != nil {
			zap.L().Fatal("Failed to seed investment level",
				zap.Int("level", level.Level), zap.Error(err))
		}
		zap.L().Info("Seeded investment level",
			zap.Int("level", level.Level),
			zap.String("name", level.Name),
			zap.String("min_amount", level.MinAmount.String()),
			zap.String("max_amount", level.MaxAmount.String()),
			zap.String("daily_rate", level.DailyRate.String()))
	}

	if seed.Wallets.Bep20 != "" {
		if err := services.DbService.SetSetting(ctx, store.SettingBep20Wallet, seed.Wallets.Bep20); err != nil {
			zap.L().Fatal("Failed to store BEP20 wallet", zap.Error(err))
		}
		zap.L().Info("Configured BEP20 platform wallet", zap.String("address", seed.Wallets.Bep20))
	}
	if seed.Wallets.Trc20 != "" {
		if err := services.DbService.SetSetting(ctx, store.SettingTrc20Wallet, seed.Wallets.Trc20); err != nil {
			zap.L().Fatal("Failed to store TRC20 wallet", zap.Error(err))
		}
		zap.L().Info("Configured TRC20 platform wallet", zap.String("address", seed.Wallets.Trc20))
	}

	zap.L().Info("Setup complete",
		zap.String("database", cfg.Database.Path),
		zap.Int("levels_seeded", len(levels)))
}
