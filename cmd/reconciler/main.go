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
	"os"
	"os/signal"
	"syscall"

	"invest-settlement-go/internal/common"
	"invest-settlement-go/internal/config"
	"invest-settlement-go/internal/explorer"
	"invest-settlement-go/internal/reconciler"

	"go.uber.org/zap"
)

func main() {
	once := flag.Bool("once", false, "Run a single scan and exit instead of looping")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting deposit reconciler")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	rec := reconciler.New(services.DbService, services.DbService, cfg.Reconciler,
		explorer.NewBscScanClient(cfg.Explorer),
		explorer.NewTronGridClient(cfg.Explorer))

	if *once {
		rec.ScanOnce(ctx)
		zap.L().Info("Single scan finished")
		return
	}

	rec.Start(ctx)
	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping reconciler...")
	rec.Stop()
	zap.L().Info("Reconciler stopped gracefully")
}
