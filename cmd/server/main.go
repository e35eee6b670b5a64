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
	"invest-settlement-go/internal/ledger"
	"invest-settlement-go/internal/profit"
	"invest-settlement-go/internal/reconciler"
	"invest-settlement-go/internal/server"

	"go.uber.org/zap"
)

func main() {
	withReconciler := flag.Bool("reconciler", true, "Run the in-process blockchain reconciler")
	withScheduler := flag.Bool("profit-scheduler", true, "Run the in-process daily profit scheduler")
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

	zap.L().Info("Starting settlement API server")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	ledgerService := ledger.NewService(services.DbService, services.DbService, cfg.Withdrawal)
	srv := server.New(cfg.Server, ledgerService)

	var rec *reconciler.Reconciler
	if *withReconciler {
		rec = reconciler.New(services.DbService, services.DbService, cfg.Reconciler,
			explorer.NewBscScanClient(cfg.Explorer),
			explorer.NewTronGridClient(cfg.Explorer))
		rec.Start(ctx)
	}

	var engine *profit.Engine
	if *withScheduler {
		engine = profit.New(services.DbService, cfg.Profit)
		engine.Start(ctx)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		zap.L().Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			zap.L().Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("HTTP server shutdown failed", zap.Error(err))
	}
	if rec != nil {
		rec.Stop()
	}
	if engine != nil {
		engine.Stop()
	}

	zap.L().Info("Shutdown complete")
}
