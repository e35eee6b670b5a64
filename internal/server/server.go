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

package server

import (
	"context"
	"errors"
	"net/http"

	"invest-settlement-go/internal/ledger"
	"invest-settlement-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server exposes the settlement API over HTTP. Identity arrives from the
// upstream auth gateway as X-User-Id and X-User-Role headers.
type Server struct {
	httpServer *http.Server
	ledger     *ledger.Service
}

func New(cfg models.ServerConfig, svc *ledger.Service) *Server {
	s := &Server{ledger: svc}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1", identity())

	user := api.Group("", requireUser())
	{
		user.GET("/account", s.getAccount)
		user.GET("/ledger", s.listLedger)

		user.POST("/deposits", s.submitDeposit)
		user.GET("/deposits", s.listOwnDeposits)
		user.GET("/deposits/address/:chain", s.depositAddress)

		user.POST("/withdrawals", s.requestWithdrawal)
		user.GET("/withdrawals", s.listOwnWithdrawals)
		user.DELETE("/withdrawals/:id", s.cancelWithdrawal)

		user.GET("/investments/levels", s.listInvestmentLevels)
		user.POST("/investments", s.createInvestment)
		user.GET("/investments/current", s.currentInvestment)
		user.DELETE("/investments/:id", s.cancelInvestment)
	}

	admin := api.Group("/admin", requireAdmin())
	{
		admin.GET("/deposits", s.adminListDeposits)
		admin.GET("/deposits/stats", s.depositStats)
		admin.GET("/deposits/:id", s.adminGetDeposit)
		admin.POST("/deposits/:id/confirm", s.confirmDeposit)
		admin.POST("/deposits/:id/reject", s.rejectDeposit)

		admin.GET("/withdrawals", s.adminListWithdrawals)
		admin.GET("/withdrawals/stats", s.withdrawalStats)
		admin.GET("/withdrawals/:id", s.adminGetWithdrawal)
		admin.POST("/withdrawals/:id/approve", s.approveWithdrawal)
		admin.POST("/withdrawals/:id/reject", s.rejectWithdrawal)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	zap.L().Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
