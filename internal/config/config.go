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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"invest-settlement-go/internal/models"

	"github.com/shopspring/decimal"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	scanInterval, err := getEnvDuration("RECONCILER_SCAN_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	profitCheckInterval, err := getEnvDuration("PROFIT_CHECK_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	readTimeout, err := getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	writeTimeout, err := getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	explorerTimeout, err := getEnvDuration("EXPLORER_REQUEST_TIMEOUT", 20*time.Second)
	if err != nil {
		return nil, err
	}

	tolerance, err := getEnvDecimal("RECONCILER_AMOUNT_TOLERANCE", "0.01")
	if err != nil {
		return nil, err
	}

	withdrawalMin, err := getEnvDecimal("WITHDRAWAL_MIN_AMOUNT", "10")
	if err != nil {
		return nil, err
	}

	withdrawalMax, err := getEnvDecimal("WITHDRAWAL_MAX_AMOUNT", "50000")
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "settlement.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Server: models.ServerConfig{
			ListenAddr:      getEnvString("SERVER_LISTEN_ADDR", ":8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Reconciler: models.ReconcilerConfig{
			ScanInterval:    scanInterval,
			AmountTolerance: tolerance,
			LevelsFile:      getEnvString("LEVELS_FILE", "levels.yaml"),
		},
		Profit: models.ProfitConfig{
			CheckInterval: profitCheckInterval,
			RunHourUTC:    getEnvInt("PROFIT_RUN_HOUR_UTC", 0),
		},
		Withdrawal: models.WithdrawalConfig{
			MinAmount: withdrawalMin,
			MaxAmount: withdrawalMax,
		},
		Explorer: models.ExplorerConfig{
			BscScanBaseURL:  getEnvString("BSCSCAN_BASE_URL", "https://api.bscscan.com/api"),
			BscScanAPIKey:   getEnvString("BSCSCAN_API_KEY", ""),
			TronGridBaseURL: getEnvString("TRONGRID_BASE_URL", "https://api.trongrid.io"),
			TronGridAPIKey:  getEnvString("TRONGRID_API_KEY", ""),
			UsdtBep20Token:  getEnvString("USDT_BEP20_CONTRACT", "0x55d398326f99059fF775485246999027B3197955"),
			UsdtTrc20Token:  getEnvString("USDT_TRC20_CONTRACT", "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"),
			RequestTimeout:  explorerTimeout,
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDecimal(key, defaultValue string) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
	}
	return d, nil
}
