package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Reconciler ReconcilerConfig
	Profit     ProfitConfig
	Withdrawal WithdrawalConfig
	Explorer   ExplorerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ReconcilerConfig holds blockchain reconciler settings
type ReconcilerConfig struct {
	ScanInterval    time.Duration
	AmountTolerance decimal.Decimal
	LevelsFile      string
}

// ProfitConfig holds profit distribution settings
type ProfitConfig struct {
	CheckInterval time.Duration
	RunHourUTC    int
}

// WithdrawalConfig holds withdrawal limit settings
type WithdrawalConfig struct {
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
}

// ExplorerConfig holds chain explorer API settings
type ExplorerConfig struct {
	BscScanBaseURL  string
	BscScanAPIKey   string
	TronGridBaseURL string
	TronGridAPIKey  string
	UsdtBep20Token  string
	UsdtTrc20Token  string
	RequestTimeout  time.Duration
}
