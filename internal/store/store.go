package store

import (
	"context"
	"errors"

	"invest-settlement-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across the settlement core. Callers branch with
// errors.Is; wrapped messages carry the detail.
var (
	ErrValidation                = errors.New("validation failed")
	ErrInsufficientFunds         = errors.New("insufficient funds")
	ErrKycRequired               = errors.New("kyc approval required")
	ErrDuplicateActiveInvestment = errors.New("an active investment already exists")
	ErrInvalidStateTransition    = errors.New("invalid state transition")
	ErrNotFound                  = errors.New("not found")
	ErrAlreadyRun                = errors.New("profit run already completed for this date")
	ErrExternalService           = errors.New("external service failure")
	ErrIntegrityViolation        = errors.New("balance integrity violation")
	ErrDuplicateTxHash           = errors.New("duplicate transaction hash")
	ErrConcurrentModification    = errors.New("concurrent modification detected")
)

// SubmitDepositParams creates a pending deposit claim.
type SubmitDepositParams struct {
	UserId        string
	Amount        decimal.Decimal
	Chain         string
	TxHash        string
	WalletAddress string
}

// ConfirmDepositParams confirms a pending deposit and credits the user.
type ConfirmDepositParams struct {
	DepositId  string
	VerifiedBy string
	Notes      string
	// ToAddress is the observed receiving address when confirmation comes
	// from the reconciler; empty for manual admin confirmation.
	ToAddress string
}

// RequestWithdrawalParams creates a pending withdrawal with an immediate hold.
type RequestWithdrawalParams struct {
	UserId        string
	Amount        decimal.Decimal
	Chain         string
	WalletAddress string
}

// CreateInvestmentParams moves available funds into an active investment.
type CreateInvestmentParams struct {
	UserId         string
	Amount         decimal.Decimal
	Level          int
	LevelName      string
	ProfitRate     decimal.Decimal
	NextProfitDate string
}

// CreditProfitParams credits one day of profit to an investment's owner.
type CreditProfitParams struct {
	InvestmentId   string
	Amount         decimal.Decimal
	RunDate        string
	NextProfitDate string
}

// FinalizeProfitRunParams closes out a profit run row with its aggregates.
type FinalizeProfitRunParams struct {
	RunId                     string
	Status                    string
	TotalInvestmentsProcessed int
	TotalProfitDistributed    decimal.Decimal
	TotalUsersCredited        int
	ErrorsCount               int
	ErrorDetails              string
}

// ListFilter narrows list queries; zero values mean "no filter".
type ListFilter struct {
	UserId string
	Status string
	Chain  string
	Limit  int
	Offset int
}

// SettlementStore is the persistence contract for the settlement core. Every
// method that moves money runs as one atomic database transaction that also
// appends the corresponding ledger entry.
type SettlementStore interface {
	// Accounts and ledger.
	GetAccount(ctx context.Context, userId string) (*models.Account, error)
	ListLedgerEntries(ctx context.Context, userId string, limit, offset int) ([]models.LedgerEntry, error)

	// Deposits.
	SubmitDeposit(ctx context.Context, params SubmitDepositParams) (*models.Deposit, error)
	GetDeposit(ctx context.Context, id string) (*models.Deposit, error)
	FindPendingDepositByTxHash(ctx context.Context, txHash string) (*models.Deposit, error)
	ConfirmDeposit(ctx context.Context, params ConfirmDepositParams) (*models.Deposit, error)
	RejectDeposit(ctx context.Context, id, adminId, reason string) (*models.Deposit, error)
	AppendDepositNote(ctx context.Context, id, note string) error
	ListDeposits(ctx context.Context, filter ListFilter) ([]models.Deposit, error)
	DepositStats(ctx context.Context) (*models.DepositStats, error)

	// Withdrawals.
	RequestWithdrawal(ctx context.Context, params RequestWithdrawalParams) (*models.Withdrawal, error)
	GetWithdrawal(ctx context.Context, id string) (*models.Withdrawal, error)
	ApproveWithdrawal(ctx context.Context, id, txHash, notes string) (*models.Withdrawal, error)
	RefundWithdrawal(ctx context.Context, id, finalStatus, reason string) (*models.Withdrawal, error)
	ListWithdrawals(ctx context.Context, filter ListFilter) ([]models.Withdrawal, error)
	WithdrawalStats(ctx context.Context) (*models.WithdrawalStats, error)

	// Investments.
	CreateInvestment(ctx context.Context, params CreateInvestmentParams) (*models.Investment, error)
	CancelInvestment(ctx context.Context, id string) (*models.Investment, error)
	GetInvestment(ctx context.Context, id string) (*models.Investment, error)
	GetActiveInvestment(ctx context.Context, userId string) (*models.Investment, error)
	ListDueInvestments(ctx context.Context, date string) ([]models.Investment, error)
	CreditInvestmentProfit(ctx context.Context, params CreditProfitParams) error
	ListInvestmentLevels(ctx context.Context) ([]models.InvestmentLevel, error)

	// Profit runs.
	FindCompletedProfitRun(ctx context.Context, runType, runDate string) (*models.ProfitRun, error)
	CreateProfitRun(ctx context.Context, runType, runDate string) (*models.ProfitRun, error)
	FinalizeProfitRun(ctx context.Context, params FinalizeProfitRunParams) (*models.ProfitRun, error)

	// KYC (read-only view of the collaborator's records).
	LatestKycStatus(ctx context.Context, userId string) (string, error)
}

// SettingsStore is the key-value config store used for scan cursors and
// platform wallet addresses. Injected so tests can substitute an in-memory
// implementation.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Well-known settings keys.
const (
	SettingLastBep20Block     = "last_bep20_block"
	SettingLastTrc20Timestamp = "last_trc20_timestamp"
	SettingBep20Wallet        = "bep20_wallet_address"
	SettingTrc20Wallet        = "trc20_wallet_address"
)
