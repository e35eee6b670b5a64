package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Chain identifiers for supported stablecoin networks.
const (
	ChainTRC20 = "TRC20"
	ChainBEP20 = "BEP20"
)

// Deposit states.
const (
	DepositPending   = "pending"
	DepositConfirmed = "confirmed"
	DepositFailed    = "failed"
)

// Withdrawal states.
const (
	WithdrawalPending   = "pending"
	WithdrawalCompleted = "completed"
	WithdrawalRejected  = "rejected"
	WithdrawalCancelled = "cancelled"
)

// Investment states. "completed" is reserved for term-limited products.
const (
	InvestmentActive    = "active"
	InvestmentCompleted = "completed"
	InvestmentCancelled = "cancelled"
)

// Ledger entry types. Amounts are signed: deposits, profit and refunds are
// positive, withdrawals negative, investment reallocations zero (the total
// balance does not change, the entry exists for audit continuity).
const (
	EntryDeposit            = "deposit"
	EntryWithdrawal         = "withdrawal"
	EntryInvestment         = "investment"
	EntryRefund             = "refund"
	EntryProfit             = "profit"
	EntryReferralCommission = "referral_commission"
)

// Profit run states.
const (
	ProfitRunRunning   = "running"
	ProfitRunCompleted = "completed"
	ProfitRunPartial   = "partial"
)

// KYC statuses as reported by the KYC collaborator.
const (
	KycApproved = "approved"
	KycPending  = "pending"
	KycRejected = "rejected"
	KycNone     = "none"
)

// Account holds the three balance dimensions for one user.
// Invariant: Balance = AvailableBalance + InvestedBalance, none negative.
type Account struct {
	UserId           string          `db:"user_id" json:"user_id"`
	Balance          decimal.Decimal `db:"balance" json:"balance"`
	AvailableBalance decimal.Decimal `db:"available_balance" json:"available_balance"`
	InvestedBalance  decimal.Decimal `db:"invested_balance" json:"invested_balance"`
	Version          int64           `db:"version" json:"version"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// LedgerEntry is one immutable balance-affecting event with a before/after
// snapshot of the total balance.
type LedgerEntry struct {
	Id              string          `db:"id" json:"id"`
	UserId          string          `db:"user_id" json:"user_id"`
	TransactionType string          `db:"transaction_type" json:"transaction_type"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	BalanceBefore   decimal.Decimal `db:"balance_before" json:"balance_before"`
	BalanceAfter    decimal.Decimal `db:"balance_after" json:"balance_after"`
	Chain           string          `db:"chain" json:"chain"`
	ReferenceType   string          `db:"reference_type" json:"reference_type"`
	ReferenceId     string          `db:"reference_id" json:"reference_id"`
	Description     string          `db:"description" json:"description"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// Deposit is a user-submitted claim of an on-chain transfer. Funds are only
// credited once the claim is confirmed by an admin or the reconciler.
type Deposit struct {
	Id          string          `db:"id" json:"id"`
	UserId      string          `db:"user_id" json:"user_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Chain       string          `db:"chain" json:"chain"`
	TxHash      string          `db:"tx_hash" json:"tx_hash"`
	FromAddress string          `db:"from_address" json:"from_address"`
	ToAddress   string          `db:"to_address" json:"to_address"`
	Status      string          `db:"status" json:"status"`
	AdminNotes  string          `db:"admin_notes" json:"admin_notes"`
	VerifiedBy  string          `db:"verified_by" json:"verified_by"`
	VerifiedAt  *time.Time      `db:"verified_at" json:"verified_at"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Withdrawal is a user request to move funds to an external address. The
// amount is held (deducted) at request time, not at approval time.
type Withdrawal struct {
	Id              string          `db:"id" json:"id"`
	UserId          string          `db:"user_id" json:"user_id"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Chain           string          `db:"chain" json:"chain"`
	WalletAddress   string          `db:"wallet_address" json:"wallet_address"`
	Status          string          `db:"status" json:"status"`
	TxHash          string          `db:"tx_hash" json:"tx_hash"`
	RejectionReason string          `db:"rejection_reason" json:"rejection_reason"`
	AdminNotes      string          `db:"admin_notes" json:"admin_notes"`
	RequestedAt     time.Time       `db:"requested_at" json:"requested_at"`
	ProcessedAt     *time.Time      `db:"processed_at" json:"processed_at"`
}

// Investment locks part of a user's balance into a profit-bearing position.
// Amount is the original principal and never changes; daily profit is always
// computed from it, never compounded.
type Investment struct {
	Id                string          `db:"id" json:"id"`
	UserId            string          `db:"user_id" json:"user_id"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	Level             int             `db:"level" json:"level"`
	LevelName         string          `db:"level_name" json:"level_name"`
	ProfitRate        decimal.Decimal `db:"profit_rate" json:"profit_rate"`
	Status            string          `db:"status" json:"status"`
	NextProfitDate    string          `db:"next_profit_date" json:"next_profit_date"`
	LastProfitDate    string          `db:"last_profit_date" json:"last_profit_date"`
	TotalProfitEarned decimal.Decimal `db:"total_profit_earned" json:"total_profit_earned"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	ClosedAt          *time.Time      `db:"closed_at" json:"closed_at"`
}

// InvestmentLevel is one tier of the investment ladder: a contiguous
// [MinAmount, MaxAmount] range with a fixed daily rate in percent.
type InvestmentLevel struct {
	Level     int             `db:"level" json:"level"`
	Name      string          `db:"name" json:"name"`
	MinAmount decimal.Decimal `db:"min_amount" json:"min_amount"`
	MaxAmount decimal.Decimal `db:"max_amount" json:"max_amount"`
	DailyRate decimal.Decimal `db:"daily_rate" json:"daily_rate"`
}

// ProfitRun is the audit record of one daily distribution batch. The unique
// (run_type, run_date) pair doubles as a distributed lock against double
// distribution.
type ProfitRun struct {
	Id                        string          `db:"id" json:"id"`
	RunType                   string          `db:"run_type" json:"run_type"`
	RunDate                   string          `db:"run_date" json:"run_date"`
	IdempotencyKey            string          `db:"idempotency_key" json:"idempotency_key"`
	Status                    string          `db:"status" json:"status"`
	TotalInvestmentsProcessed int             `db:"total_investments_processed" json:"total_investments_processed"`
	TotalProfitDistributed    decimal.Decimal `db:"total_profit_distributed" json:"total_profit_distributed"`
	TotalUsersCredited        int             `db:"total_users_credited" json:"total_users_credited"`
	ErrorsCount               int             `db:"errors_count" json:"errors_count"`
	ErrorDetails              string          `db:"error_details" json:"error_details"`
	StartedAt                 time.Time       `db:"started_at" json:"started_at"`
	FinishedAt                *time.Time      `db:"finished_at" json:"finished_at"`
}

// KycSubmission mirrors the KYC collaborator's records; only the latest
// status per user is consulted here.
type KycSubmission struct {
	Id        string    `db:"id" json:"id"`
	UserId    string    `db:"user_id" json:"user_id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DepositStats aggregates deposits for the admin dashboard.
type DepositStats struct {
	TotalCount     int             `json:"total_count"`
	PendingCount   int             `json:"pending_count"`
	ConfirmedCount int             `json:"confirmed_count"`
	FailedCount    int             `json:"failed_count"`
	ConfirmedTotal decimal.Decimal `json:"confirmed_total"`
}

// WithdrawalStats aggregates withdrawals for the admin dashboard.
type WithdrawalStats struct {
	TotalCount     int             `json:"total_count"`
	PendingCount   int             `json:"pending_count"`
	CompletedCount int             `json:"completed_count"`
	RejectedCount  int             `json:"rejected_count"`
	CancelledCount int             `json:"cancelled_count"`
	CompletedTotal decimal.Decimal `json:"completed_total"`
	PendingTotal   decimal.Decimal `json:"pending_total"`
}
