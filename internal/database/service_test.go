package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"invest-settlement-go/internal/models"
	"invest-settlement-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func setupTestDb(t *testing.T) *Service {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})

	service := NewServiceWithDB(db)
	if err := service.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}
	return service
}

var testTxSeq int

func nextTxHash() string {
	testTxSeq++
	return fmt.Sprintf("%064d", testTxSeq)
}

func confirmedDeposit(t *testing.T, service *Service, userId, amount string) *models.Deposit {
	t.Helper()
	ctx := context.Background()

	deposit, err := service.SubmitDeposit(ctx, store.SubmitDepositParams{
		UserId: userId,
		Amount: decimal.RequireFromString(amount),
		Chain:  models.ChainTRC20,
		TxHash: nextTxHash(),
	})
	if err != nil {
		t.Fatalf("failed to submit deposit: %v", err)
	}

	confirmed, err := service.ConfirmDeposit(ctx, store.ConfirmDepositParams{
		DepositId:  deposit.Id,
		VerifiedBy: "admin-1",
	})
	if err != nil {
		t.Fatalf("failed to confirm deposit: %v", err)
	}
	return confirmed
}

func TestGetAccountUnknownUser(t *testing.T) {
	service := setupTestDb(t)

	account, err := service.GetAccount(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unknown user must not error: %v", err)
	}
	if !account.Balance.IsZero() || !account.AvailableBalance.IsZero() || !account.InvestedBalance.IsZero() {
		t.Errorf("expected zero balances, got %s/%s/%s",
			account.Balance, account.AvailableBalance, account.InvestedBalance)
	}
}

func TestConfirmDepositWritesLedger(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()

	confirmedDeposit(t, service, "user-1", "100")

	entries, err := service.ListLedgerEntries(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("failed to list ledger: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.TransactionType != models.EntryDeposit {
		t.Errorf("expected deposit entry, got %s", entry.TransactionType)
	}
	if !entry.Amount.Equal(decimal.RequireFromString("100")) {
		t.Errorf("expected amount 100, got %s", entry.Amount)
	}
	if !entry.BalanceBefore.IsZero() {
		t.Errorf("expected balance_before 0, got %s", entry.BalanceBefore)
	}
	if !entry.BalanceAfter.Equal(decimal.RequireFromString("100")) {
		t.Errorf("expected balance_after 100, got %s", entry.BalanceAfter)
	}
}

func TestConfirmDepositTwice(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()

	deposit := confirmedDeposit(t, service, "user-1", "100")

	_, err := service.ConfirmDeposit(ctx, store.ConfirmDepositParams{
		DepositId:  deposit.Id,
		VerifiedBy: "admin-2",
	})
	if !errors.Is(err, store.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}

	// No double credit.
	account, err := service.GetAccount(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("100")) {
		t.Errorf("expected balance 100, got %s", account.Balance)
	}
}

func TestRejectConfirmedDeposit(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()

	deposit := confirmedDeposit(t, service, "user-1", "100")

	_, err := service.RejectDeposit(ctx, deposit.Id, "admin-1", "late rejection")
	if !errors.Is(err, store.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestRejectPendingDeposit(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()

	deposit, err := service.SubmitDeposit(ctx, store.SubmitDepositParams{
		UserId: "user-1",
		Amount: decimal.RequireFromString("100"),
		Chain:  models.ChainTRC20,
		TxHash: nextTxHash(),
	})
	if err != nil {
		t.Fatalf("failed to submit deposit: %v", err)
	}

	rejected, err := service.RejectDeposit(ctx, deposit.Id, "admin-1", "unverifiable")
	if err != nil {
		t.Fatalf("failed to reject: %v", err)
	}
	if rejected.Status != models.DepositFailed {
		t.Errorf("expected failed, got %s", rejected.Status)
	}

	// Nothing was credited.
	account, err := service.GetAccount(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}
	if !account.Balance.IsZero() {
		t.Errorf("expected zero balance, got %s", account.Balance)
	}
}

func TestFindPendingDepositByTxHash(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()

	txHash := nextTxHash()
	if _, err := service.SubmitDeposit(ctx, store.SubmitDepositParams{
		UserId: "user-1",
		Amount: decimal.RequireFromString("100"),
		Chain:  models.ChainTRC20,
		TxHash: txHash,
	}); err != nil {
		t.Fatalf("failed to submit deposit: %v", err)
	}

	found, err := service.FindPendingDepositByTxHash(ctx, txHash)
	if err != nil {
		t.Fatalf("failed to find deposit: %v", err)
	}
	if found.TxHash != txHash {
		t.Errorf("expected tx hash %s, got %s", txHash, found.TxHash)
	}

	if _, err := service.FindPendingDepositByTxHash(ctx, nextTxHash()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown hash, got %v", err)
	}
}

func TestWithdrawalHoldApproveAndRefund(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()

	confirmedDeposit(t, service, "user-1", "500")

	withdrawal, err := service.RequestWithdrawal(ctx, store.RequestWithdrawalParams{
		UserId:        "user-1",
		Amount:        decimal.RequireFromString("200"),
		Chain:         models.ChainBEP20,
		WalletAddress: "0x52908400098527886E0F7030069857D2E4169EE7",
	})
	if err != nil {
		t.Fatalf("failed to request withdrawal: %v", err)
	}

	account, err := service.GetAccount(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("300")) {
		t.Errorf("hold must reduce total balance to 300, got %s", account.Balance)
	}

	approved, err := service.ApproveWithdrawal(ctx, withdrawal.Id, "0x"+nextTxHash()[2:], "paid out")
	if err != nil {
		t.Fatalf("failed to approve: %v", err)
	}
	if approved.Status != models.WithdrawalCompleted {
		t.Errorf("expected completed, got %s", approved.Status)
	}
	if approved.ProcessedAt == nil {
		t.Error("expected processed_at to be set")
	}

	// Approval is terminal; refunding afterwards must fail.
	if _, err := service.RefundWithdrawal(ctx, withdrawal.Id, models.WithdrawalRejected, "oops"); !errors.Is(err, store.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got %v", err)
	}

	// Balance unchanged by approval.
	account, err = service.GetAccount(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("300")) {
		t.Errorf("approval must not move balances, got %s", account.Balance)
	}
}

func TestWithdrawalRefundRoundTrip(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()

	confirmedDeposit(t, service, "user-1", "500")

	withdrawal, err := service.RequestWithdrawal(ctx, store.RequestWithdrawalParams{
		UserId:        "user-1",
		Amount:        decimal.RequireFromString("200"),
		Chain:         models.ChainBEP20,
		WalletAddress: "0x52908400098527886E0F7030069857D2E4169EE7",
	})
	if err != nil {
		t.Fatalf("failed to request withdrawal: %v", err)
	}

	refunded, err := service.RefundWithdrawal(ctx, withdrawal.Id, models.WithdrawalCancelled, "cancelled by user")
	if err != nil {
		t.Fatalf("failed to refund: %v", err)
	}
	if refunded.Status != models.WithdrawalCancelled {
		t.Errorf("expected cancelled, got %s", refunded.Status)
	}

	account, err := service.GetAccount(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}
	if !account.AvailableBalance.Equal(decimal.RequireFromString("500")) {
		t.Errorf("expected available restored to 500, got %s", account.AvailableBalance)
	}

	// Hold and refund both left ledger entries summing to zero.
	entries, err := service.ListLedgerEntries(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("failed to list ledger: %v", err)
	}
	sum := decimal.Zero
	for _, entry := range entries {
		sum = sum.Add(entry.Amount)
	}
	if !sum.Equal(decimal.RequireFromString("500")) {
		t.Errorf("ledger entries must sum to 500, got %s", sum)
	}
}

func TestInvestmentRoundTripKeepsTotalBalance(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()

	confirmedDeposit(t, service, "user-1", "1000")

	investment, err := service.CreateInvestment(ctx, store.CreateInvestmentParams{
		UserId:         "user-1",
		Amount:         decimal.RequireFromString("600"),
		Level:          2,
		LevelName:      "Silver",
		ProfitRate:     decimal.RequireFromString("0.8"),
		NextProfitDate: "2025-06-16",
	})
	if err != nil {
		t.Fatalf("failed to create investment: %v", err)
	}

	// Reallocation entries carry zero amount.
	entries, err := service.ListLedgerEntries(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("failed to list ledger: %v", err)
	}
	if entries[0].TransactionType != models.EntryInvestment {
		t.Errorf("expected investment entry, got %s", entries[0].TransactionType)
	}
	if !entries[0].Amount.IsZero() {
		t.Errorf("reallocation entry must have zero amount, got %s", entries[0].Amount)
	}

	cancelled, err := service.CancelInvestment(ctx, investment.Id)
	if err != nil {
		t.Fatalf("failed to cancel investment: %v", err)
	}
	if cancelled.Status != models.InvestmentCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.ClosedAt == nil {
		t.Error("expected closed_at to be set")
	}

	account, err := service.GetAccount(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("total balance must survive the round trip, got %s", account.Balance)
	}
	if !account.InvestedBalance.IsZero() {
		t.Errorf("expected invested 0, got %s", account.InvestedBalance)
	}
}

func TestCreateInvestmentInsufficientAvailable(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()

	confirmedDeposit(t, service, "user-1", "100")

	_, err := service.CreateInvestment(ctx, store.CreateInvestmentParams{
		UserId:         "user-1",
		Amount:         decimal.RequireFromString("500"),
		Level:          1,
		LevelName:      "Starter",
		ProfitRate:     decimal.RequireFromString("0.5"),
		NextProfitDate: "2025-06-16",
	})
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestCreditProfitRejectsFutureDueDate(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()

	confirmedDeposit(t, service, "user-1", "1000")

	investment, err := service.CreateInvestment(ctx, store.CreateInvestmentParams{
		UserId:         "user-1",
		Amount:         decimal.RequireFromString("1000"),
		Level:          2,
		LevelName:      "Silver",
		ProfitRate:     decimal.RequireFromString("0.5"),
		NextProfitDate: "2025-06-20",
	})
	if err != nil {
		t.Fatalf("failed to create investment: %v", err)
	}

	err = service.CreditInvestmentProfit(ctx, store.CreditProfitParams{
		InvestmentId:   investment.Id,
		Amount:         decimal.RequireFromString("5"),
		RunDate:        "2025-06-15",
		NextProfitDate: "2025-06-16",
	})
	if !errors.Is(err, store.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition for early credit, got %v", err)
	}
}

func TestProfitRunUniquePerDate(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()

	if _, err := service.CreateProfitRun(ctx, "daily", "2025-06-15"); err != nil {
		t.Fatalf("first run insert failed: %v", err)
	}
	if _, err := service.CreateProfitRun(ctx, "daily", "2025-06-15"); !errors.Is(err, store.ErrAlreadyRun) {
		t.Errorf("expected ErrAlreadyRun, got %v", err)
	}
	// A different date is fine.
	if _, err := service.CreateProfitRun(ctx, "daily", "2025-06-16"); err != nil {
		t.Errorf("different date must insert, got %v", err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()

	value, err := service.GetSetting(ctx, store.SettingLastBep20Block)
	if err != nil {
		t.Fatalf("failed to get unset setting: %v", err)
	}
	if value != "" {
		t.Errorf("expected empty value, got %q", value)
	}

	if err := service.SetSetting(ctx, store.SettingLastBep20Block, "12345"); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if err := service.SetSetting(ctx, store.SettingLastBep20Block, "12400"); err != nil {
		t.Fatalf("failed to overwrite: %v", err)
	}

	value, err = service.GetSetting(ctx, store.SettingLastBep20Block)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if value != "12400" {
		t.Errorf("expected 12400, got %q", value)
	}
}

func TestListDepositsFilters(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()

	confirmedDeposit(t, service, "user-1", "100")
	if _, err := service.SubmitDeposit(ctx, store.SubmitDepositParams{
		UserId: "user-2",
		Amount: decimal.RequireFromString("50"),
		Chain:  models.ChainBEP20,
		TxHash: "0x" + nextTxHash()[2:],
	}); err != nil {
		t.Fatalf("failed to submit deposit: %v", err)
	}

	pending, err := service.ListDeposits(ctx, store.ListFilter{Status: models.DepositPending})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(pending) != 1 || pending[0].UserId != "user-2" {
		t.Errorf("expected one pending deposit for user-2, got %d", len(pending))
	}

	byUser, err := service.ListDeposits(ctx, store.ListFilter{UserId: "user-1"})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(byUser) != 1 || byUser[0].UserId != "user-1" {
		t.Errorf("expected one deposit for user-1, got %d", len(byUser))
	}

	byChain, err := service.ListDeposits(ctx, store.ListFilter{Chain: models.ChainBEP20})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(byChain) != 1 || byChain[0].Chain != models.ChainBEP20 {
		t.Errorf("expected one BEP20 deposit, got %d", len(byChain))
	}
}

func TestDepositStats(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()

	confirmedDeposit(t, service, "user-1", "100")
	confirmedDeposit(t, service, "user-2", "250")
	if _, err := service.SubmitDeposit(ctx, store.SubmitDepositParams{
		UserId: "user-3",
		Amount: decimal.RequireFromString("75"),
		Chain:  models.ChainTRC20,
		TxHash: nextTxHash(),
	}); err != nil {
		t.Fatalf("failed to submit deposit: %v", err)
	}

	stats, err := service.DepositStats(ctx)
	if err != nil {
		t.Fatalf("failed to get stats: %v", err)
	}
	if stats.TotalCount != 3 {
		t.Errorf("expected 3 total, got %d", stats.TotalCount)
	}
	if stats.PendingCount != 1 {
		t.Errorf("expected 1 pending, got %d", stats.PendingCount)
	}
	if stats.ConfirmedCount != 2 {
		t.Errorf("expected 2 confirmed, got %d", stats.ConfirmedCount)
	}
	if !stats.ConfirmedTotal.Equal(decimal.RequireFromString("350")) {
		t.Errorf("expected confirmed total 350, got %s", stats.ConfirmedTotal)
	}
}
