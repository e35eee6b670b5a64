package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"invest-settlement-go/internal/database"
	"invest-settlement-go/internal/models"
	"invest-settlement-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func setupTestService(t *testing.T) (*Service, *database.Service) {
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

	dbService := database.NewServiceWithDB(db)
	if err := dbService.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	svc := NewService(dbService, dbService, models.WithdrawalConfig{
		MinAmount: decimal.RequireFromString("10"),
		MaxAmount: decimal.RequireFromString("50000"),
	})
	svc.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc, dbService
}

func fundAccount(t *testing.T, svc *Service, dbService *database.Service, userId, amount string) {
	t.Helper()
	ctx := context.Background()

	deposit, err := svc.SubmitDeposit(ctx, userId, models.SubmitDepositRequest{
		Amount: amount,
		Chain:  models.ChainTRC20,
		TxHash: "a4f1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c1d2e3f4a5b6c7d8e9f011",
	})
	if err != nil {
		t.Fatalf("failed to submit deposit: %v", err)
	}
	if _, err := svc.ConfirmDeposit(ctx, deposit.Id, "admin-1", ""); err != nil {
		t.Fatalf("failed to confirm deposit: %v", err)
	}
}

func seedLevels(t *testing.T, dbService *database.Service) {
	t.Helper()
	ctx := context.Background()

	levels := []models.InvestmentLevel{
		{Level: 1, Name: "Starter", MinAmount: decimal.RequireFromString("50"), MaxAmount: decimal.RequireFromString("499"), DailyRate: decimal.RequireFromString("0.5")},
		{Level: 2, Name: "Silver", MinAmount: decimal.RequireFromString("500"), MaxAmount: decimal.RequireFromString("4999"), DailyRate: decimal.RequireFromString("0.8")},
	}
	for _, level := range levels {
		if err := dbService.UpsertInvestmentLevel(ctx, level); err != nil {
			t.Fatalf("failed to seed level %d: %v", level.Level, err)
		}
	}
}

func TestSubmitDepositValidation(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.SubmitDepositRequest
	}{
		{"bad amount", models.SubmitDepositRequest{Amount: "abc", Chain: models.ChainTRC20, TxHash: "a4f1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c1d2e3f4a5b6c7d8e9f011"}},
		{"zero amount", models.SubmitDepositRequest{Amount: "0", Chain: models.ChainTRC20, TxHash: "a4f1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c1d2e3f4a5b6c7d8e9f011"}},
		{"negative amount", models.SubmitDepositRequest{Amount: "-5", Chain: models.ChainTRC20, TxHash: "a4f1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c1d2e3f4a5b6c7d8e9f011"}},
		{"unknown chain", models.SubmitDepositRequest{Amount: "100", Chain: "ERC20", TxHash: "a4f1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c1d2e3f4a5b6c7d8e9f011"}},
		{"trc20 hash with 0x prefix", models.SubmitDepositRequest{Amount: "100", Chain: models.ChainTRC20, TxHash: "0xa4f1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c1d2e3f4a5b6c7d8e9f011"}},
		{"bep20 hash without prefix", models.SubmitDepositRequest{Amount: "100", Chain: models.ChainBEP20, TxHash: "a4f1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c1d2e3f4a5b6c7d8e9f011"}},
		{"short hash", models.SubmitDepositRequest{Amount: "100", Chain: models.ChainTRC20, TxHash: "abc123"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SubmitDeposit(ctx, "user-1", tc.req)
			if !errors.Is(err, store.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestSubmitDepositDuplicateTxHash(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	req := models.SubmitDepositRequest{
		Amount: "100",
		Chain:  models.ChainTRC20,
		TxHash: "a4f1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c1d2e3f4a5b6c7d8e9f011",
	}

	if _, err := svc.SubmitDeposit(ctx, "user-1", req); err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	_, err := svc.SubmitDeposit(ctx, "user-2", req)
	if !errors.Is(err, store.ErrDuplicateTxHash) {
		t.Errorf("expected ErrDuplicateTxHash, got %v", err)
	}
}

func TestDepositConfirmCreditsAccount(t *testing.T) {
	svc, dbService := setupTestService(t)
	ctx := context.Background()

	fundAccount(t, svc, dbService, "user-1", "250")

	account, err := svc.GetAccount(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}
	if !account.AvailableBalance.Equal(decimal.RequireFromString("250")) {
		t.Errorf("expected available 250, got %s", account.AvailableBalance)
	}
	if !account.Balance.Equal(account.AvailableBalance.Add(account.InvestedBalance)) {
		t.Errorf("balance invariant broken: %s != %s + %s",
			account.Balance, account.AvailableBalance, account.InvestedBalance)
	}

	entries, err := svc.ListLedgerEntries(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("failed to list ledger: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	if entries[0].TransactionType != models.EntryDeposit {
		t.Errorf("expected deposit entry, got %s", entries[0].TransactionType)
	}
}

func TestDepositOwnershipCheck(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	deposit, err := svc.SubmitDeposit(ctx, "user-1", models.SubmitDepositRequest{
		Amount: "100",
		Chain:  models.ChainTRC20,
		TxHash: "a4f1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c1d2e3f4a5b6c7d8e9f011",
	})
	if err != nil {
		t.Fatalf("failed to submit deposit: %v", err)
	}

	if _, err := svc.GetDeposit(ctx, deposit.Id, "user-2", false); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other user, got %v", err)
	}
	if _, err := svc.GetDeposit(ctx, deposit.Id, "admin-1", true); err != nil {
		t.Errorf("admin should see any deposit, got %v", err)
	}
	if _, err := svc.GetDeposit(ctx, deposit.Id, "user-1", false); err != nil {
		t.Errorf("owner should see own deposit, got %v", err)
	}
}

func TestWithdrawalLimits(t *testing.T) {
	svc, dbService := setupTestService(t)
	ctx := context.Background()

	fundAccount(t, svc, dbService, "user-1", "100000")

	tests := []struct {
		name   string
		amount string
	}{
		{"below minimum", "9.99"},
		{"above maximum", "50000.01"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RequestWithdrawal(ctx, "user-1", models.RequestWithdrawalRequest{
				Amount:        tc.amount,
				Chain:         models.ChainBEP20,
				WalletAddress: "0x52908400098527886E0F7030069857D2E4169EE7",
			})
			if !errors.Is(err, store.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestWithdrawalHoldAndRefund(t *testing.T) {
	svc, dbService := setupTestService(t)
	ctx := context.Background()

	fundAccount(t, svc, dbService, "user-1", "500")

	withdrawal, err := svc.RequestWithdrawal(ctx, "user-1", models.RequestWithdrawalRequest{
		Amount:        "200",
		Chain:         models.ChainBEP20,
		WalletAddress: "0x52908400098527886E0F7030069857D2E4169EE7",
	})
	if err != nil {
		t.Fatalf("failed to request withdrawal: %v", err)
	}

	account, err := svc.GetAccount(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}
	if !account.AvailableBalance.Equal(decimal.RequireFromString("300")) {
		t.Errorf("expected available 300 after hold, got %s", account.AvailableBalance)
	}

	if _, err := svc.RejectWithdrawal(ctx, withdrawal.Id, "admin-1", "suspicious destination"); err != nil {
		t.Fatalf("failed to reject withdrawal: %v", err)
	}

	account, err = svc.GetAccount(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}
	if !account.AvailableBalance.Equal(decimal.RequireFromString("500")) {
		t.Errorf("expected available 500 after refund, got %s", account.AvailableBalance)
	}
}

func TestWithdrawalInsufficientFunds(t *testing.T) {
	svc, dbService := setupTestService(t)
	ctx := context.Background()

	fundAccount(t, svc, dbService, "user-1", "50")

	_, err := svc.RequestWithdrawal(ctx, "user-1", models.RequestWithdrawalRequest{
		Amount:        "100",
		Chain:         models.ChainBEP20,
		WalletAddress: "0x52908400098527886E0F7030069857D2E4169EE7",
	})
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestCancelWithdrawalOwnership(t *testing.T) {
	svc, dbService := setupTestService(t)
	ctx := context.Background()

	fundAccount(t, svc, dbService, "user-1", "500")

	withdrawal, err := svc.RequestWithdrawal(ctx, "user-1", models.RequestWithdrawalRequest{
		Amount:        "100",
		Chain:         models.ChainBEP20,
		WalletAddress: "0x52908400098527886E0F7030069857D2E4169EE7",
	})
	if err != nil {
		t.Fatalf("failed to request withdrawal: %v", err)
	}

	if _, err := svc.CancelWithdrawal(ctx, withdrawal.Id, "user-2"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other user, got %v", err)
	}

	cancelled, err := svc.CancelWithdrawal(ctx, withdrawal.Id, "user-1")
	if err != nil {
		t.Fatalf("owner cancel failed: %v", err)
	}
	if cancelled.Status != models.WithdrawalCancelled {
		t.Errorf("expected status cancelled, got %s", cancelled.Status)
	}

	account, err := svc.GetAccount(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}
	if !account.AvailableBalance.Equal(decimal.RequireFromString("500")) {
		t.Errorf("expected available 500 after cancel, got %s", account.AvailableBalance)
	}
}

func TestCreateInvestmentRequiresKyc(t *testing.T) {
	svc, dbService := setupTestService(t)
	ctx := context.Background()

	fundAccount(t, svc, dbService, "user-1", "1000")
	seedLevels(t, dbService)

	_, err := svc.CreateInvestment(ctx, "user-1", models.CreateInvestmentRequest{Amount: "500"})
	if !errors.Is(err, store.ErrKycRequired) {
		t.Errorf("expected ErrKycRequired with no submission, got %v", err)
	}

	if err := dbService.RecordKycSubmission(ctx, "user-1", models.KycPending); err != nil {
		t.Fatalf("failed to record kyc: %v", err)
	}
	_, err = svc.CreateInvestment(ctx, "user-1", models.CreateInvestmentRequest{Amount: "500"})
	if !errors.Is(err, store.ErrKycRequired) {
		t.Errorf("expected ErrKycRequired while pending, got %v", err)
	}

	if err := dbService.RecordKycSubmission(ctx, "user-1", models.KycApproved); err != nil {
		t.Fatalf("failed to record kyc: %v", err)
	}
	investment, err := svc.CreateInvestment(ctx, "user-1", models.CreateInvestmentRequest{Amount: "500"})
	if err != nil {
		t.Fatalf("expected investment after approval, got %v", err)
	}
	if investment.Level != 2 {
		t.Errorf("expected level 2 for amount 500, got %d", investment.Level)
	}
	if investment.NextProfitDate != "2025-06-16" {
		t.Errorf("first profit must accrue tomorrow, got %s", investment.NextProfitDate)
	}
}

func TestCreateInvestmentTierResolution(t *testing.T) {
	svc, dbService := setupTestService(t)
	ctx := context.Background()

	fundAccount(t, svc, dbService, "user-1", "10000")
	seedLevels(t, dbService)
	if err := dbService.RecordKycSubmission(ctx, "user-1", models.KycApproved); err != nil {
		t.Fatalf("failed to record kyc: %v", err)
	}

	// Below every tier.
	_, err := svc.CreateInvestment(ctx, "user-1", models.CreateInvestmentRequest{Amount: "20"})
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("expected ErrValidation below tiers, got %v", err)
	}
	// Above every tier.
	_, err = svc.CreateInvestment(ctx, "user-1", models.CreateInvestmentRequest{Amount: "9000"})
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("expected ErrValidation above tiers, got %v", err)
	}

	investment, err := svc.CreateInvestment(ctx, "user-1", models.CreateInvestmentRequest{Amount: "100"})
	if err != nil {
		t.Fatalf("failed to create investment: %v", err)
	}
	if investment.Level != 1 || investment.LevelName != "Starter" {
		t.Errorf("expected Starter level 1, got %d %s", investment.Level, investment.LevelName)
	}
	if !investment.ProfitRate.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("expected rate 0.5, got %s", investment.ProfitRate)
	}
}

func TestSingleActiveInvestment(t *testing.T) {
	svc, dbService := setupTestService(t)
	ctx := context.Background()

	fundAccount(t, svc, dbService, "user-1", "2000")
	seedLevels(t, dbService)
	if err := dbService.RecordKycSubmission(ctx, "user-1", models.KycApproved); err != nil {
		t.Fatalf("failed to record kyc: %v", err)
	}

	first, err := svc.CreateInvestment(ctx, "user-1", models.CreateInvestmentRequest{Amount: "500"})
	if err != nil {
		t.Fatalf("failed to create first investment: %v", err)
	}

	_, err = svc.CreateInvestment(ctx, "user-1", models.CreateInvestmentRequest{Amount: "300"})
	if !errors.Is(err, store.ErrDuplicateActiveInvestment) {
		t.Errorf("expected ErrDuplicateActiveInvestment, got %v", err)
	}

	// Cancelling frees the slot.
	if _, err := svc.CancelInvestment(ctx, first.Id, "user-1", false); err != nil {
		t.Fatalf("failed to cancel investment: %v", err)
	}
	if _, err := svc.CreateInvestment(ctx, "user-1", models.CreateInvestmentRequest{Amount: "300"}); err != nil {
		t.Errorf("expected new investment after cancel, got %v", err)
	}
}

func TestInvestmentMovesBalances(t *testing.T) {
	svc, dbService := setupTestService(t)
	ctx := context.Background()

	fundAccount(t, svc, dbService, "user-1", "1000")
	seedLevels(t, dbService)
	if err := dbService.RecordKycSubmission(ctx, "user-1", models.KycApproved); err != nil {
		t.Fatalf("failed to record kyc: %v", err)
	}

	investment, err := svc.CreateInvestment(ctx, "user-1", models.CreateInvestmentRequest{Amount: "600"})
	if err != nil {
		t.Fatalf("failed to create investment: %v", err)
	}

	account, err := svc.GetAccount(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}
	if !account.AvailableBalance.Equal(decimal.RequireFromString("400")) {
		t.Errorf("expected available 400, got %s", account.AvailableBalance)
	}
	if !account.InvestedBalance.Equal(decimal.RequireFromString("600")) {
		t.Errorf("expected invested 600, got %s", account.InvestedBalance)
	}
	if !account.Balance.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("total balance must not change on investment, got %s", account.Balance)
	}

	if _, err := svc.CancelInvestment(ctx, investment.Id, "user-1", false); err != nil {
		t.Fatalf("failed to cancel investment: %v", err)
	}

	account, err = svc.GetAccount(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}
	if !account.AvailableBalance.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("expected available 1000 after cancel, got %s", account.AvailableBalance)
	}
	if !account.InvestedBalance.IsZero() {
		t.Errorf("expected invested 0 after cancel, got %s", account.InvestedBalance)
	}
}
