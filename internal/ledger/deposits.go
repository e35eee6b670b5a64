package ledger

import (
	"context"
	"fmt"

	"invest-settlement-go/internal/models"
	"invest-settlement-go/internal/store"
)

// SubmitDeposit records a user's claim of an on-chain transfer. No funds move
// until the claim is confirmed.
func (s *Service) SubmitDeposit(ctx context.Context, userId string, req models.SubmitDepositRequest) (*models.Deposit, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if err := validateChain(req.Chain); err != nil {
		return nil, err
	}
	if err := validateTxHash(req.Chain, req.TxHash); err != nil {
		return nil, err
	}
	if req.WalletAddress != "" {
		if err := validateWalletAddress(req.Chain, req.WalletAddress); err != nil {
			return nil, err
		}
	}

	deposit, err := s.store.SubmitDeposit(ctx, store.SubmitDepositParams{
		UserId:        userId,
		Amount:        amount,
		Chain:         req.Chain,
		TxHash:        req.TxHash,
		WalletAddress: req.WalletAddress,
	})
	if err != nil {
		return nil, err
	}

	return deposit, nil
}

// GetDeposit loads a deposit, enforcing ownership for non-admin callers.
func (s *Service) GetDeposit(ctx context.Context, id, userId string, isAdmin bool) (*models.Deposit, error) {
	deposit, err := s.store.GetDeposit(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && deposit.UserId != userId {
		return nil, fmt.Errorf("%w: deposit %s", store.ErrNotFound, id)
	}
	return deposit, nil
}

// ConfirmDeposit credits a pending deposit after manual admin verification.
func (s *Service) ConfirmDeposit(ctx context.Context, id, adminId, notes string) (*models.Deposit, error) {
	deposit, err := s.store.ConfirmDeposit(ctx, store.ConfirmDepositParams{
		DepositId:  id,
		VerifiedBy: adminId,
		Notes:      notes,
	})
	if err != nil {
		return nil, err
	}

	return deposit, nil
}

func (s *Service) RejectDeposit(ctx context.Context, id, adminId, reason string) (*models.Deposit, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", store.ErrValidation)
	}

	deposit, err := s.store.RejectDeposit(ctx, id, adminId, reason)
	if err != nil {
		return nil, err
	}

	return deposit, nil
}

func (s *Service) ListDeposits(ctx context.Context, filter store.ListFilter) ([]models.Deposit, error) {
	return s.store.ListDeposits(ctx, filter)
}

func (s *Service) DepositStats(ctx context.Context) (*models.DepositStats, error) {
	return s.store.DepositStats(ctx)
}

// DepositAddress returns the platform wallet address users should send funds
// to on the given chain.
func (s *Service) DepositAddress(ctx context.Context, chain string) (string, error) {
	if err := validateChain(chain); err != nil {
		return "", err
	}

	key := store.SettingBep20Wallet
	if chain == models.ChainTRC20 {
		key = store.SettingTrc20Wallet
	}

	address, err := s.settings.GetSetting(ctx, key)
	if err != nil {
		return "", err
	}
	if address == "" {
		return "", fmt.Errorf("%w: no platform wallet configured for %s", store.ErrNotFound, chain)
	}
	return address, nil
}
