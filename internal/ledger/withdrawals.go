package ledger

import (
	"context"
	"fmt"

	"invest-settlement-go/internal/models"
	"invest-settlement-go/internal/store"
)

// RequestWithdrawal validates the request against the configured limits and
// places the hold. The amount leaves the available balance immediately.
func (s *Service) RequestWithdrawal(ctx context.Context, userId string, req models.RequestWithdrawalRequest) (*models.Withdrawal, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if err := validateChain(req.Chain); err != nil {
		return nil, err
	}
	if err := validateWalletAddress(req.Chain, req.WalletAddress); err != nil {
		return nil, err
	}
	if amount.LessThan(s.withdrawal.MinAmount) {
		return nil, fmt.Errorf("%w: minimum withdrawal is %s", store.ErrValidation, s.withdrawal.MinAmount)
	}
	if amount.GreaterThan(s.withdrawal.MaxAmount) {
		return nil, fmt.Errorf("%w: maximum withdrawal is %s", store.ErrValidation, s.withdrawal.MaxAmount)
	}

	withdrawal, err := s.store.RequestWithdrawal(ctx, store.RequestWithdrawalParams{
		UserId:        userId,
		Amount:        amount,
		Chain:         req.Chain,
		WalletAddress: req.WalletAddress,
	})
	if err != nil {
		return nil, err
	}

	return withdrawal, nil
}

// GetWithdrawal loads a withdrawal, enforcing ownership for non-admin callers.
func (s *Service) GetWithdrawal(ctx context.Context, id, userId string, isAdmin bool) (*models.Withdrawal, error) {
	withdrawal, err := s.store.GetWithdrawal(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && withdrawal.UserId != userId {
		return nil, fmt.Errorf("%w: withdrawal %s", store.ErrNotFound, id)
	}
	return withdrawal, nil
}

// ApproveWithdrawal marks a pending withdrawal completed once the payout
// transaction has been broadcast. The hold was already taken at request time,
// so no balance changes here.
func (s *Service) ApproveWithdrawal(ctx context.Context, id, adminId string, req models.ApproveWithdrawalRequest) (*models.Withdrawal, error) {
	withdrawal, err := s.store.GetWithdrawal(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateTxHash(withdrawal.Chain, req.TxHash); err != nil {
		return nil, err
	}

	withdrawal, err = s.store.ApproveWithdrawal(ctx, id, req.TxHash, req.Notes)
	if err != nil {
		return nil, err
	}

	return withdrawal, nil
}

// RejectWithdrawal refunds the held amount and marks the request rejected.
func (s *Service) RejectWithdrawal(ctx context.Context, id, adminId, reason string) (*models.Withdrawal, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", store.ErrValidation)
	}

	withdrawal, err := s.store.RefundWithdrawal(ctx, id, models.WithdrawalRejected, reason)
	if err != nil {
		return nil, err
	}

	return withdrawal, nil
}

// CancelWithdrawal lets the owner withdraw their own pending request; the
// held amount is refunded.
func (s *Service) CancelWithdrawal(ctx context.Context, id, userId string) (*models.Withdrawal, error) {
	withdrawal, err := s.store.GetWithdrawal(ctx, id)
	if err != nil {
		return nil, err
	}
	if withdrawal.UserId != userId {
		return nil, fmt.Errorf("%w: withdrawal %s", store.ErrNotFound, id)
	}

	withdrawal, err = s.store.RefundWithdrawal(ctx, id, models.WithdrawalCancelled, "cancelled by user")
	if err != nil {
		return nil, err
	}

	return withdrawal, nil
}

func (s *Service) ListWithdrawals(ctx context.Context, filter store.ListFilter) ([]models.Withdrawal, error) {
	return s.store.ListWithdrawals(ctx, filter)
}

func (s *Service) WithdrawalStats(ctx context.Context) (*models.WithdrawalStats, error) {
	return s.store.WithdrawalStats(ctx)
}
