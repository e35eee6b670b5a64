package ledger

import (
	"context"
	"fmt"

	"invest-settlement-go/internal/models"
	"invest-settlement-go/internal/store"

	"github.com/shopspring/decimal"
)

// CreateInvestment moves available funds into an active position. Requires an
// approved KYC status and an amount that falls inside one of the configured
// tiers. The first profit accrues tomorrow (UTC), never on the creation day.
func (s *Service) CreateInvestment(ctx context.Context, userId string, req models.CreateInvestmentRequest) (*models.Investment, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	kycStatus, err := s.store.LatestKycStatus(ctx, userId)
	if err != nil {
		return nil, err
	}
	if kycStatus != models.KycApproved {
		return nil, fmt.Errorf("%w: current status is %s", store.ErrKycRequired, kycStatus)
	}

	level, err := s.resolveLevel(ctx, amount)
	if err != nil {
		return nil, err
	}

	nextProfitDate := s.now().UTC().AddDate(0, 0, 1).Format("2006-01-02")

	investment, err := s.store.CreateInvestment(ctx, store.CreateInvestmentParams{
		UserId:         userId,
		Amount:         amount,
		Level:          level.Level,
		LevelName:      level.Name,
		ProfitRate:     level.DailyRate,
		NextProfitDate: nextProfitDate,
	})
	if err != nil {
		return nil, err
	}

	return investment, nil
}

// CancelInvestment returns the principal to the available balance. Profit
// already credited stays with the user.
func (s *Service) CancelInvestment(ctx context.Context, id, userId string, isAdmin bool) (*models.Investment, error) {
	investment, err := s.store.GetInvestment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && investment.UserId != userId {
		return nil, fmt.Errorf("%w: investment %s", store.ErrNotFound, id)
	}

	investment, err = s.store.CancelInvestment(ctx, id)
	if err != nil {
		return nil, err
	}

	return investment, nil
}

func (s *Service) GetInvestment(ctx context.Context, id, userId string, isAdmin bool) (*models.Investment, error) {
	investment, err := s.store.GetInvestment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && investment.UserId != userId {
		return nil, fmt.Errorf("%w: investment %s", store.ErrNotFound, id)
	}
	return investment, nil
}

// GetActiveInvestment returns the user's current active position.
func (s *Service) GetActiveInvestment(ctx context.Context, userId string) (*models.Investment, error) {
	return s.store.GetActiveInvestment(ctx, userId)
}

func (s *Service) ListInvestmentLevels(ctx context.Context) ([]models.InvestmentLevel, error) {
	return s.store.ListInvestmentLevels(ctx)
}

// resolveLevel finds the tier whose [min, max] range contains the amount.
func (s *Service) resolveLevel(ctx context.Context, amount decimal.Decimal) (*models.InvestmentLevel, error) {
	levels, err := s.store.ListInvestmentLevels(ctx)
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: no investment levels configured", store.ErrValidation)
	}

	for i := range levels {
		level := &levels[i]
		if amount.GreaterThanOrEqual(level.MinAmount) && amount.LessThanOrEqual(level.MaxAmount) {
			return level, nil
		}
	}
	return nil, fmt.Errorf("%w: amount %s does not match any investment level", store.ErrValidation, amount)
}
