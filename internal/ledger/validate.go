package ledger

import (
	"fmt"
	"regexp"
	"strings"

	"invest-settlement-go/internal/models"
	"invest-settlement-go/internal/store"

	"github.com/shopspring/decimal"
)

var (
	bep20TxHashRegex  = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	trc20TxHashRegex  = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
	bep20AddressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	trc20AddressRegex = regexp.MustCompile(`^T[1-9A-HJ-NP-Za-km-z]{33}$`)
)

func validateChain(chain string) error {
	if chain != models.ChainTRC20 && chain != models.ChainBEP20 {
		return fmt.Errorf("%w: unsupported chain %q", store.ErrValidation, chain)
	}
	return nil
}

// validateTxHash checks the transaction hash shape for the given chain.
// BEP20 hashes carry a 0x prefix, TRC20 hashes do not.
func validateTxHash(chain, txHash string) error {
	switch chain {
	case models.ChainBEP20:
		if !bep20TxHashRegex.MatchString(txHash) {
			return fmt.Errorf("%w: invalid BEP20 transaction hash", store.ErrValidation)
		}
	case models.ChainTRC20:
		if !trc20TxHashRegex.MatchString(txHash) {
			return fmt.Errorf("%w: invalid TRC20 transaction hash", store.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unsupported chain %q", store.ErrValidation, chain)
	}
	return nil
}

func validateWalletAddress(chain, address string) error {
	switch chain {
	case models.ChainBEP20:
		if !bep20AddressRegex.MatchString(address) {
			return fmt.Errorf("%w: invalid BEP20 wallet address", store.ErrValidation)
		}
	case models.ChainTRC20:
		if !trc20AddressRegex.MatchString(address) {
			return fmt.Errorf("%w: invalid TRC20 wallet address", store.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unsupported chain %q", store.ErrValidation, chain)
	}
	return nil
}

// parseAmount converts a request amount string into a positive decimal.
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", store.ErrValidation, raw)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", store.ErrValidation)
	}
	return amount, nil
}
