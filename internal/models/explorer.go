package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenTransfer is one incoming stablecoin transfer as reported by a chain
// explorer, normalized across BscScan and TronGrid responses. Explorer data
// is untrusted; records that fail numeric parsing are dropped before they
// reach this type.
type TokenTransfer struct {
	TxHash      string
	Chain       string
	FromAddress string
	ToAddress   string
	Amount      decimal.Decimal
	// Block is set for BEP20 transfers, zero otherwise.
	Block int64
	// Timestamp is the on-chain time of the transfer (TRC20 cursors are
	// millisecond timestamps, BEP20 cursors are block numbers).
	Timestamp time.Time
}
