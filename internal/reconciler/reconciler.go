/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package reconciler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"invest-settlement-go/internal/explorer"
	"invest-settlement-go/internal/models"
	"invest-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const verifiedByReconciler = "reconciler"

// Reconciler periodically scans chain explorers for incoming transfers to the
// platform wallets and confirms matching pending deposits. Each chain keeps a
// scan cursor in the settings store; a cursor only advances after a scan that
// stored all of its transfers, so a storage failure is retried on the next
// tick rather than silently skipped.
type Reconciler struct {
	store     store.SettlementStore
	settings  store.SettingsStore
	clients   []explorer.Client
	tolerance decimal.Decimal
	interval  time.Duration

	stopChan chan struct{}
	doneChan chan struct{}
}

func New(st store.SettlementStore, settings store.SettingsStore, cfg models.ReconcilerConfig, clients ...explorer.Client) *Reconciler {
	return &Reconciler{
		store:     st,
		settings:  settings,
		clients:   clients,
		tolerance: cfg.AmountTolerance,
		interval:  cfg.ScanInterval,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start launches the scan loop. An immediate scan runs before the first tick.
func (r *Reconciler) Start(ctx context.Context) {
	go func() {
		defer close(r.doneChan)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.ScanOnce(ctx)

		for {
			select {
			case <-r.stopChan:
				zap.L().Info("Reconciler stopped")
				return
			case <-ctx.Done():
				zap.L().Info("Reconciler context cancelled")
				return
			case <-ticker.C:
				r.ScanOnce(ctx)
			}
		}
	}()

	zap.L().Info("Reconciler started", zap.Duration("scan_interval", r.interval))
}

// Stop signals the loop to exit and waits for the in-flight scan to finish.
func (r *Reconciler) Stop() {
	close(r.stopChan)
	<-r.doneChan
}

// ScanOnce scans all configured chains in parallel. Per-chain failures are
// logged and do not abort the other chains.
func (r *Reconciler) ScanOnce(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)

	for _, client := range r.clients {
		client := client
		g.Go(func() error {
			if err := r.scanChain(gctx, client); err != nil {
				zap.L().Error("Chain scan failed",
					zap.String("chain", client.Chain()),
					zap.Error(err))
			}
			return nil
		})
	}

	_ = g.Wait()
}

func chainSettingKeys(chain string) (walletKey, cursorKey string, err error) {
	switch chain {
	case models.ChainBEP20:
		return store.SettingBep20Wallet, store.SettingLastBep20Block, nil
	case models.ChainTRC20:
		return store.SettingTrc20Wallet, store.SettingLastTrc20Timestamp, nil
	default:
		return "", "", fmt.Errorf("unknown chain %q", chain)
	}
}

func (r *Reconciler) scanChain(ctx context.Context, client explorer.Client) error {
	chain := client.Chain()

	walletKey, cursorKey, err := chainSettingKeys(chain)
	if err != nil {
		return err
	}

	wallet, err := r.settings.GetSetting(ctx, walletKey)
	if err != nil {
		return fmt.Errorf("failed to load wallet address: %w", err)
	}
	if wallet == "" {
		zap.L().Debug("No platform wallet configured, skipping chain", zap.String("chain", chain))
		return nil
	}

	cursor, err := r.loadCursor(ctx, cursorKey)
	if err != nil {
		return err
	}

	transfers, newCursor, err := client.ListIncomingTransfers(ctx, wallet, cursor)
	if err != nil {
		return err
	}

	zap.L().Debug("Chain scan fetched transfers",
		zap.String("chain", chain),
		zap.Int64("cursor", cursor),
		zap.Int("count", len(transfers)))

	clean := true
	for _, transfer := range transfers {
		if err := r.processTransfer(ctx, transfer); err != nil {
			zap.L().Error("Failed to process transfer",
				zap.String("chain", chain),
				zap.String("tx_hash", transfer.TxHash),
				zap.Error(err))
			clean = false
		}
	}

	// Advance only after a clean pass so failed transfers are retried.
	if clean && newCursor > cursor {
		if err := r.settings.SetSetting(ctx, cursorKey, strconv.FormatInt(newCursor, 10)); err != nil {
			return fmt.Errorf("failed to advance cursor: %w", err)
		}
		zap.L().Info("Scan cursor advanced",
			zap.String("chain", chain),
			zap.Int64("from", cursor),
			zap.Int64("to", newCursor))
	}

	return nil
}

func (r *Reconciler) loadCursor(ctx context.Context, key string) (int64, error) {
	raw, err := r.settings.GetSetting(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to load cursor: %w", err)
	}
	if raw == "" {
		return 0, nil
	}
	cursor, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt cursor value %q: %w", raw, err)
	}
	return cursor, nil
}

// processTransfer matches one on-chain transfer against pending deposit
// claims. An unclaimed transfer is normal (the user may not have submitted
// yet); a claim that disagrees with the chain is flagged for admin review and
// left pending.
func (r *Reconciler) processTransfer(ctx context.Context, transfer models.TokenTransfer) error {
	deposit, err := r.store.FindPendingDepositByTxHash(ctx, transfer.TxHash)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if deposit.Chain != transfer.Chain {
		note := fmt.Sprintf("reconciler: chain mismatch, claimed %s but observed on %s (tx %s)",
			deposit.Chain, transfer.Chain, transfer.TxHash)
		return r.flagDeposit(ctx, deposit, note)
	}

	diff := deposit.Amount.Sub(transfer.Amount).Abs()
	if diff.GreaterThan(r.tolerance) {
		note := fmt.Sprintf("reconciler: amount mismatch, claimed %s but observed %s on chain",
			deposit.Amount, transfer.Amount)
		return r.flagDeposit(ctx, deposit, note)
	}

	confirmed, err := r.store.ConfirmDeposit(ctx, store.ConfirmDepositParams{
		DepositId:  deposit.Id,
		VerifiedBy: verifiedByReconciler,
		Notes:      fmt.Sprintf("matched on-chain transfer of %s at %s", transfer.Amount, transfer.Timestamp.Format(time.RFC3339)),
		ToAddress:  transfer.ToAddress,
	})
	if err != nil {
		// A concurrent admin confirmation is fine; everything else is not.
		if errors.Is(err, store.ErrInvalidStateTransition) {
			return nil
		}
		return err
	}

	zap.L().Info("Deposit auto-confirmed",
		zap.String("deposit_id", confirmed.Id),
		zap.String("user_id", confirmed.UserId),
		zap.String("chain", confirmed.Chain),
		zap.String("amount", confirmed.Amount.String()),
		zap.String("tx_hash", confirmed.TxHash))

	return nil
}

// flagDeposit appends an admin note once; repeated scans of the same
// unresolved mismatch stay quiet.
func (r *Reconciler) flagDeposit(ctx context.Context, deposit *models.Deposit, note string) error {
	if strings.Contains(deposit.AdminNotes, note) {
		return nil
	}

	zap.L().Warn("Deposit flagged for review",
		zap.String("deposit_id", deposit.Id),
		zap.String("note", note))

	return r.store.AppendDepositNote(ctx, deposit.Id, note)
}
