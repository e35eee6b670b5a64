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

package ledger

import (
	"context"
	"time"

	"invest-settlement-go/internal/models"
	"invest-settlement-go/internal/store"
)

// Service applies the settlement business rules on top of the store:
// request validation, withdrawal limits, KYC gating and investment tier
// resolution. All balance arithmetic stays inside the store's transactions.
type Service struct {
	store      store.SettlementStore
	settings   store.SettingsStore
	withdrawal models.WithdrawalConfig

	// now is swapped out in tests to pin profit dates.
	now func() time.Time
}

func NewService(st store.SettlementStore, settings store.SettingsStore, withdrawal models.WithdrawalConfig) *Service {
	return &Service{
		store:      st,
		settings:   settings,
		withdrawal: withdrawal,
		now:        time.Now,
	}
}

// GetAccount returns the caller's balances, zero-valued when the user has
// never transacted.
func (s *Service) GetAccount(ctx context.Context, userId string) (*models.Account, error) {
	return s.store.GetAccount(ctx, userId)
}

func (s *Service) ListLedgerEntries(ctx context.Context, userId string, limit, offset int) ([]models.LedgerEntry, error) {
	return s.store.ListLedgerEntries(ctx, userId, limit, offset)
}
