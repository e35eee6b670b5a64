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

package explorer

import (
	"context"
	"net/http"
	"time"

	"invest-settlement-go/internal/models"
)

// Client lists incoming stablecoin transfers to a platform wallet since a
// cursor. The cursor is chain-specific: a block number for BEP20, a
// millisecond timestamp for TRC20. Implementations must treat the explorer
// response as untrusted input and drop malformed records instead of failing
// the whole scan.
type Client interface {
	Chain() string
	// ListIncomingTransfers returns transfers strictly after sinceCursor and
	// the highest cursor value observed (sinceCursor when nothing new).
	ListIncomingTransfers(ctx context.Context, walletAddress string, sinceCursor int64) ([]models.TokenTransfer, int64, error)
}

func millisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
