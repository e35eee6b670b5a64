package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"invest-settlement-go/internal/models"
	"invest-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BscScanClient reads BEP20 token transfers from a BscScan-style explorer.
type BscScanClient struct {
	baseURL       string
	apiKey        string
	tokenContract string
	httpClient    *http.Client
}

func NewBscScanClient(cfg models.ExplorerConfig) *BscScanClient {
	return &BscScanClient{
		baseURL:       cfg.BscScanBaseURL,
		apiKey:        cfg.BscScanAPIKey,
		tokenContract: cfg.UsdtBep20Token,
		httpClient:    newHTTPClient(cfg.RequestTimeout),
	}
}

func (c *BscScanClient) Chain() string {
	return models.ChainBEP20
}

type bscScanResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type bscScanTokenTx struct {
	BlockNumber  string `json:"blockNumber"`
	TimeStamp    string `json:"timeStamp"`
	Hash         string `json:"hash"`
	From         string `json:"from"`
	To           string `json:"to"`
	Value        string `json:"value"`
	TokenDecimal string `json:"tokenDecimal"`
}

// ListIncomingTransfers queries the tokentx endpoint for transfers to the
// platform wallet after the given block cursor.
func (c *BscScanClient) ListIncomingTransfers(ctx context.Context, walletAddress string, sinceCursor int64) ([]models.TokenTransfer, int64, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "tokentx")
	params.Set("contractaddress", c.tokenContract)
	params.Set("address", walletAddress)
	params.Set("startblock", strconv.FormatInt(sinceCursor+1, 10))
	params.Set("endblock", "999999999")
	params.Set("sort", "asc")
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, sinceCursor, fmt.Errorf("%w: building bscscan request: %v", store.ErrExternalService, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, sinceCursor, fmt.Errorf("%w: bscscan request failed: %v", store.ErrExternalService, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, sinceCursor, fmt.Errorf("%w: bscscan returned HTTP %d", store.ErrExternalService, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, sinceCursor, fmt.Errorf("%w: reading bscscan response: %v", store.ErrExternalService, err)
	}

	var envelope bscScanResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, sinceCursor, fmt.Errorf("%w: malformed bscscan response: %v", store.ErrExternalService, err)
	}

	// BscScan reports "no transactions found" as status 0 with an empty
	// result; that is a normal empty scan, not an error.
	if envelope.Status != "1" {
		if strings.Contains(strings.ToLower(envelope.Message), "no transactions") {
			return nil, sinceCursor, nil
		}
		return nil, sinceCursor, fmt.Errorf("%w: bscscan error: %s", store.ErrExternalService, envelope.Message)
	}

	var txs []bscScanTokenTx
	if err := json.Unmarshal(envelope.Result, &txs); err != nil {
		return nil, sinceCursor, fmt.Errorf("%w: malformed bscscan result: %v", store.ErrExternalService, err)
	}

	wallet := strings.ToLower(walletAddress)
	maxCursor := sinceCursor
	transfers := make([]models.TokenTransfer, 0, len(txs))

	for _, tx := range txs {
		if strings.ToLower(tx.To) != wallet {
			continue
		}

		block, err := strconv.ParseInt(tx.BlockNumber, 10, 64)
		if err != nil {
			zap.L().Warn("Skipping transfer with malformed block number",
				zap.String("tx_hash", tx.Hash),
				zap.String("block_number", tx.BlockNumber))
			continue
		}
		amount, ok := parseTokenValue(tx.Value, tx.TokenDecimal)
		if !ok {
			zap.L().Warn("Skipping transfer with malformed value",
				zap.String("tx_hash", tx.Hash),
				zap.String("value", tx.Value),
				zap.String("token_decimal", tx.TokenDecimal))
			continue
		}

		var ts time.Time
		if unix, err := strconv.ParseInt(tx.TimeStamp, 10, 64); err == nil {
			ts = time.Unix(unix, 0).UTC()
		}

		transfers = append(transfers, models.TokenTransfer{
			TxHash:      tx.Hash,
			Chain:       models.ChainBEP20,
			FromAddress: tx.From,
			ToAddress:   tx.To,
			Amount:      amount,
			Block:       block,
			Timestamp:   ts,
		})
		if block > maxCursor {
			maxCursor = block
		}
	}

	return transfers, maxCursor, nil
}

// parseTokenValue converts a raw integer token value and its decimal count
// into a human amount. Both inputs come from the explorer and are untrusted.
func parseTokenValue(value, tokenDecimal string) (decimal.Decimal, bool) {
	raw, err := decimal.NewFromString(value)
	if err != nil || raw.IsNegative() {
		return decimal.Zero, false
	}
	decimals, err := strconv.Atoi(tokenDecimal)
	if err != nil || decimals < 0 || decimals > 36 {
		return decimal.Zero, false
	}
	return raw.Shift(int32(-decimals)), true
}
