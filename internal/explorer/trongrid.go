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

	"invest-settlement-go/internal/models"
	"invest-settlement-go/internal/store"

	"go.uber.org/zap"
)

// TronGridClient reads TRC20 token transfers from the TronGrid API.
type TronGridClient struct {
	baseURL       string
	apiKey        string
	tokenContract string
	httpClient    *http.Client
}

func NewTronGridClient(cfg models.ExplorerConfig) *TronGridClient {
	return &TronGridClient{
		baseURL:       cfg.TronGridBaseURL,
		apiKey:        cfg.TronGridAPIKey,
		tokenContract: cfg.UsdtTrc20Token,
		httpClient:    newHTTPClient(cfg.RequestTimeout),
	}
}

func (c *TronGridClient) Chain() string {
	return models.ChainTRC20
}

type tronGridResponse struct {
	Success bool               `json:"success"`
	Error   string             `json:"error"`
	Data    []tronGridTransfer `json:"data"`
}

type tronGridTransfer struct {
	TransactionId  string            `json:"transaction_id"`
	TokenInfo      tronGridTokenInfo `json:"token_info"`
	BlockTimestamp int64             `json:"block_timestamp"`
	From           string            `json:"from"`
	To             string            `json:"to"`
	Type           string            `json:"type"`
	Value          string            `json:"value"`
}

type tronGridTokenInfo struct {
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
}

// ListIncomingTransfers queries the account trc20 endpoint for transfers to
// the platform wallet after the given millisecond-timestamp cursor.
func (c *TronGridClient) ListIncomingTransfers(ctx context.Context, walletAddress string, sinceCursor int64) ([]models.TokenTransfer, int64, error) {
	params := url.Values{}
	params.Set("contract_address", c.tokenContract)
	params.Set("min_timestamp", strconv.FormatInt(sinceCursor+1, 10))
	params.Set("only_to", "true")
	params.Set("limit", "200")

	endpoint := fmt.Sprintf("%s/v1/accounts/%s/transactions/trc20?%s",
		strings.TrimRight(c.baseURL, "/"), url.PathEscape(walletAddress), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, sinceCursor, fmt.Errorf("%w: building trongrid request: %v", store.ErrExternalService, err)
	}
	if c.apiKey != "" {
		req.Header.Set("TRON-PRO-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, sinceCursor, fmt.Errorf("%w: trongrid request failed: %v", store.ErrExternalService, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, sinceCursor, fmt.Errorf("%w: trongrid returned HTTP %d", store.ErrExternalService, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, sinceCursor, fmt.Errorf("%w: reading trongrid response: %v", store.ErrExternalService, err)
	}

	var envelope tronGridResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, sinceCursor, fmt.Errorf("%w: malformed trongrid response: %v", store.ErrExternalService, err)
	}
	if !envelope.Success {
		return nil, sinceCursor, fmt.Errorf("%w: trongrid error: %s", store.ErrExternalService, envelope.Error)
	}

	maxCursor := sinceCursor
	transfers := make([]models.TokenTransfer, 0, len(envelope.Data))

	for _, tx := range envelope.Data {
		// Every returned record is past the cursor, so advance over it even
		// when it is filtered out below. Otherwise an approval record at the
		// tip would be refetched forever.
		if tx.BlockTimestamp > maxCursor {
			maxCursor = tx.BlockTimestamp
		}

		// The endpoint also reports approvals and outgoing transfers when
		// filters are loose; keep only inbound transfers of the configured
		// token.
		if tx.Type != "" && !strings.EqualFold(tx.Type, "Transfer") {
			continue
		}
		if !strings.EqualFold(tx.To, walletAddress) {
			continue
		}
		if !strings.EqualFold(tx.TokenInfo.Address, c.tokenContract) {
			continue
		}

		amount, ok := parseTokenValue(tx.Value, strconv.Itoa(tx.TokenInfo.Decimals))
		if !ok {
			zap.L().Warn("Skipping transfer with malformed value",
				zap.String("tx_hash", tx.TransactionId),
				zap.String("value", tx.Value),
				zap.Int("decimals", tx.TokenInfo.Decimals))
			continue
		}

		transfers = append(transfers, models.TokenTransfer{
			TxHash:      tx.TransactionId,
			Chain:       models.ChainTRC20,
			FromAddress: tx.From,
			ToAddress:   tx.To,
			Amount:      amount,
			Block:       tx.BlockTimestamp,
			Timestamp:   millisToTime(tx.BlockTimestamp),
		})
	}

	return transfers, maxCursor, nil
}
