package models

// Request payloads for the HTTP API. Amounts travel as strings and are
// parsed into decimals at the boundary so no float64 ever touches money.

type SubmitDepositRequest struct {
	Amount        string `json:"amount" binding:"required"`
	Chain         string `json:"chain" binding:"required"`
	TxHash        string `json:"tx_hash" binding:"required"`
	WalletAddress string `json:"wallet_address"`
}

type ConfirmDepositRequest struct {
	Notes string `json:"notes"`
}

type RejectDepositRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type RequestWithdrawalRequest struct {
	Amount        string `json:"amount" binding:"required"`
	Chain         string `json:"chain" binding:"required"`
	WalletAddress string `json:"wallet_address" binding:"required"`
}

type ApproveWithdrawalRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
	Notes  string `json:"notes"`
}

type RejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type CreateInvestmentRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
