package dto

import "github.com/shopspring/decimal"

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	Type string `json:"type" binding:"omitempty,oneof=PERSONAL BUSINESS"`
}

// CreateTransactionRequest is the request body for a transfer.
// ToWalletNumber is a wallet number for internal transfers and a
// provider-specific address for external ones.
type CreateTransactionRequest struct {
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	Description      string          `json:"description" binding:"max=255"`
	Type             string          `json:"type" binding:"required,oneof=INTERNAL EXTERNAL"`
	ToWalletNumber   string          `json:"to_wallet_number" binding:"required,max=64"`
	ExternalProvider *string         `json:"external_provider,omitempty" binding:"omitempty,safe_id"`
}

// WalletResponse is the wallet representation returned to clients.
// Balance is a decimal string to avoid float rounding on the wire.
type WalletResponse struct {
	ID           string `json:"id"`
	WalletNumber string `json:"wallet_number"`
	Balance      string `json:"balance"`
	Type         string `json:"type"`
	IsActive     bool   `json:"is_active"`
	UserID       string `json:"user_id"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// TransactionResponse is the ledger entry representation returned to clients.
type TransactionResponse struct {
	ID                string  `json:"id"`
	Amount            string  `json:"amount"`
	Description       string  `json:"description,omitempty"`
	Type              string  `json:"type"`
	Status            string  `json:"status"`
	TransactionHash   string  `json:"transaction_hash"`
	FromUserID        string  `json:"from_user_id"`
	FromWalletID      string  `json:"from_wallet_id"`
	ToUserID          *string `json:"to_user_id,omitempty"`
	ToWalletID        *string `json:"to_wallet_id,omitempty"`
	ExternalProvider  *string `json:"external_provider,omitempty"`
	ExternalReference *string `json:"external_reference,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int                   `json:"total_pages"`
}
