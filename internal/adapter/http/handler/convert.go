package handler

import (
	"time"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
)

func toWalletResponse(w domain.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		ID:           w.ID.String(),
		WalletNumber: w.WalletNumber,
		Balance:      w.Balance.String(),
		Type:         string(w.Type),
		IsActive:     w.IsActive,
		UserID:       w.UserID.String(),
		CreatedAt:    w.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    w.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransactionResponse(txn domain.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:                txn.ID.String(),
		Amount:            txn.Amount.String(),
		Description:       txn.Description,
		Type:              string(txn.Type),
		Status:            string(txn.Status),
		TransactionHash:   txn.TransactionHash,
		FromUserID:        txn.FromUserID.String(),
		FromWalletID:      txn.FromWalletID.String(),
		ToUserID:          uuidPtrString(txn.ToUserID),
		ToWalletID:        uuidPtrString(txn.ToWalletID),
		ExternalProvider:  txn.ExternalProvider,
		ExternalReference: txn.ExternalReference,
		CreatedAt:         txn.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransactionListResponse(page *ports.TransactionPage) dto.TransactionListResponse {
	items := make([]dto.TransactionResponse, 0, len(page.Data))
	for _, txn := range page.Data {
		items = append(items, toTransactionResponse(txn))
	}
	return dto.TransactionListResponse{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
