package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet lifecycle endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Create handles POST /api/v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidIdentifier("User ID"))
		return
	}

	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	wallet, err := h.walletSvc.CreateWallet(c.Request.Context(), userID, domain.WalletType(req.Type))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toWalletResponse(*wallet))
}

// List handles GET /api/v1/wallets — the caller's active wallets.
func (h *WalletHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidIdentifier("User ID"))
		return
	}

	wallets, err := h.walletSvc.FindActiveByUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WalletResponse, 0, len(wallets))
	for _, w := range wallets {
		items = append(items, toWalletResponse(w))
	}
	response.OK(c, items)
}

// Deactivate handles DELETE /api/v1/wallets/:id. Only the owner can
// deactivate a wallet; non-owned wallets read as absent.
func (h *WalletHandler) Deactivate(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidIdentifier("User ID"))
		return
	}

	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrInvalidIdentifier("Wallet ID"))
		return
	}

	wallet, err := h.walletSvc.FindByID(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if wallet == nil || wallet.UserID != userID {
		response.Error(c, apperror.ErrNotFound("Wallet"))
		return
	}

	if err := h.walletSvc.Deactivate(c.Request.Context(), walletID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"deactivated": true})
}
