package handler

import (
	"strconv"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles transfer and ledger endpoints.
type TransactionHandler struct {
	transferSvc ports.TransferService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transferSvc ports.TransferService) *TransactionHandler {
	return &TransactionHandler{transferSvc: transferSvc}
}

// Create handles POST /api/v1/transactions.
func (h *TransactionHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidIdentifier("User ID"))
		return
	}

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	txn, err := h.transferSvc.CreateTransaction(c.Request.Context(), userID, ports.CreateTransactionRequest{
		Amount:           req.Amount,
		Description:      req.Description,
		Type:             domain.TransactionType(req.Type),
		ToWalletNumber:   req.ToWalletNumber,
		ExternalProvider: req.ExternalProvider,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(*txn))
}

// List handles GET /api/v1/transactions — the caller's paginated history.
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidIdentifier("User ID"))
		return
	}

	page, limit := pageParams(c)

	result, err := h.transferSvc.FindUserTransactions(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransactionListResponse(result))
}

// Recent handles GET /api/v1/transactions/recent — the caller's five
// newest transactions.
func (h *TransactionHandler) Recent(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidIdentifier("User ID"))
		return
	}

	txns, err := h.transferSvc.GetRecentTransactions(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		items = append(items, toTransactionResponse(txn))
	}
	response.OK(c, items)
}

// GetByID handles GET /api/v1/transactions/:id.
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrInvalidIdentifier("Transaction ID"))
		return
	}

	txn, err := h.transferSvc.FindByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransactionResponse(*txn))
}

// ListAll handles GET /api/v1/admin/transactions — the unfiltered
// administrative listing.
func (h *TransactionHandler) ListAll(c *gin.Context) {
	page, limit := pageParams(c)

	result, err := h.transferSvc.FindAll(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransactionListResponse(result))
}

// pageParams reads page/limit query parameters. Out-of-range values are
// normalized by the service, so parsing is lenient here.
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return page, limit
}
