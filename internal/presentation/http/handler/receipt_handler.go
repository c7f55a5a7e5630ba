package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/application/service"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-pos/pkg/pagination"
)

// ReceiptHandler serves committed receipts
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// List handles listing receipts newest first
func (h *ReceiptHandler) List(c *gin.Context) {
	var filter request.ReceiptFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &repository.ReceiptFilterParams{
		Pagination: &pagination.PaginationParams{Page: filter.Page, PerPage: filter.PerPage},
	}
	if filter.CashierID != "" {
		id := uuid.MustParse(filter.CashierID)
		params.CashierID = &id
	}
	if filter.CustomerID != "" {
		id := uuid.MustParse(filter.CustomerID)
		params.CustomerID = &id
	}

	result, err := h.receiptService.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Receipts retrieved successfully", result)
}

// Get handles getting a single receipt
func (h *ReceiptHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	receipt, err := h.receiptService.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Receipt retrieved successfully", receipt)
}

// GetByNumber looks a receipt up by the number printed on it
func (h *ReceiptHandler) GetByNumber(c *gin.Context) {
	receipt, err := h.receiptService.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Receipt retrieved successfully", receipt)
}
