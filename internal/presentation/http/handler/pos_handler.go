package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/application/service"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-pos/pkg/pagination"
)

// POSHandler handles the checkout flow of a till
type POSHandler struct {
	sessions  *service.SessionService
	inventory *service.InventoryService
	printer   *service.PrinterService
}

// NewPOSHandler creates a new POS handler. printerService may be nil.
func NewPOSHandler(sessions *service.SessionService, inventory *service.InventoryService, printerService *service.PrinterService) *POSHandler {
	return &POSHandler{sessions: sessions, inventory: inventory, printer: printerService}
}

// ListProducts lists the sellable catalog. Stock shown here is informational only.
func (h *POSHandler) ListProducts(c *gin.Context) {
	var filter request.ProductFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.inventory.ListProducts(c.Request.Context(), &repository.ProductFilterParams{
		Pagination: &pagination.PaginationParams{Page: filter.Page, PerPage: filter.PerPage},
		Search:     filter.Search,
		LowStock:   filter.LowStock,
		InStock:    filter.InStock,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Products retrieved successfully", result)
}

// GetProduct handles getting a single product
func (h *POSHandler) GetProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	product, err := h.inventory.GetProduct(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Product retrieved successfully", product)
}

// SearchCustomers looks up customers by name or phone
func (h *POSHandler) SearchCustomers(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		response.BadRequest(c, "Invalid limit")
		return
	}
	customers, err := h.inventory.SearchCustomers(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Customers retrieved successfully", customers)
}

// GetCustomer handles getting a single customer
func (h *POSHandler) GetCustomer(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	customer, err := h.inventory.GetCustomer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Customer retrieved successfully", customer)
}

// OpenSession starts a new sale
func (h *POSHandler) OpenSession(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	res, err := h.sessions.Open(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Checkout session opened", response.NewSessionResponse(res))
}

// GetSession returns the sale in progress
func (h *POSHandler) GetSession(c *gin.Context) {
	h.run(c, "Checkout session retrieved", func(a service.Actor, id uuid.UUID) (*service.SessionResult, error) {
		return h.sessions.Get(c.Request.Context(), a, id)
	})
}

// CloseSession discards the sale and removes the flow
func (h *POSHandler) CloseSession(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.sessions.Close(c.Request.Context(), a, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CancelSale discards the sale but keeps the flow open
func (h *POSHandler) CancelSale(c *gin.Context) {
	h.run(c, "Sale canceled", func(a service.Actor, id uuid.UUID) (*service.SessionResult, error) {
		return h.sessions.Cancel(c.Request.Context(), a, id)
	})
}

// AddLine adds a product to the cart
func (h *POSHandler) AddLine(c *gin.Context) {
	var req request.AddLineRequest
	if !bindJSON(c, &req) {
		return
	}
	h.run(c, "Item added", func(a service.Actor, id uuid.UUID) (*service.SessionResult, error) {
		return h.sessions.AddLine(c.Request.Context(), a, id, req.ProductID, req.Quantity)
	})
}

// SetQuantity changes the quantity of a cart line
func (h *POSHandler) SetQuantity(c *gin.Context) {
	itemID, ok := uuidParam(c, "item_id")
	if !ok {
		return
	}
	var req request.SetQuantityRequest
	if !bindJSON(c, &req) {
		return
	}
	h.run(c, "Quantity updated", func(a service.Actor, id uuid.UUID) (*service.SessionResult, error) {
		return h.sessions.SetQuantity(c.Request.Context(), a, id, itemID, *req.Quantity)
	})
}

// RemoveLine removes a cart line
func (h *POSHandler) RemoveLine(c *gin.Context) {
	itemID, ok := uuidParam(c, "item_id")
	if !ok {
		return
	}
	h.run(c, "Item removed", func(a service.Actor, id uuid.UUID) (*service.SessionResult, error) {
		return h.sessions.RemoveLine(c.Request.Context(), a, id, itemID)
	})
}

// ClearLines empties the cart
func (h *POSHandler) ClearLines(c *gin.Context) {
	h.run(c, "Cart cleared", func(a service.Actor, id uuid.UUID) (*service.SessionResult, error) {
		return h.sessions.Clear(c.Request.Context(), a, id)
	})
}

// SetCustomer attaches a customer or makes the sale a walk-in
func (h *POSHandler) SetCustomer(c *gin.Context) {
	var req request.SetCustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	h.run(c, "Customer updated", func(a service.Actor, id uuid.UUID) (*service.SessionResult, error) {
		return h.sessions.SetCustomer(c.Request.Context(), a, id, req.CustomerID)
	})
}

// SetPaymentMethod selects the tender
func (h *POSHandler) SetPaymentMethod(c *gin.Context) {
	var req request.SetPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	h.run(c, "Payment method updated", func(a service.Actor, id uuid.UUID) (*service.SessionResult, error) {
		return h.sessions.SetPaymentMethod(c.Request.Context(), a, id, enum.PaymentMethod(req.PaymentMethod))
	})
}

// SetDiscount sets the discount amount
func (h *POSHandler) SetDiscount(c *gin.Context) {
	var req request.SetDiscountRequest
	if !bindJSON(c, &req) {
		return
	}
	h.run(c, "Discount updated", func(a service.Actor, id uuid.UUID) (*service.SessionResult, error) {
		return h.sessions.SetDiscount(c.Request.Context(), a, id, req.Amount)
	})
}

// SetTaxRate sets the tax rate
func (h *POSHandler) SetTaxRate(c *gin.Context) {
	var req request.SetTaxRateRequest
	if !bindJSON(c, &req) {
		return
	}
	h.run(c, "Tax rate updated", func(a service.Actor, id uuid.UUID) (*service.SessionResult, error) {
		return h.sessions.SetTaxRate(c.Request.Context(), a, id, req.Percent)
	})
}

// SetNotes replaces the sale notes
func (h *POSHandler) SetNotes(c *gin.Context) {
	var req request.SetNotesRequest
	if !bindJSON(c, &req) {
		return
	}
	h.run(c, "Notes updated", func(a service.Actor, id uuid.UUID) (*service.SessionResult, error) {
		return h.sessions.SetNotes(c.Request.Context(), a, id, req.Notes)
	})
}

// Navigate moves the flow to a step. A redirect is a normal 200 response
// whose transition names the step the guard chose instead.
func (h *POSHandler) Navigate(c *gin.Context) {
	step := enum.CheckoutStep(c.Param("step"))
	h.run(c, "Checkout step resolved", func(a service.Actor, id uuid.UUID) (*service.SessionResult, error) {
		return h.sessions.Navigate(c.Request.Context(), a, id, step)
	})
}

// Commit finalizes the sale and optionally prints the receipt
func (h *POSHandler) Commit(c *gin.Context) {
	var req request.CommitRequest
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req) {
			return
		}
	}

	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	res, err := h.sessions.Commit(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if req.Print && h.printer != nil {
		h.printer.PrintSale(c.Request.Context(), res.Outcome.Receipt)
	}

	message := "Sale committed"
	if res.Outcome.Simulated {
		message = "Sale simulated locally, nothing was persisted"
	}
	response.Created(c, message, response.NewSessionResponse(res))
}

// run resolves the actor and session id and writes the session result
func (h *POSHandler) run(c *gin.Context, message string, fn func(a service.Actor, id uuid.UUID) (*service.SessionResult, error)) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	res, err := fn(a, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, message, response.NewSessionResponse(res))
}
