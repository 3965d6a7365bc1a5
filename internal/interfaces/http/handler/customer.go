package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinvoicing "github.com/invoicing/backend/internal/application/invoicing"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
)

// CustomerHandler handles customer-related API endpoints
type CustomerHandler struct {
	BaseHandler
	queries   *appinvoicing.QueryService
	customers *appinvoicing.CustomerService
	lifecycle *appinvoicing.LifecycleService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(queries *appinvoicing.QueryService, customers *appinvoicing.CustomerService, lifecycle *appinvoicing.LifecycleService) *CustomerHandler {
	return &CustomerHandler{
		queries:   queries,
		customers: customers,
		lifecycle: lifecycle,
	}
}

// CustomerTotalResponse is the lifetime invoiced amount of a customer
type CustomerTotalResponse struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Total      string    `json:"total"`
}

// CustomerPaidCountResponse is the number of paid invoices of a customer
type CustomerPaidCountResponse struct {
	CustomerID uuid.UUID `json:"customer_id"`
	PaidCount  int64     `json:"paid_count"`
}

// RegisterRoutes mounts the customer endpoints
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/customers")
	customers.GET("", h.List)
	customers.POST("", h.Create)
	customers.GET("/:id", h.Get)
	customers.PUT("/:id", h.Update)
	customers.DELETE("/:id", h.Delete)
	customers.GET("/:id/total", h.Total)
	customers.GET("/:id/paid-count", h.PaidCount)
	customers.GET("/:id/summary", h.Summary)
}

// List returns customers, optionally filtered by ?q=
func (h *CustomerHandler) List(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	customers, err := h.queries.ListCustomers(c.Request.Context(), h.Actor(c), req.Query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, customers, len(customers), h.queries.ListLimit())
}

// Get returns one customer
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := h.ParamID(c, "id", "customer")
	if !ok {
		return
	}
	customer, err := h.queries.GetCustomer(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Create registers a customer
func (h *CustomerHandler) Create(c *gin.Context) {
	var req appinvoicing.CustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := h.customers.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// Update replaces a customer's editable fields
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.ParamID(c, "id", "customer")
	if !ok {
		return
	}
	var req appinvoicing.CustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := h.customers.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Delete removes a customer that has no invoices
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id", "customer")
	if !ok {
		return
	}
	if err := h.lifecycle.DeleteCustomer(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Total returns the sum of every invoice of the customer
func (h *CustomerHandler) Total(c *gin.Context) {
	id, ok := h.ParamID(c, "id", "customer")
	if !ok {
		return
	}
	total, err := h.queries.CustomerTotal(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CustomerTotalResponse{CustomerID: id, Total: total.StringFixed(appinvoicing.MoneyPlaces)})
}

// PaidCount returns how many invoices of the customer are paid
func (h *CustomerHandler) PaidCount(c *gin.Context) {
	id, ok := h.ParamID(c, "id", "customer")
	if !ok {
		return
	}
	count, err := h.queries.CustomerPaidCount(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CustomerPaidCountResponse{CustomerID: id, PaidCount: count})
}

// Summary returns the invoice counts and amount of the customer
func (h *CustomerHandler) Summary(c *gin.Context) {
	id, ok := h.ParamID(c, "id", "customer")
	if !ok {
		return
	}
	summary, err := h.queries.CustomerSummary(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
