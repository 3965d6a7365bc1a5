package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinvoicing "github.com/invoicing/backend/internal/application/invoicing"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
)

// InvoiceHandler handles invoice and article endpoints
type InvoiceHandler struct {
	BaseHandler
	queries   *appinvoicing.QueryService
	lifecycle *appinvoicing.LifecycleService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(queries *appinvoicing.QueryService, lifecycle *appinvoicing.LifecycleService) *InvoiceHandler {
	return &InvoiceHandler{
		queries:   queries,
		lifecycle: lifecycle,
	}
}

// InvoiceTotalResponse is the derived total of one invoice
type InvoiceTotalResponse struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	Total     string    `json:"total"`
}

// RegisterRoutes mounts the invoice and article endpoints
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	invoices.GET("", h.List)
	invoices.POST("", h.Create)
	invoices.POST("/paid-status", h.SetPaidStatus)
	invoices.GET("/:id", h.Get)
	invoices.PATCH("/:id", h.UpdateComments)
	invoices.DELETE("/:id", h.Delete)
	invoices.POST("/:id/paid", h.MarkPaid)
	invoices.POST("/:id/unpaid", h.MarkUnpaid)
	invoices.GET("/:id/total", h.Total)
	invoices.POST("/:id/articles", h.AddArticle)

	rg.DELETE("/articles/:id", h.RemoveArticle)
}

// List returns the newest invoices first, optionally filtered by ?q=
func (h *InvoiceHandler) List(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	invoices, err := h.queries.ListInvoices(c.Request.Context(), h.Actor(c), req.Query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, invoices, len(invoices), h.queries.ListLimit())
}

// Get returns an invoice with its articles
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := h.ParamID(c, "id", "invoice")
	if !ok {
		return
	}
	invoice, err := h.queries.GetInvoice(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Create stores an invoice and its articles in one transaction
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req appinvoicing.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	invoice, err := h.lifecycle.CreateInvoice(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// UpdateComments replaces the free-text comments of an invoice
func (h *InvoiceHandler) UpdateComments(c *gin.Context) {
	id, ok := h.ParamID(c, "id", "invoice")
	if !ok {
		return
	}
	var req appinvoicing.UpdateCommentsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	invoice, err := h.lifecycle.UpdateComments(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Delete removes an invoice together with its articles
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id", "invoice")
	if !ok {
		return
	}
	if err := h.lifecycle.DeleteInvoice(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// MarkPaid flags one invoice as paid
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	h.setPaid(c, true)
}

// MarkUnpaid flags one invoice as unpaid
func (h *InvoiceHandler) MarkUnpaid(c *gin.Context) {
	h.setPaid(c, false)
}

func (h *InvoiceHandler) setPaid(c *gin.Context, paid bool) {
	id, ok := h.ParamID(c, "id", "invoice")
	if !ok {
		return
	}
	var (
		invoice *appinvoicing.InvoiceDetailResponse
		err     error
	)
	if paid {
		invoice, err = h.lifecycle.MarkPaid(c.Request.Context(), h.Actor(c), id)
	} else {
		invoice, err = h.lifecycle.MarkUnpaid(c.Request.Context(), h.Actor(c), id)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// SetPaidStatus changes the paid flag of every listed invoice the caller
// owns and reports how many were updated
func (h *InvoiceHandler) SetPaidStatus(c *gin.Context) {
	var req appinvoicing.SetPaidStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	updated, err := h.lifecycle.SetPaidStatus(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appinvoicing.SetPaidStatusResponse{Updated: updated})
}

// Total returns the invoice total derived from its articles
func (h *InvoiceHandler) Total(c *gin.Context) {
	id, ok := h.ParamID(c, "id", "invoice")
	if !ok {
		return
	}
	total, err := h.queries.InvoiceTotal(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, InvoiceTotalResponse{InvoiceID: id, Total: total.StringFixed(appinvoicing.MoneyPlaces)})
}

// AddArticle appends a line to an invoice
func (h *InvoiceHandler) AddArticle(c *gin.Context) {
	id, ok := h.ParamID(c, "id", "invoice")
	if !ok {
		return
	}
	var req appinvoicing.ArticleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	article, err := h.lifecycle.AddArticle(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, article)
}

// RemoveArticle deletes one invoice line
func (h *InvoiceHandler) RemoveArticle(c *gin.Context) {
	id, ok := h.ParamID(c, "id", "article")
	if !ok {
		return
	}
	if err := h.lifecycle.RemoveArticle(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
