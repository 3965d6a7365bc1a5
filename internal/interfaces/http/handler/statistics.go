package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	appinvoicing "github.com/invoicing/backend/internal/application/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
)

const dateLayout = "2006-01-02"

// StatisticsHandler serves the invoice statistics
type StatisticsHandler struct {
	BaseHandler
	queries *appinvoicing.QueryService
}

// NewStatisticsHandler creates a new StatisticsHandler
func NewStatisticsHandler(queries *appinvoicing.QueryService) *StatisticsHandler {
	return &StatisticsHandler{queries: queries}
}

// RegisterRoutes mounts the statistics endpoints
func (h *StatisticsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/statistics/invoices", h.Invoices)
}

// Invoices summarizes the invoices created between ?start= and ?end=, both
// inclusive. A date-only end covers that whole day.
func (h *StatisticsHandler) Invoices(c *gin.Context) {
	var req dto.StatisticsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var violations []shared.FieldViolation
	start, err := parseBound(req.Start, false)
	if err != nil {
		violations = append(violations, shared.FieldViolation{Field: "start", Message: "Must be a date (YYYY-MM-DD) or an RFC 3339 timestamp"})
	}
	end, err := parseBound(req.End, true)
	if err != nil {
		violations = append(violations, shared.FieldViolation{Field: "end", Message: "Must be a date (YYYY-MM-DD) or an RFC 3339 timestamp"})
	}
	if len(violations) > 0 {
		h.HandleError(c, shared.NewValidationError(violations...))
		return
	}

	stats, err := h.queries.InvoiceStatistics(c.Request.Context(), h.Actor(c), appinvoicing.StatisticsFilter{Start: start, End: end})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// parseBound parses an optional range bound in UTC. A date-only end bound is
// moved to the last microsecond of that day.
func parseBound(raw string, end bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	if end {
		t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
	}
	return &t, nil
}
