package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/buildlink/crm-api/internal/models"
	"github.com/buildlink/crm-api/internal/service"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
	"github.com/buildlink/crm-api/pkg/response"
)

// QuoteHandler exposes quote CRUD and workflow endpoints.
type QuoteHandler struct {
	quotes  *service.QuoteService
	exports *service.ExportService
}

// NewQuoteHandler constructs QuoteHandler.
func NewQuoteHandler(quotes *service.QuoteService, exports *service.ExportService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, exports: exports}
}

// List godoc
// @Summary List quotes visible to the caller
// @Tags Quotes
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param supplierId query string false "Filter by supplier"
// @Param dealId query string false "Filter by deal"
// @Param search query string false "Search by number or title"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /quotes [get]
func (h *QuoteHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.QuoteFilter
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := models.QuoteStatus(strings.ToUpper(strings.TrimSpace(part)))
			if status != "" {
				filter.Status = append(filter.Status, status)
			}
		}
	}
	filter.SupplierID = c.Query("supplierId")
	filter.DealID = c.Query("dealId")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	quotes, pagination, err := h.quotes.List(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quotes, pagination)
}

// Get godoc
// @Summary Get quote detail with the caller's allowed actions
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} response.Envelope
// @Router /quotes/{id} [get]
func (h *QuoteHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	quote, err := h.quotes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{
		"allowed_actions": h.quotes.AllowedActions(claims, quote),
	}
	response.JSON(c, http.StatusOK, quote, nil, meta)
}

// Create godoc
// @Summary Create draft quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Param payload body service.CreateQuoteRequest true "Quote payload"
// @Success 201 {object} response.Envelope
// @Router /quotes [post]
func (h *QuoteHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	quote, err := h.quotes.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, quote)
}

// Update godoc
// @Summary Update a draft quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param payload body service.UpdateQuoteRequest true "Quote payload"
// @Success 200 {object} response.Envelope
// @Router /quotes/{id} [put]
func (h *QuoteHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	quote, err := h.quotes.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quote, nil)
}

// Delete godoc
// @Summary Delete quote
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 204
// @Router /quotes/{id} [delete]
func (h *QuoteHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.quotes.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Transition godoc
// @Summary Apply a workflow action to a quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param payload body service.TransitionQuoteRequest false "Optional note"
// @Success 200 {object} response.Envelope
// @Router /quotes/{id}/submit [post]
func (h *QuoteHandler) Transition(action models.QuoteAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}

		var req service.TransitionQuoteRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
				return
			}
		}

		quote, err := h.quotes.ApplyTransition(c.Request.Context(), claims, c.Param("id"), action, req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, quote, nil)
	}
}

// ExportPDF godoc
// @Summary Render quote as PDF
// @Tags Quotes
// @Produce application/pdf
// @Param id path string true "Quote ID"
// @Success 200 {string} string
// @Router /exports/quotes/{id} [get]
func (h *QuoteHandler) ExportPDF(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	payload, filename, err := h.exports.QuotePDF(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", payload)
}
