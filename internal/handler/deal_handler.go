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

// DealHandler exposes deal pipeline endpoints.
type DealHandler struct {
	deals *service.DealService
}

// NewDealHandler constructs DealHandler.
func NewDealHandler(deals *service.DealService) *DealHandler {
	return &DealHandler{deals: deals}
}

// List godoc
// @Summary List deals
// @Tags Deals
// @Produce json
// @Param stage query string false "Comma separated stages"
// @Param supplierId query string false "Filter by supplier"
// @Param ownerId query string false "Filter by owner"
// @Param search query string false "Search by title"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /deals [get]
func (h *DealHandler) List(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.DealFilter
	if raw := c.Query("stage"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			stage := models.DealStage(strings.ToUpper(strings.TrimSpace(part)))
			if stage != "" {
				filter.Stage = append(filter.Stage, stage)
			}
		}
	}
	filter.SupplierID = c.Query("supplierId")
	filter.OwnerID = c.Query("ownerId")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	deals, pagination, err := h.deals.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deals, pagination)
}

// Get godoc
// @Summary Get deal by ID
// @Tags Deals
// @Produce json
// @Param id path string true "Deal ID"
// @Success 200 {object} response.Envelope
// @Router /deals/{id} [get]
func (h *DealHandler) Get(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	deal, err := h.deals.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deal, nil)
}

// Create godoc
// @Summary Create deal
// @Tags Deals
// @Accept json
// @Produce json
// @Param payload body service.CreateDealRequest true "Deal payload"
// @Success 201 {object} response.Envelope
// @Router /deals [post]
func (h *DealHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	deal, err := h.deals.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, deal)
}

// Update godoc
// @Summary Update deal
// @Tags Deals
// @Accept json
// @Produce json
// @Param id path string true "Deal ID"
// @Param payload body service.UpdateDealRequest true "Deal payload"
// @Success 200 {object} response.Envelope
// @Router /deals/{id} [put]
func (h *DealHandler) Update(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	deal, err := h.deals.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deal, nil)
}

// Delete godoc
// @Summary Delete deal
// @Tags Deals
// @Produce json
// @Param id path string true "Deal ID"
// @Success 204
// @Router /deals/{id} [delete]
func (h *DealHandler) Delete(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.deals.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
