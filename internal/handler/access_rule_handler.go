package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildlink/crm-api/internal/service"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
	"github.com/buildlink/crm-api/pkg/response"
)

// AccessRuleHandler exposes admin endpoints for supplier access rules.
type AccessRuleHandler struct {
	rules *service.AccessRuleService
}

// NewAccessRuleHandler constructs AccessRuleHandler.
func NewAccessRuleHandler(rules *service.AccessRuleService) *AccessRuleHandler {
	return &AccessRuleHandler{rules: rules}
}

// List godoc
// @Summary List all access rules
// @Tags AccessRules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /access-rules [get]
func (h *AccessRuleHandler) List(c *gin.Context) {
	rules, err := h.rules.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// ListForUser godoc
// @Summary List a user's access rules
// @Tags AccessRules
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /access-rules/users/{userId} [get]
func (h *AccessRuleHandler) ListForUser(c *gin.Context) {
	rules, err := h.rules.ListForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// Create godoc
// @Summary Grant an access rule
// @Tags AccessRules
// @Accept json
// @Produce json
// @Param payload body service.CreateAccessRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Router /access-rules [post]
func (h *AccessRuleHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateAccessRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.rules.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// Replace godoc
// @Summary Replace a user's access rules
// @Tags AccessRules
// @Accept json
// @Produce json
// @Param payload body service.ReplaceAccessRulesRequest true "Rules payload"
// @Success 200 {object} response.Envelope
// @Router /access-rules/replace [put]
func (h *AccessRuleHandler) Replace(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ReplaceAccessRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rules, err := h.rules.Replace(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// Delete godoc
// @Summary Revoke an access rule
// @Tags AccessRules
// @Produce json
// @Param id path string true "Rule ID"
// @Success 204
// @Router /access-rules/{id} [delete]
func (h *AccessRuleHandler) Delete(c *gin.Context) {
	if err := h.rules.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
