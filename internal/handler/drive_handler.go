package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildlink/crm-api/internal/service"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
	"github.com/buildlink/crm-api/pkg/response"
)

// DriveHandler exposes the shared drive browsing and admin endpoints.
type DriveHandler struct {
	drive *service.DriveService
}

// NewDriveHandler constructs DriveHandler.
func NewDriveHandler(drive *service.DriveService) *DriveHandler {
	return &DriveHandler{drive: drive}
}

// RootFolders godoc
// @Summary List drive folders shared with the caller's organisation
// @Tags Drive
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /drive/folders [get]
func (h *DriveHandler) RootFolders(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	folders, err := h.drive.ListRootFolders(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, folders, nil)
}

// Browse godoc
// @Summary List the children of a shared folder
// @Tags Drive
// @Produce json
// @Param id path string true "Folder ID"
// @Success 200 {object} response.Envelope
// @Router /drive/folders/{id} [get]
func (h *DriveHandler) Browse(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	nodes, err := h.drive.BrowseFolder(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nodes, nil)
}

// GetFile godoc
// @Summary Get a drive file the caller can reach
// @Tags Drive
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} response.Envelope
// @Router /drive/files/{id} [get]
func (h *DriveHandler) GetFile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	node, err := h.drive.GetFile(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, node, nil)
}

// AssignFolder godoc
// @Summary Share a drive folder with a client organisation
// @Tags Drive
// @Accept json
// @Produce json
// @Param payload body service.AssignFolderRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /drive/assignments [post]
func (h *DriveHandler) AssignFolder(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.AssignFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.drive.AssignFolder(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// RevokeFolder godoc
// @Summary Revoke a shared drive folder from a client organisation
// @Tags Drive
// @Produce json
// @Param clientId path string true "Client ID"
// @Param folderId path string true "Folder ID"
// @Success 204
// @Router /drive/assignments/{clientId}/{folderId} [delete]
func (h *DriveHandler) RevokeFolder(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.drive.RevokeFolder(c.Request.Context(), c.Param("clientId"), c.Param("folderId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetMembership godoc
// @Summary Map a user to a client organisation
// @Tags Drive
// @Accept json
// @Produce json
// @Param payload body service.SetMembershipRequest true "Membership payload"
// @Success 200 {object} response.Envelope
// @Router /drive/memberships [put]
func (h *DriveHandler) SetMembership(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SetMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	membership, err := h.drive.SetMembership(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, membership, nil)
}

// RemoveMembership godoc
// @Summary Remove a user's client organisation mapping
// @Tags Drive
// @Produce json
// @Param userId path string true "User ID"
// @Success 204
// @Router /drive/memberships/{userId} [delete]
func (h *DriveHandler) RemoveMembership(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.drive.RemoveMembership(c.Request.Context(), c.Param("userId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
