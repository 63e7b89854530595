package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jahid-csedu/iam-system-sub000/internal/usecase"
)

// RoleHandler exposes role management endpoints.
type RoleHandler struct {
	roles *usecase.RoleService
}

// NewRoleHandler constructs RoleHandler.
func NewRoleHandler(roles *usecase.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

// RegisterRoutes binds role management routes under the provided group. Read
// operations run behind readGuard, mutations behind writeGuard.
func (h *RoleHandler) RegisterRoutes(r *gin.RouterGroup, readGuard, writeGuard gin.HandlerFunc) {
	r.POST("", writeGuard, h.create)
	r.GET("", readGuard, h.list)
	r.GET("/:id", readGuard, h.get)
	r.POST("/:id/permissions", writeGuard, h.attachPermissions)
	r.DELETE("/:id/permissions", writeGuard, h.detachPermissions)
}

// RegisterUserRoutes binds role assignment routes under the user group.
func (h *RoleHandler) RegisterUserRoutes(r *gin.RouterGroup, readGuard, writeGuard gin.HandlerFunc) {
	r.GET("/:id/roles", readGuard, h.listForUser)
	r.POST("/:id/roles", writeGuard, h.assign)
	r.DELETE("/:id/roles", writeGuard, h.revoke)
}

func (h *RoleHandler) create(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid role payload"))
		return
	}

	role, err := h.roles.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrRoleExists, Status: http.StatusConflict, Message: "role already exists"},
		}, http.StatusInternalServerError, "create role failed")
		return
	}

	c.JSON(http.StatusCreated, toRoleResponse(*role))
}

func (h *RoleHandler) list(c *gin.Context) {
	roles, err := h.roles.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "list roles failed"))
		return
	}

	out := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, toRoleResponse(role))
	}

	c.JSON(http.StatusOK, out)
}

func (h *RoleHandler) get(c *gin.Context) {
	role, err := h.roles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrRoleNotFound, Status: http.StatusNotFound, Message: "role not found"},
		}, http.StatusInternalServerError, "get role failed")
		return
	}

	c.JSON(http.StatusOK, toRoleResponse(*role))
}

func (h *RoleHandler) attachPermissions(c *gin.Context) {
	var req RolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid permissions payload"))
		return
	}

	if err := h.roles.AttachPermissions(c.Request.Context(), c.Param("id"), req.PermissionIDs); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrRoleNotFound, Status: http.StatusNotFound, Message: "role not found"},
			{Err: usecase.ErrPermissionNotFound, Status: http.StatusNotFound, Message: "permission not found"},
		}, http.StatusInternalServerError, "attach permissions failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "permissions attached"})
}

func (h *RoleHandler) detachPermissions(c *gin.Context) {
	var req RolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid permissions payload"))
		return
	}

	if err := h.roles.DetachPermissions(c.Request.Context(), c.Param("id"), req.PermissionIDs); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrRoleNotFound, Status: http.StatusNotFound, Message: "role not found"},
		}, http.StatusInternalServerError, "detach permissions failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "permissions detached"})
}

func (h *RoleHandler) assign(c *gin.Context) {
	var req UserRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid roles payload"))
		return
	}

	if err := h.roles.AssignToUser(c.Request.Context(), c.Param("id"), req.RoleIDs); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
			{Err: usecase.ErrRoleNotFound, Status: http.StatusNotFound, Message: "role not found"},
		}, http.StatusInternalServerError, "assign roles failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "roles assigned"})
}

func (h *RoleHandler) revoke(c *gin.Context) {
	var req UserRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid roles payload"))
		return
	}

	if err := h.roles.RevokeFromUser(c.Request.Context(), c.Param("id"), req.RoleIDs); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "revoke roles failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "roles revoked"})
}

func (h *RoleHandler) listForUser(c *gin.Context) {
	roles, err := h.roles.ListForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "list user roles failed"))
		return
	}

	out := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, toRoleResponse(role))
	}

	c.JSON(http.StatusOK, out)
}
