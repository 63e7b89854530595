package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jahid-csedu/iam-system-sub000/internal/usecase"
)

// PermissionHandler exposes capability catalog endpoints.
type PermissionHandler struct {
	permissions *usecase.PermissionService
}

// NewPermissionHandler constructs PermissionHandler.
func NewPermissionHandler(permissions *usecase.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissions: permissions}
}

// RegisterRoutes binds permission management routes under the provided group.
// Read operations run behind readGuard, mutations behind writeGuard.
func (h *PermissionHandler) RegisterRoutes(r *gin.RouterGroup, readGuard, writeGuard gin.HandlerFunc) {
	r.POST("", writeGuard, h.create)
	r.GET("", readGuard, h.list)
	r.GET("/:id", readGuard, h.get)
	r.PATCH("/:id", writeGuard, h.updateDescription)
	r.DELETE("/:id", writeGuard, h.delete)
}

func (h *PermissionHandler) create(c *gin.Context) {
	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid permission payload"))
		return
	}

	permission, err := h.permissions.Create(c.Request.Context(), req.ServiceName, req.Action, req.Description)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionExists, Status: http.StatusConflict, Message: "permission already exists"},
		}, http.StatusBadRequest, "create permission failed")
		return
	}

	c.JSON(http.StatusCreated, toPermissionResponse(*permission))
}

func (h *PermissionHandler) list(c *gin.Context) {
	permissions, err := h.permissions.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "list permissions failed"))
		return
	}

	out := make([]PermissionResponse, 0, len(permissions))
	for _, permission := range permissions {
		out = append(out, toPermissionResponse(permission))
	}

	c.JSON(http.StatusOK, out)
}

func (h *PermissionHandler) get(c *gin.Context) {
	permission, err := h.permissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionNotFound, Status: http.StatusNotFound, Message: "permission not found"},
		}, http.StatusInternalServerError, "get permission failed")
		return
	}

	c.JSON(http.StatusOK, toPermissionResponse(*permission))
}

func (h *PermissionHandler) updateDescription(c *gin.Context) {
	var req PermissionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid permission payload"))
		return
	}

	if err := h.permissions.UpdateDescription(c.Request.Context(), c.Param("id"), req.Description); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionNotFound, Status: http.StatusNotFound, Message: "permission not found"},
		}, http.StatusInternalServerError, "update permission failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "permission updated"})
}

func (h *PermissionHandler) delete(c *gin.Context) {
	if err := h.permissions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionNotFound, Status: http.StatusNotFound, Message: "permission not found"},
		}, http.StatusInternalServerError, "delete permission failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "permission deleted"})
}
