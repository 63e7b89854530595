package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jahid-csedu/iam-system-sub000/internal/usecase"
)

// PasswordHandler exposes the password reset endpoints.
type PasswordHandler struct {
	resets *usecase.PasswordResetService
}

// NewPasswordHandler constructs PasswordHandler.
func NewPasswordHandler(resets *usecase.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{resets: resets}
}

// RegisterRoutes binds the reset endpoints under the provided group.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/reset/request", h.requestReset)
	r.POST("/reset/confirm", h.confirmReset)
}

func (h *PasswordHandler) requestReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset request payload"))
		return
	}

	err := h.resets.RequestReset(c.Request.Context(), req.Email)
	if err != nil {
		var rateLimited *usecase.RateLimitExceededError
		if errors.As(err, &rateLimited) {
			c.JSON(http.StatusTooManyRequests, NewErrorResponse(c, "too many reset requests"))
			return
		}

		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "no account for this email"},
		}, http.StatusInternalServerError, "reset request failed")
		return
	}

	c.JSON(http.StatusAccepted, MessageResponse{Message: "reset code sent"})
}

func (h *PasswordHandler) confirmReset(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset confirmation payload"))
		return
	}

	err := h.resets.Redeem(c.Request.Context(), req.OTP, req.Email)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidOTP, Status: http.StatusBadRequest, Message: "invalid reset code"},
			{Err: usecase.ErrOTPOwnershipMismatch, Status: http.StatusBadRequest, Message: "reset code does not match this account"},
			{Err: usecase.ErrOTPExpired, Status: http.StatusGone, Message: "reset code expired"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "no account for this email"},
		}, http.StatusInternalServerError, "reset confirmation failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password reset; new credential delivered"})
}
