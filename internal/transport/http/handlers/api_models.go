package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports service status.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse describes the response returned for a successful login.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// RefreshRequest represents the payload to refresh a token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
	Username     string `json:"username" binding:"required"`
}

// RegistrationRequest defines the payload to create an account.
type RegistrationRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserSummary describes a minimal view of a user returned by the API.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Active   bool   `json:"active"`
}

// PasswordResetRequest asks for a reset code to be delivered.
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// PasswordResetConfirmRequest redeems a delivered reset code.
type PasswordResetConfirmRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

// RoleRequest defines the payload to create a role.
type RoleRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// RoleResponse describes a role with its permissions.
type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description *string              `json:"description,omitempty"`
	Permissions []PermissionResponse `json:"permissions,omitempty"`
}

// RolePermissionsRequest carries permission ids to attach or detach.
type RolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

// UserRolesRequest carries role ids to assign or revoke.
type UserRolesRequest struct {
	RoleIDs []string `json:"role_ids" binding:"required"`
}

// PermissionRequest defines the payload to create a permission.
type PermissionRequest struct {
	ServiceName string  `json:"service_name" binding:"required"`
	Action      string  `json:"action" binding:"required"`
	Description *string `json:"description"`
}

// PermissionUpdateRequest carries the new description.
type PermissionUpdateRequest struct {
	Description *string `json:"description"`
}

// PermissionResponse describes a stored capability.
type PermissionResponse struct {
	ID          string  `json:"id"`
	ServiceName string  `json:"service_name"`
	Action      string  `json:"action"`
	Authority   string  `json:"authority"`
	Description *string `json:"description,omitempty"`
}

func toPermissionResponse(p domain.Permission) PermissionResponse {
	return PermissionResponse{
		ID:          p.ID,
		ServiceName: p.ServiceName,
		Action:      string(p.Action),
		Authority:   p.Authority(),
		Description: p.Description,
	}
}

func toRoleResponse(r domain.Role) RoleResponse {
	resp := RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
	}
	for _, p := range r.Permissions {
		resp.Permissions = append(resp.Permissions, toPermissionResponse(p))
	}
	return resp
}

func toUserSummary(u domain.User) UserSummary {
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Active:   u.Active,
	}
}
