package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/naccer/portal/backend/internal/middleware"
	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/internal/services"
	"github.com/naccer/portal/backend/pkg/response"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func clientInfo(c *gin.Context) services.ClientInfo {
	return services.ClientInfo{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func tokenPayload(res *services.AuthResult) gin.H {
	return gin.H{
		"token":            res.AccessToken,
		"expiresAt":        res.AccessExpireAt,
		"refreshToken":     res.RefreshToken,
		"refreshExpiresAt": res.RefreshExpireAt,
		"user":             res.User,
	}
}

// Register creates an account and signs it in
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.authService.Register(c.Request.Context(), &req, clientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "User registered successfully", tokenPayload(res))
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.authService.Login(c.Request.Context(), &req, clientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Login successful", tokenPayload(res))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates a refresh token
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.RefreshToken == "" {
		response.BadRequest(c, "Refresh token is required")
		return
	}

	res, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken, clientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Token refreshed", tokenPayload(res))
}

// RegisterUsage answers GET /api/auth/register with a usage hint.
func (h *AuthHandler) RegisterUsage(c *gin.Context) {
	response.MethodNotAllowed(c, "GET method not allowed. Use POST method to register a user.", gin.H{
		"allowedMethods": []string{"POST"},
		"usage": gin.H{
			"method":   "POST",
			"endpoint": "/api/auth/register",
			"body": gin.H{
				"name":       "string (required)",
				"email":      "string (required)",
				"password":   "string (required)",
				"role":       "string (optional: 'user', 'reviewer', 'staff')",
				"department": "string (optional)",
			},
		},
	})
}

// LoginUsage answers GET /api/auth/login with a usage hint.
func (h *AuthHandler) LoginUsage(c *gin.Context) {
	response.MethodNotAllowed(c, "GET method not allowed. Use POST method to login.", gin.H{
		"allowedMethods": []string{"POST"},
		"usage": gin.H{
			"method":   "POST",
			"endpoint": "/api/auth/login",
			"body": gin.H{
				"email":    "string (required)",
				"password": "string (required)",
			},
		},
	})
}

// GetCurrentUser returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.authService.GetUserByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", gin.H{"user": user})
}

// UpdateProfile edits the caller's own profile
// PUT /api/auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Profile updated successfully", gin.H{"user": user})
}

// Logout revokes the supplied refresh token. Access tokens expire on their own.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)

	if req.RefreshToken != "" {
		if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
			response.Error(c, err)
			return
		}
	}
	response.Success(c, "Logged out successfully", nil)
}

// ChangePassword
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), middleware.GetUserID(c), &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Password changed successfully", nil)
}

// ListStaff returns the staff directory for reviewers
// GET /api/auth/staff
func (h *AuthHandler) ListStaff(c *gin.Context) {
	users, err := h.authService.ListStaff(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	staff := make([]*models.UserSummary, 0, len(users))
	for i := range users {
		staff = append(staff, users[i].Summary())
	}
	response.Success(c, "", gin.H{"staff": staff})
}
