package handlers

import (
	"net/http"

	"cafe_backoffice/internal/middleware"
	"cafe_backoffice/internal/models"
	"cafe_backoffice/internal/services"
	"cafe_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var creds models.Credentials
	if !bindJSON(c, &creds, "Login") {
		return
	}
	authResp, err := h.authService.Login(c.Request.Context(), creds)
	if err != nil {
		respondServiceError(c, err, "Login")
		return
	}
	utils.RespondOK(c, http.StatusOK, authResp)
}

// Me retrieves the profile of the currently authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserID)
	if userID == 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return
	}
	user, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Get current user")
		return
	}
	utils.RespondOK(c, http.StatusOK, user)
}

// Logout acknowledges the logout. Tokens are stateless, so the client discards its own.
func (h *AuthHandler) Logout(c *gin.Context) {
	utils.LogInfo("User logged out", map[string]interface{}{"user_id": c.GetInt64(middleware.ContextUserID)})
	utils.RespondOK(c, http.StatusOK, gin.H{"message": "Logged out successfully. Please discard your token."})
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "List users")
		return
	}
	utils.RespondOK(c, http.StatusOK, users)
}

func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if !bindJSON(c, &req, "CreateUser") {
		return
	}
	user, err := h.authService.CreateUser(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Create user")
		return
	}
	utils.RespondOK(c, http.StatusCreated, user)
}

func (h *AuthHandler) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateUserRequest
	if !bindJSON(c, &req, "UpdateUser") {
		return
	}
	user, err := h.authService.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Update user")
		return
	}
	utils.RespondOK(c, http.StatusOK, user)
}
