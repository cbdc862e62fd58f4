package handlers

import (
	"net/http"

	"cafe_backoffice/internal/services"
	"cafe_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SettingHandler exposes the key/value application settings.
type SettingHandler struct {
	settingService services.SettingService
}

// NewSettingHandler creates a new SettingHandler.
func NewSettingHandler(ss services.SettingService) *SettingHandler {
	return &SettingHandler{settingService: ss}
}

// ListSettings retrieves all application settings.
func (h *SettingHandler) ListSettings(c *gin.Context) {
	settings, err := h.settingService.ListSettings(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "List settings")
		return
	}
	utils.RespondOK(c, http.StatusOK, settings)
}

// GetSetting retrieves a specific application setting by its key.
func (h *SettingHandler) GetSetting(c *gin.Context) {
	setting, err := h.settingService.GetSetting(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondServiceError(c, err, "Get setting")
		return
	}
	utils.RespondOK(c, http.StatusOK, setting)
}

// UpsertSetting creates a new setting or updates an existing one by key.
func (h *SettingHandler) UpsertSetting(c *gin.Context) {
	var req services.UpsertSettingRequest
	if !bindJSON(c, &req, "UpsertSetting") {
		return
	}
	setting, err := h.settingService.UpsertSetting(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Save setting")
		return
	}
	utils.RespondOK(c, http.StatusOK, setting)
}

// DeleteSetting deletes an application setting by its key.
func (h *SettingHandler) DeleteSetting(c *gin.Context) {
	key := c.Param("key")
	if err := h.settingService.DeleteSetting(c.Request.Context(), key); err != nil {
		respondServiceError(c, err, "Delete setting")
		return
	}
	utils.RespondOK(c, http.StatusOK, gin.H{"key": key, "deleted": true})
}
