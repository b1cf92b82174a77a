package handler

import (
	"strings"

	app_errors "locsync/internal/errors"
	"locsync/internal/i18n"
	"locsync/internal/models"
	"locsync/internal/response"
	"locsync/internal/utils"

	"github.com/gin-gonic/gin"
)

// GetSettings handles GET /api/settings. Settings are grouped by category
// with names and descriptions localized for the console.
func (s *Server) GetSettings(c *gin.Context) {
	currentSettings := s.SettingsManager.GetSettings()
	settingsInfo := utils.GenerateSettingsMetadata(&currentSettings)

	for i := range settingsInfo {
		if strings.HasPrefix(settingsInfo[i].Name, "config.") {
			settingsInfo[i].Name = i18n.Message(c, settingsInfo[i].Name)
		}
		if strings.HasPrefix(settingsInfo[i].Description, "config.") {
			settingsInfo[i].Description = i18n.Message(c, settingsInfo[i].Description)
		}
		if strings.HasPrefix(settingsInfo[i].Category, "config.") {
			settingsInfo[i].Category = i18n.Message(c, settingsInfo[i].Category)
		}
	}

	categorized := make(map[string][]models.SystemSettingInfo)
	var categoryOrder []string
	for _, info := range settingsInfo {
		if _, exists := categorized[info.Category]; !exists {
			categoryOrder = append(categoryOrder, info.Category)
		}
		categorized[info.Category] = append(categorized[info.Category], info)
	}

	var responseData []models.CategorizedSettings
	for _, categoryName := range categoryOrder {
		responseData = append(responseData, models.CategorizedSettings{
			CategoryName: categoryName,
			Settings:     categorized[categoryName],
		})
	}

	response.Success(c, responseData)
}

// UpdateSettings handles PUT /api/settings. Accepted values take effect
// immediately and propagate to other nodes through the store.
func (s *Server) UpdateSettings(c *gin.Context) {
	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInvalidJSON, err.Error()))
		return
	}
	if len(updates) == 0 {
		response.Error(c, app_errors.NewValidationError("no settings provided"))
		return
	}

	if err := s.SettingsManager.UpdateSettings(updates); err != nil {
		response.Error(c, app_errors.NewValidationError(err.Error()))
		return
	}

	response.SuccessI18n(c, "settings.update_success", nil)
}
