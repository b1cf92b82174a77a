package handler

import (
	"errors"

	app_errors "locsync/internal/errors"
	"locsync/internal/models"
	"locsync/internal/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// languageView combines a language row with its pipeline statistics.
type languageView struct {
	models.Language
	Stats *models.LanguageStats `json:"stats,omitempty"`
}

// ListLanguages handles GET /api/languages.
func (s *Server) ListLanguages(c *gin.Context) {
	languages, err := s.LanguageSvc.List()
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}

	withStats := c.Query("stats") == "true"
	views := make([]languageView, 0, len(languages))
	for _, lang := range languages {
		view := languageView{Language: lang}
		if withStats {
			stats, err := s.TranslationSvc.Stats(lang.Code)
			if err != nil {
				response.Error(c, app_errors.ParseDBError(err))
				return
			}
			view.Stats = stats
		}
		views = append(views, view)
	}
	response.Success(c, views)
}

// ToggleSwitcher handles PUT /api/languages/:code/toggle-switcher, the manual
// override of the derived visibility. The next visibility sync recomputes it.
func (s *Server) ToggleSwitcher(c *gin.Context) {
	code := c.Param("code")

	visible, err := s.LanguageSvc.ToggleSwitcher(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, app_errors.NewNotFoundError("unknown language"))
			return
		}
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, gin.H{"code": code, "show_in_switcher": visible})
}
