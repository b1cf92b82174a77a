package handler

import (
	"errors"
	"time"

	"locsync/internal/aiservice"
	app_errors "locsync/internal/errors"
	"locsync/internal/keytree"
	"locsync/internal/models"
	"locsync/internal/pipeline"
	"locsync/internal/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SyncKeys handles POST /api/translations/sync-keys. It aligns every enabled
// language's key set with the master language.
func (s *Server) SyncKeys(c *gin.Context) {
	results, err := s.Synchronizer.SyncAll(c.Request.Context())
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}

	inserted := 0
	for _, r := range results {
		inserted += r.Inserted
	}
	response.SuccessI18n(c, "sync.completed", results, map[string]any{"Inserted": inserted})
}

// FillMissingRequest selects the languages of a fill run.
type FillMissingRequest struct {
	Language string `json:"language"`
}

// FillMissing handles POST /api/translations/fill-missing. Without a language
// it fills every enabled language sequentially.
func (s *Server) FillMissing(c *gin.Context) {
	var req FillMissingRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInvalidJSON, err.Error()))
		return
	}

	if req.Language != "" {
		outcome, err := s.Dispatcher.FillMissing(c.Request.Context(), req.Language)
		if err != nil {
			s.renderDispatchError(c, err)
			return
		}
		response.SuccessI18n(c, "translate.fill_completed", outcome, map[string]any{
			"Translated": outcome.Translated,
			"Failed":     outcome.Failed,
		})
		return
	}

	outcomes, err := s.Dispatcher.FillAll(c.Request.Context())
	if err != nil {
		if errors.Is(err, pipeline.ErrRunQuotaExceeded) {
			response.ErrorI18nFromAPIError(c, app_errors.ErrQuotaExceeded, "translate.quota_exceeded")
			return
		}
		s.renderDispatchError(c, err)
		return
	}

	translated, failed := 0, 0
	for _, o := range outcomes {
		translated += o.Translated
		failed += o.Failed
	}
	response.SuccessI18n(c, "translate.fill_completed", outcomes, map[string]any{
		"Translated": translated,
		"Failed":     failed,
	})
}

// RefineRequest selects the rows of a bulk refine run.
type RefineRequest struct {
	Language   string   `json:"language" binding:"required"`
	ScoreBelow *int     `json:"score_below"`
	Keys       []string `json:"keys"`
}

// Refine handles POST /api/translations/refine.
func (s *Server) Refine(c *gin.Context) {
	var req RefineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInvalidJSON, err.Error()))
		return
	}

	outcome, err := s.Dispatcher.BulkRefine(c.Request.Context(), req.Language, pipeline.RefineFilter{
		ScoreBelow: req.ScoreBelow,
		Keys:       req.Keys,
	})
	if err != nil {
		s.renderDispatchError(c, err)
		return
	}

	response.SuccessI18n(c, "translate.refine_completed", outcome, map[string]any{
		"Refined": outcome.Refined,
		"Failed":  outcome.Failed,
	})
}

// ListTranslations handles GET /api/translations, the paginated console grid.
func (s *Server) ListTranslations(c *gin.Context) {
	query := s.TranslationSvc.ListTranslations(
		c.Query("language"),
		c.Query("status"),
		c.Query("search"),
	)

	var rows []models.Translation
	paginated, err := response.Paginate(c, query, &rows)
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, paginated)
}

// Tree handles GET /api/translations/tree/:language, the nested resource
// tree consumed by the site runtime.
func (s *Server) Tree(c *gin.Context) {
	lang := c.Param("language")
	if _, err := s.LanguageSvc.Get(lang); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, app_errors.NewNotFoundError("unknown language"))
			return
		}
		response.Error(c, app_errors.ParseDBError(err))
		return
	}

	rows, err := s.TranslationSvc.ServableRows(lang)
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}

	entries := make([]keytree.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, keytree.Entry{Key: r.TranslationKey, Text: r.Text()})
	}
	response.Success(c, keytree.Build(entries))
}

// Export handles GET /api/translations/export/:language, the per-language
// JSON dump for offline inspection.
func (s *Server) Export(c *gin.Context) {
	lang := c.Param("language")
	rows, err := s.TranslationSvc.Export(lang)
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="translations_`+lang+`_`+time.Now().Format("20060102")+`.json"`)
	c.JSON(200, rows)
}

// renderDispatchError maps dispatcher errors onto API errors.
func (s *Server) renderDispatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, aiservice.ErrQuotaExceeded):
		response.ErrorI18nFromAPIError(c, app_errors.ErrQuotaExceeded, "translate.quota_exceeded")
	case errors.Is(err, aiservice.ErrRateLimited):
		response.Error(c, app_errors.NewAPIError(app_errors.ErrBadGateway, "Translation service rate limited, try again later"))
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.Error(c, app_errors.NewNotFoundError("unknown language"))
	default:
		response.Error(c, app_errors.NewAPIError(app_errors.ErrBadGateway, err.Error()))
	}
}
