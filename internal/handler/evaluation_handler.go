package handler

import (
	"context"
	"errors"
	"time"

	app_errors "locsync/internal/errors"
	"locsync/internal/pipeline"
	"locsync/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// evaluateAllLeaseTTL bounds how long an abandoned evaluate-all lease can
// block a new run if the process dies without releasing it.
const evaluateAllLeaseTTL = 2 * time.Hour

// RunEvaluationRequest selects the scope of an evaluation run.
type RunEvaluationRequest struct {
	Language string `json:"language"`
	Force    bool   `json:"force"`
}

// RunEvaluation handles POST /api/evaluations/run. The run executes in the
// background; progress is polled through GET /api/evaluations/progress. Only
// one multi-language run may be active at a time.
func (s *Server) RunEvaluation(c *gin.Context) {
	var req RunEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInvalidJSON, err.Error()))
		return
	}

	if req.Language != "" {
		if _, err := s.LanguageSvc.Get(req.Language); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				response.Error(c, app_errors.NewNotFoundError("unknown language"))
				return
			}
			response.Error(c, app_errors.ParseDBError(err))
			return
		}

		running, err := s.Orchestrator.Running(req.Language)
		if err != nil {
			response.Error(c, app_errors.NewAPIError(app_errors.ErrInternalServer, err.Error()))
			return
		}
		if running {
			response.ErrorI18nFromAPIError(c, app_errors.ErrTaskInProgress, "eval.already_active")
			return
		}

		go func(lang string) {
			if err := s.Orchestrator.EvaluateLanguage(context.Background(), lang); err != nil {
				if errors.Is(err, pipeline.ErrRunInProgress) {
					return
				}
				logrus.WithError(err).Errorf("Background evaluation failed for %s", lang)
			}
		}(req.Language)

		response.SuccessI18n(c, "eval.started", gin.H{"language": req.Language},
			map[string]any{"Language": req.Language})
		return
	}

	acquired, err := s.Storage.SetNX(pipeline.EvaluateAllLeaseKey, []byte("1"), evaluateAllLeaseTTL)
	if err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInternalServer, err.Error()))
		return
	}
	if !acquired {
		response.ErrorI18nFromAPIError(c, app_errors.ErrTaskInProgress, "eval.run_in_progress")
		return
	}

	force := req.Force
	go func() {
		defer func() {
			if err := s.Storage.Delete(pipeline.EvaluateAllLeaseKey); err != nil {
				logrus.WithError(err).Warn("Failed to release evaluate-all lease")
			}
		}()
		if err := s.Orchestrator.EvaluateAll(context.Background(), force); err != nil {
			logrus.WithError(err).Error("Background evaluate-all run failed")
		}
	}()

	response.SuccessI18n(c, "eval.run_started", gin.H{"force": force})
}

// EvaluationProgress handles GET /api/evaluations/progress.
func (s *Server) EvaluationProgress(c *gin.Context) {
	rows, err := s.Orchestrator.Progress()
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, rows)
}

// PauseEvaluation handles POST /api/evaluations/:language/pause. The pause is
// cooperative, the in-flight service call finishes first.
func (s *Server) PauseEvaluation(c *gin.Context) {
	lang := c.Param("language")
	if err := s.Orchestrator.RequestPause(lang); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInternalServer, err.Error()))
		return
	}
	response.SuccessI18n(c, "eval.paused", gin.H{"language": lang})
}

// ResetEvaluation handles POST /api/evaluations/:language/reset. Clears only
// the resumability checkpoint, scores and text stay.
func (s *Server) ResetEvaluation(c *gin.Context) {
	lang := c.Param("language")
	if err := s.Watchdog.ResetLanguage(lang); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, app_errors.NewNotFoundError("no evaluation run for this language"))
			return
		}
		response.Error(c, app_errors.NewValidationError(err.Error()))
		return
	}
	response.SuccessI18n(c, "eval.reset", gin.H{"language": lang})
}
