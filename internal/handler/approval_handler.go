package handler

import (
	"errors"

	app_errors "locsync/internal/errors"
	"locsync/internal/response"

	"github.com/gin-gonic/gin"
)

// ApproveAll handles POST /api/approvals/:language/all. Refused with the
// blocking count while any unapproved row has empty text.
func (s *Server) ApproveAll(c *gin.Context) {
	lang := c.Param("language")

	outcome, err := s.ApprovalGate.ApproveAll(lang)
	if err != nil {
		var apiErr *app_errors.APIError
		if errors.As(err, &apiErr) {
			response.ErrorI18nFromAPIError(c, apiErr, "approval.blocked", map[string]any{
				"Count": outcome.Blocking,
			})
			return
		}
		response.Error(c, app_errors.ParseDBError(err))
		return
	}

	response.SuccessI18n(c, "approval.completed", outcome, map[string]any{
		"Count": outcome.Approved,
	})
}

// ApproveByQuality handles POST /api/approvals/:language/quality.
func (s *Server) ApproveByQuality(c *gin.Context) {
	lang := c.Param("language")

	outcome, err := s.ApprovalGate.ApproveByQuality(lang)
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}

	response.SuccessI18n(c, "approval.auto_applied", outcome, map[string]any{
		"Approved": outcome.Approved,
		"Flagged":  outcome.Flagged,
	})
}

// ApproveKeysRequest carries an explicit key selection.
type ApproveKeysRequest struct {
	Keys     []string `json:"keys" binding:"required,min=1"`
	Approved bool     `json:"approved"`
}

// ApproveKeys handles POST /api/approvals/:language/keys for selective
// approval or unapproval.
func (s *Server) ApproveKeys(c *gin.Context) {
	lang := c.Param("language")

	var req ApproveKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInvalidJSON, err.Error()))
		return
	}

	outcome, err := s.ApprovalGate.SetKeysApproved(lang, req.Keys, req.Approved)
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, outcome)
}

// SyncVisibility handles POST /api/visibility/sync.
func (s *Server) SyncVisibility(c *gin.Context) {
	results, err := s.VisibilitySync.SyncAll()
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.SuccessI18n(c, "visibility.synced", results)
}
