package pipeline

import (
	"fmt"

	"locsync/internal/config"
	apperrors "locsync/internal/errors"
	"locsync/internal/services"

	"github.com/sirupsen/logrus"
)

// ApprovalOutcome reports the effect of an approval operation.
type ApprovalOutcome struct {
	Approved int64 `json:"approved"`
	Flagged  int64 `json:"flagged,omitempty"`
	Blocking int64 `json:"blocking,omitempty"`
}

// ApprovalGate enforces the approval policies: bulk approval refuses while
// empty rows exist, quality approval promotes rows by evaluator score.
type ApprovalGate struct {
	translationService *services.TranslationService
	settingsManager    *config.SystemSettingsManager
}

// NewApprovalGate creates an ApprovalGate.
func NewApprovalGate(translationService *services.TranslationService, settingsManager *config.SystemSettingsManager) *ApprovalGate {
	return &ApprovalGate{
		translationService: translationService,
		settingsManager:    settingsManager,
	}
}

// ApproveAll approves every unapproved row of a language. Refused with the
// blocking count when any unapproved row has empty or whitespace-only text,
// approving placeholder text is never allowed.
func (g *ApprovalGate) ApproveAll(lang string) (*ApprovalOutcome, error) {
	blocking, err := g.translationService.CountEmptyUnapproved(lang)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for empty rows in %s: %w", lang, err)
	}
	if blocking > 0 {
		return &ApprovalOutcome{Blocking: blocking}, apperrors.NewApprovalBlockedError(blocking)
	}

	approved, err := g.translationService.ApproveLanguage(lang)
	if err != nil {
		return nil, fmt.Errorf("failed to approve rows for %s: %w", lang, err)
	}

	logrus.WithFields(logrus.Fields{
		"language": lang,
		"approved": approved,
	}).Info("Bulk approval completed")
	return &ApprovalOutcome{Approved: approved}, nil
}

// ApproveByQuality approves rows at or above the auto-approve threshold and
// flags rows below the review threshold for human attention. Flagging never
// changes approval state.
func (g *ApprovalGate) ApproveByQuality(lang string) (*ApprovalOutcome, error) {
	settings := g.settingsManager.GetSettings()

	approved, flagged, err := g.translationService.ApproveByScore(
		lang, settings.AutoApproveThreshold, settings.NeedsReviewThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed quality approval for %s: %w", lang, err)
	}

	logrus.WithFields(logrus.Fields{
		"language": lang,
		"approved": approved,
		"flagged":  flagged,
	}).Info("Quality approval completed")
	return &ApprovalOutcome{Approved: approved, Flagged: flagged}, nil
}

// SetKeysApproved approves or unapproves an explicit key list.
func (g *ApprovalGate) SetKeysApproved(lang string, keys []string, approved bool) (*ApprovalOutcome, error) {
	affected, err := g.translationService.SetApproved(lang, keys, approved)
	if err != nil {
		return nil, fmt.Errorf("failed to update approval for %s: %w", lang, err)
	}
	return &ApprovalOutcome{Approved: affected}, nil
}
