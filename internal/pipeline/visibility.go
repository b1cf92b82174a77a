package pipeline

import (
	"fmt"

	"locsync/internal/config"
	"locsync/internal/models"
	"locsync/internal/services"

	"github.com/sirupsen/logrus"
)

// VisibilityResult reports the derived switcher state for one language.
type VisibilityResult struct {
	Language       string  `json:"language"`
	ApprovalRate   float64 `json:"approval_rate"`
	ShowInSwitcher bool    `json:"show_in_switcher"`
}

// VisibilitySync derives each language's public switcher visibility from its
// approval completion ratio. The derivation is pure and idempotent.
type VisibilitySync struct {
	translationService *services.TranslationService
	languageService    *services.LanguageService
	settingsManager    *config.SystemSettingsManager
}

// NewVisibilitySync creates a VisibilitySync.
func NewVisibilitySync(
	translationService *services.TranslationService,
	languageService *services.LanguageService,
	settingsManager *config.SystemSettingsManager,
) *VisibilitySync {
	return &VisibilitySync{
		translationService: translationService,
		languageService:    languageService,
		settingsManager:    settingsManager,
	}
}

// SyncAll recomputes visibility for every enabled language. The master
// language is always visible.
func (v *VisibilitySync) SyncAll() ([]VisibilityResult, error) {
	masterKeys, err := v.translationService.CountMasterKeys()
	if err != nil {
		return nil, fmt.Errorf("failed to count master keys: %w", err)
	}

	threshold := float64(v.settingsManager.GetSettings().VisibilityThresholdPercent) / 100.0

	languages, err := v.languageService.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}

	results := make([]VisibilityResult, 0, len(languages))
	for _, lang := range languages {
		if !lang.Enabled {
			continue
		}

		if lang.Code == models.MasterLanguage {
			if err := v.languageService.SetVisibility(lang.Code, true); err != nil {
				return nil, fmt.Errorf("failed to update visibility for %s: %w", lang.Code, err)
			}
			results = append(results, VisibilityResult{Language: lang.Code, ApprovalRate: 1, ShowInSwitcher: true})
			continue
		}

		approved, err := v.translationService.CountApproved(lang.Code)
		if err != nil {
			return nil, fmt.Errorf("failed to count approved rows for %s: %w", lang.Code, err)
		}

		rate := 0.0
		if masterKeys > 0 {
			rate = float64(approved) / float64(masterKeys)
		}
		visible := rate >= threshold

		if err := v.languageService.SetVisibility(lang.Code, visible); err != nil {
			return nil, fmt.Errorf("failed to update visibility for %s: %w", lang.Code, err)
		}

		if visible != lang.ShowInSwitcher {
			logrus.WithFields(logrus.Fields{
				"language":      lang.Code,
				"approval_rate": fmt.Sprintf("%.3f", rate),
				"visible":       visible,
			}).Info("Language switcher visibility changed")
		}

		results = append(results, VisibilityResult{
			Language:       lang.Code,
			ApprovalRate:   rate,
			ShowInSwitcher: visible,
		})
	}
	return results, nil
}
