// Package pipeline implements the translation pipeline: key synchronization,
// batch translation, the resumable evaluation loop, approval policy, language
// visibility and the stuck-run watchdog.
package pipeline

import (
	"context"
	"fmt"

	"locsync/internal/services"

	"github.com/sirupsen/logrus"
)

// LanguageSyncResult reports the sync outcome for one language.
type LanguageSyncResult struct {
	Language string `json:"language"`
	Inserted int    `json:"inserted"`
	Error    string `json:"error,omitempty"`
}

// KeySynchronizer aligns every enabled language's key set with the master
// language by inserting placeholder rows for missing keys.
type KeySynchronizer struct {
	translationService *services.TranslationService
	languageService    *services.LanguageService
}

// NewKeySynchronizer creates a KeySynchronizer.
func NewKeySynchronizer(translationService *services.TranslationService, languageService *services.LanguageService) *KeySynchronizer {
	return &KeySynchronizer{
		translationService: translationService,
		languageService:    languageService,
	}
}

// SyncAll synchronizes every enabled non-master language. A failure in one
// language is reported in its result and never blocks the others.
func (s *KeySynchronizer) SyncAll(ctx context.Context) ([]LanguageSyncResult, error) {
	languages, err := s.languageService.EnabledTargetLanguages()
	if err != nil {
		return nil, fmt.Errorf("failed to list target languages: %w", err)
	}

	results := make([]LanguageSyncResult, 0, len(languages))
	for _, lang := range languages {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		inserted, err := s.SyncLanguage(ctx, lang.Code)
		result := LanguageSyncResult{Language: lang.Code, Inserted: inserted}
		if err != nil {
			result.Error = err.Error()
			logrus.WithError(err).Errorf("Key sync failed for %s", lang.Code)
		}
		results = append(results, result)
	}
	return results, nil
}

// SyncLanguage inserts placeholder rows for every master key the language is
// missing. Running it again after a successful sync inserts zero rows.
func (s *KeySynchronizer) SyncLanguage(ctx context.Context, lang string) (int, error) {
	masterKeys, err := s.translationService.MasterKeys()
	if err != nil {
		return 0, fmt.Errorf("failed to load master keys: %w", err)
	}

	existing, err := s.translationService.KeysForLanguage(lang)
	if err != nil {
		return 0, fmt.Errorf("failed to load keys for %s: %w", lang, err)
	}
	existingSet := make(map[string]struct{}, len(existing))
	for _, k := range existing {
		existingSet[k] = struct{}{}
	}

	missing := make([]string, 0)
	for _, k := range masterKeys {
		if _, ok := existingSet[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	master, err := s.translationService.MasterRows()
	if err != nil {
		return 0, fmt.Errorf("failed to load master rows: %w", err)
	}

	inserted, err := s.translationService.InsertPlaceholders(lang, missing, master)
	if err != nil {
		return 0, err
	}

	logrus.WithFields(logrus.Fields{
		"language": lang,
		"inserted": inserted,
	}).Info("Key synchronization completed")
	return inserted, nil
}
