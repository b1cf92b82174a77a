package services

import (
	"encoding/json"
	"fmt"
	"time"

	"locsync/internal/models"
	"locsync/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KeyScore is one persisted evaluator verdict for a translation row.
type KeyScore struct {
	Key     string
	Score   int
	Metrics models.QualityMetrics
}

// TranslationService owns all queries against the translations table. The
// pipeline components build their policies on top of these methods.
type TranslationService struct {
	DB     *gorm.DB
	ReadDB *gorm.DB
}

// NewTranslationService creates a new TranslationService. readDB may equal db.
func NewTranslationService(db *gorm.DB, readDB *gorm.DB) *TranslationService {
	if readDB == nil {
		readDB = db
	}
	return &TranslationService{DB: db, ReadDB: readDB}
}

// insertChunkSize returns an insert chunk size tuned by database dialect.
func (s *TranslationService) insertChunkSize() int {
	switch s.DB.Dialector.Name() {
	case "sqlite":
		return 100
	case "mysql", "postgres":
		return 300
	default:
		return 200
	}
}

// retryOnLock runs fn, retrying transient lock errors with jittered backoff.
// SQLite under WAL still surfaces SQLITE_BUSY during write bursts.
func (s *TranslationService) retryOnLock(fn func() error) error {
	const maxAttempts = 5
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || !utils.IsDBLockError(err) {
			return err
		}
		backoff := time.Duration(attempt*attempt)*100*time.Millisecond + utils.Jitter(100*time.Millisecond)
		logrus.WithError(err).Debugf("Database locked, retrying in %v (attempt %d/%d)", backoff, attempt, maxAttempts)
		time.Sleep(backoff)
	}
	return err
}

// MasterKeys returns the sorted key set of the master language.
func (s *TranslationService) MasterKeys() ([]string, error) {
	var keys []string
	err := s.ReadDB.Model(&models.Translation{}).
		Where("language_code = ?", models.MasterLanguage).
		Order("translation_key ASC").
		Pluck("translation_key", &keys).Error
	return keys, err
}

// KeysForLanguage returns the key set present for one language.
func (s *TranslationService) KeysForLanguage(lang string) ([]string, error) {
	var keys []string
	err := s.ReadDB.Model(&models.Translation{}).
		Where("language_code = ?", lang).
		Pluck("translation_key", &keys).Error
	return keys, err
}

// MasterRows loads all master-language rows keyed by translation key, used to
// copy classification tags onto placeholder rows.
func (s *TranslationService) MasterRows() (map[string]models.Translation, error) {
	var rows []models.Translation
	if err := s.ReadDB.Where("language_code = ?", models.MasterLanguage).Find(&rows).Error; err != nil {
		return nil, err
	}
	byKey := make(map[string]models.Translation, len(rows))
	for _, r := range rows {
		byKey[r.TranslationKey] = r
	}
	return byKey, nil
}

// InsertPlaceholders creates untranslated placeholder rows for the given keys.
// The text sentinel is the key itself; page_location and context are copied
// from the master row. Conflicting rows are left untouched, making repeated
// synchronization a no-op.
func (s *TranslationService) InsertPlaceholders(lang string, keys []string, master map[string]models.Translation) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	rows := make([]models.Translation, 0, len(keys))
	for _, key := range keys {
		text := key
		row := models.Translation{
			LanguageCode:   lang,
			TranslationKey: key,
			TranslatedText: &text,
			ReviewStatus:   models.ReviewStatusPending,
		}
		if en, ok := master[key]; ok {
			row.PageLocation = en.PageLocation
			row.Context = en.Context
		}
		rows = append(rows, row)
	}

	inserted := 0
	err := s.retryOnLock(func() error {
		result := s.DB.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(&rows, s.insertChunkSize())
		if result.Error != nil {
			return result.Error
		}
		inserted = int(result.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert placeholder rows for %s: %w", lang, err)
	}
	return inserted, nil
}

// UntranslatedRows returns rows whose text is empty or still the key sentinel.
func (s *TranslationService) UntranslatedRows(lang string) ([]models.Translation, error) {
	var rows []models.Translation
	err := s.ReadDB.
		Where("language_code = ?", lang).
		Where("translated_text IS NULL OR translated_text = '' OR translated_text = translation_key").
		Order("translation_key ASC").
		Find(&rows).Error
	return rows, err
}

// RowsForRefine selects refinement candidates. A nil scoreBelow means no
// score filter; an explicit key list overrides the score filter.
func (s *TranslationService) RowsForRefine(lang string, scoreBelow *int, keys []string) ([]models.Translation, error) {
	query := s.ReadDB.Where("language_code = ?", lang)
	if len(keys) > 0 {
		query = query.Where("translation_key IN ?", keys)
	} else if scoreBelow != nil {
		query = query.Where("quality_score IS NOT NULL AND quality_score < ?", *scoreBelow)
	}

	var rows []models.Translation
	err := query.Order("translation_key ASC").Find(&rows).Error
	return rows, err
}

// GetRow loads a single row.
func (s *TranslationService) GetRow(lang, key string) (*models.Translation, error) {
	var row models.Translation
	err := s.ReadDB.Where("language_code = ? AND translation_key = ?", lang, key).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateTranslatedText writes new text onto a row and withdraws any prior
// approval, since the content changed.
func (s *TranslationService) UpdateTranslatedText(lang, key, text string) error {
	return s.retryOnLock(func() error {
		return s.DB.Model(&models.Translation{}).
			Where("language_code = ? AND translation_key = ?", lang, key).
			Updates(map[string]any{
				"translated_text": text,
				"approved":        false,
				"approved_at":     nil,
			}).Error
	})
}

// ApplyScores persists evaluator verdicts onto their rows. Unknown keys are
// counted and skipped.
func (s *TranslationService) ApplyScores(lang string, scores []KeyScore) (int, error) {
	applied := 0
	err := s.retryOnLock(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			applied = 0
			for _, sc := range scores {
				metricsJSON, err := json.Marshal(sc.Metrics)
				if err != nil {
					return fmt.Errorf("failed to marshal quality metrics for %s: %w", sc.Key, err)
				}
				result := tx.Model(&models.Translation{}).
					Where("language_code = ? AND translation_key = ?", lang, sc.Key).
					Updates(map[string]any{
						"quality_score":   sc.Score,
						"quality_metrics": metricsJSON,
					})
				if result.Error != nil {
					return result.Error
				}
				applied += int(result.RowsAffected)
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	if applied < len(scores) {
		logrus.Warnf("Applied %d of %d evaluation scores for %s, remainder had no matching rows", applied, len(scores), lang)
	}
	return applied, nil
}

// CountEmptyUnapproved counts unapproved rows whose text is empty or blank.
// These block a full-language approval.
func (s *TranslationService) CountEmptyUnapproved(lang string) (int64, error) {
	var count int64
	err := s.ReadDB.Model(&models.Translation{}).
		Where("language_code = ? AND approved = ?", lang, false).
		Where("translated_text IS NULL OR TRIM(translated_text) = ''").
		Count(&count).Error
	return count, err
}

// ApproveLanguage batch-approves every unapproved row of a language.
func (s *TranslationService) ApproveLanguage(lang string) (int64, error) {
	var affected int64
	err := s.retryOnLock(func() error {
		result := s.DB.Model(&models.Translation{}).
			Where("language_code = ? AND approved = ?", lang, false).
			Updates(map[string]any{
				"approved":    true,
				"approved_at": time.Now(),
			})
		affected = result.RowsAffected
		return result.Error
	})
	return affected, err
}

// ApproveByScore approves rows at or above the threshold and flags rows below
// the review threshold. Approval status of flagged rows is unchanged.
func (s *TranslationService) ApproveByScore(lang string, approveAt, reviewBelow int) (approved int64, flagged int64, err error) {
	err = s.retryOnLock(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&models.Translation{}).
				Where("language_code = ? AND approved = ?", lang, false).
				Where("quality_score IS NOT NULL AND quality_score >= ?", approveAt).
				Updates(map[string]any{
					"approved":    true,
					"approved_at": time.Now(),
				})
			if result.Error != nil {
				return result.Error
			}
			approved = result.RowsAffected

			result = tx.Model(&models.Translation{}).
				Where("language_code = ?", lang).
				Where("quality_score IS NOT NULL AND quality_score < ?", reviewBelow).
				Update("review_status", models.ReviewStatusNeedsReview)
			if result.Error != nil {
				return result.Error
			}
			flagged = result.RowsAffected
			return nil
		})
	})
	return approved, flagged, err
}

// SetApproved approves or unapproves an explicit key list.
func (s *TranslationService) SetApproved(lang string, keys []string, approved bool) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	updates := map[string]any{"approved": approved}
	if approved {
		updates["approved_at"] = time.Now()
	} else {
		updates["approved_at"] = nil
	}

	var affected int64
	err := s.retryOnLock(func() error {
		result := s.DB.Model(&models.Translation{}).
			Where("language_code = ? AND translation_key IN ?", lang, keys).
			Updates(updates)
		affected = result.RowsAffected
		return result.Error
	})
	return affected, err
}

// CountApproved counts approved rows for a language.
func (s *TranslationService) CountApproved(lang string) (int64, error) {
	var count int64
	err := s.ReadDB.Model(&models.Translation{}).
		Where("language_code = ? AND approved = ?", lang, true).
		Count(&count).Error
	return count, err
}

// CountMasterKeys counts the master key set.
func (s *TranslationService) CountMasterKeys() (int64, error) {
	var count int64
	err := s.ReadDB.Model(&models.Translation{}).
		Where("language_code = ?", models.MasterLanguage).
		Count(&count).Error
	return count, err
}

// Stats summarizes a language's pipeline state for the console.
func (s *TranslationService) Stats(lang string) (*models.LanguageStats, error) {
	stats := &models.LanguageStats{LanguageCode: lang}

	total, err := s.CountMasterKeys()
	if err != nil {
		return nil, err
	}
	stats.TotalKeys = total

	if err := s.ReadDB.Model(&models.Translation{}).
		Where("language_code = ?", lang).
		Where("translated_text IS NOT NULL AND translated_text != '' AND translated_text != translation_key").
		Count(&stats.TranslatedKeys).Error; err != nil {
		return nil, err
	}

	if stats.ApprovedKeys, err = s.CountApproved(lang); err != nil {
		return nil, err
	}

	if err := s.ReadDB.Model(&models.Translation{}).
		Where("language_code = ? AND review_status = ?", lang, models.ReviewStatusNeedsReview).
		Count(&stats.NeedsReview).Error; err != nil {
		return nil, err
	}

	if total > 0 {
		stats.ApprovalRate = float64(stats.ApprovedKeys) / float64(total)
	}
	return stats, nil
}

// Export dumps all rows of a language for offline inspection.
func (s *TranslationService) Export(lang string) ([]models.ExportedRow, error) {
	var rows []models.Translation
	if err := s.ReadDB.Where("language_code = ?", lang).
		Order("translation_key ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	exported := make([]models.ExportedRow, 0, len(rows))
	for _, r := range rows {
		exported = append(exported, models.ExportedRow{
			Key:          r.TranslationKey,
			Text:         r.Text(),
			Page:         r.PageLocation,
			Context:      r.Context,
			QualityScore: r.QualityScore,
			ReviewStatus: r.ReviewStatus,
			Approved:     r.Approved,
		})
	}
	return exported, nil
}

// ServableRows returns the rows to expose in the runtime resource tree for a
// language. Approved translated rows serve their own text; unapproved or
// placeholder rows fall back to the master text. The master language serves
// itself directly.
func (s *TranslationService) ServableRows(lang string) ([]models.Translation, error) {
	var rows []models.Translation
	if err := s.ReadDB.Where("language_code = ?", lang).Find(&rows).Error; err != nil {
		return nil, err
	}
	if lang == models.MasterLanguage {
		return rows, nil
	}

	master, err := s.MasterRows()
	if err != nil {
		return nil, err
	}
	for i := range rows {
		r := &rows[i]
		if !r.Approved || r.IsPlaceholder() {
			if en, ok := master[r.TranslationKey]; ok {
				text := en.Text()
				r.TranslatedText = &text
			}
		}
	}
	return rows, nil
}

// ListTranslations returns a filtered query for the console grid, intended to
// be passed to response.Paginate.
func (s *TranslationService) ListTranslations(lang, status, search string) *gorm.DB {
	query := s.ReadDB.Model(&models.Translation{}).Order("translation_key ASC")
	if lang != "" {
		query = query.Where("language_code = ?", lang)
	}
	switch status {
	case "approved":
		query = query.Where("approved = ?", true)
	case "pending":
		query = query.Where("approved = ? AND review_status = ?", false, models.ReviewStatusPending)
	case "needs_review":
		query = query.Where("review_status = ?", models.ReviewStatusNeedsReview)
	case "untranslated":
		query = query.Where("translated_text IS NULL OR translated_text = '' OR translated_text = translation_key")
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("translation_key LIKE ? OR translated_text LIKE ?", like, like)
	}
	return query
}
