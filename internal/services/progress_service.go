package services

import (
	"errors"
	"time"

	"locsync/internal/models"

	"gorm.io/gorm"
)

// ProgressService owns the evaluation_progress table, the only durable state
// of the evaluation loop.
type ProgressService struct {
	DB *gorm.DB
}

// NewProgressService creates a new ProgressService.
func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{DB: db}
}

// LoadOrCreate fetches the checkpoint row for a language, creating an idle
// one if none exists.
func (s *ProgressService) LoadOrCreate(lang string) (*models.EvaluationProgress, error) {
	var progress models.EvaluationProgress
	err := s.DB.Where("language_code = ?", lang).First(&progress).Error
	if err == nil {
		return &progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	progress = models.EvaluationProgress{
		LanguageCode: lang,
		Status:       models.EvalStatusIdle,
	}
	if err := s.DB.Create(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

// Get fetches the checkpoint row for a language.
func (s *ProgressService) Get(lang string) (*models.EvaluationProgress, error) {
	var progress models.EvaluationProgress
	if err := s.DB.Where("language_code = ?", lang).First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

// List returns all checkpoint rows.
func (s *ProgressService) List() ([]models.EvaluationProgress, error) {
	var rows []models.EvaluationProgress
	err := s.DB.Order("language_code ASC").Find(&rows).Error
	return rows, err
}

// SaveCheckpoint persists a partial result's watermark. The write also
// refreshes updated_at, which doubles as the heartbeat the watchdog inspects.
func (s *ProgressService) SaveCheckpoint(lang string, evaluated, total int, lastKey string) error {
	return s.DB.Model(&models.EvaluationProgress{}).
		Where("language_code = ?", lang).
		Updates(map[string]any{
			"status":             models.EvalStatusInProgress,
			"evaluated_keys":     evaluated,
			"total_keys":         total,
			"last_evaluated_key": lastKey,
			"updated_at":         time.Now(),
		}).Error
}

// SetStatus transitions the row's status, refreshing the heartbeat.
func (s *ProgressService) SetStatus(lang, status string) error {
	return s.DB.Model(&models.EvaluationProgress{}).
		Where("language_code = ?", lang).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

// MarkCompleted finalizes a run.
func (s *ProgressService) MarkCompleted(lang string, evaluated, total int) error {
	return s.DB.Model(&models.EvaluationProgress{}).
		Where("language_code = ?", lang).
		Updates(map[string]any{
			"status":             models.EvalStatusCompleted,
			"evaluated_keys":     evaluated,
			"total_keys":         total,
			"last_evaluated_key": nil,
			"last_error":         "",
			"updated_at":         time.Now(),
		}).Error
}

// MarkError records a failed run, keeping the watermark so a later reset or
// resume can decide what to do with it.
func (s *ProgressService) MarkError(lang, message string) error {
	return s.DB.Model(&models.EvaluationProgress{}).
		Where("language_code = ?", lang).
		Updates(map[string]any{
			"status":      models.EvalStatusError,
			"last_error":  message,
			"error_count": gorm.Expr("error_count + 1"),
			"updated_at":  time.Now(),
		}).Error
}

// Reset clears the resumability checkpoint. Translated text and quality
// scores are untouched; a future run restarts evaluation from the beginning.
func (s *ProgressService) Reset(lang string) error {
	return s.DB.Model(&models.EvaluationProgress{}).
		Where("language_code = ?", lang).
		Updates(map[string]any{
			"status":             models.EvalStatusIdle,
			"evaluated_keys":     0,
			"last_evaluated_key": nil,
			"error_count":        0,
			"last_error":         "",
			"updated_at":         time.Now(),
		}).Error
}

// FindStuck returns in-progress rows whose heartbeat is older than stuckAfter,
// or that never made initial progress within noProgressAfter.
func (s *ProgressService) FindStuck(stuckAfter, noProgressAfter time.Duration) ([]models.EvaluationProgress, error) {
	now := time.Now()
	var rows []models.EvaluationProgress
	err := s.DB.Where("status = ?", models.EvalStatusInProgress).
		Where("updated_at < ? OR (evaluated_keys = 0 AND updated_at < ?)",
			now.Add(-stuckAfter), now.Add(-noProgressAfter)).
		Find(&rows).Error
	return rows, err
}
