package services

import (
	"fmt"

	"locsync/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// defaultLanguages seeds the languages table on first start. English is the
// master language and always visible.
var defaultLanguages = []models.Language{
	{Code: "en", Name: "English", NativeName: "English", Enabled: true, ShowInSwitcher: true, SortOrder: 0},
	{Code: "de", Name: "German", NativeName: "Deutsch", Enabled: true, SortOrder: 10},
	{Code: "fr", Name: "French", NativeName: "Français", Enabled: true, SortOrder: 20},
	{Code: "es", Name: "Spanish", NativeName: "Español", Enabled: true, SortOrder: 30},
	{Code: "it", Name: "Italian", NativeName: "Italiano", Enabled: true, SortOrder: 40},
	{Code: "nl", Name: "Dutch", NativeName: "Nederlands", Enabled: true, SortOrder: 50},
	{Code: "pl", Name: "Polish", NativeName: "Polski", Enabled: true, SortOrder: 60},
	{Code: "pt", Name: "Portuguese", NativeName: "Português", Enabled: true, SortOrder: 70},
	{Code: "ja", Name: "Japanese", NativeName: "日本語", Enabled: true, SortOrder: 80},
}

// LanguageService owns the languages table.
type LanguageService struct {
	DB *gorm.DB
}

// NewLanguageService creates a new LanguageService.
func NewLanguageService(db *gorm.DB) *LanguageService {
	return &LanguageService{DB: db}
}

// Seed inserts the default language set. Existing codes are left untouched so
// operator edits survive restarts.
func (s *LanguageService) Seed() error {
	// Work on a copy, Create writes generated IDs back into the slice.
	languages := make([]models.Language, len(defaultLanguages))
	copy(languages, defaultLanguages)
	result := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&languages)
	if result.Error != nil {
		return fmt.Errorf("failed to seed languages: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		logrus.Infof("Seeded %d languages", result.RowsAffected)
	}
	return nil
}

// List returns all languages ordered for display.
func (s *LanguageService) List() ([]models.Language, error) {
	var languages []models.Language
	err := s.DB.Order("sort_order ASC, code ASC").Find(&languages).Error
	return languages, err
}

// EnabledTargetLanguages returns enabled languages excluding the master, in
// pipeline processing order.
func (s *LanguageService) EnabledTargetLanguages() ([]models.Language, error) {
	var languages []models.Language
	err := s.DB.Where("enabled = ? AND code != ?", true, models.MasterLanguage).
		Order("sort_order ASC, code ASC").
		Find(&languages).Error
	return languages, err
}

// Get loads one language by code.
func (s *LanguageService) Get(code string) (*models.Language, error) {
	var lang models.Language
	if err := s.DB.Where("code = ?", code).First(&lang).Error; err != nil {
		return nil, err
	}
	return &lang, nil
}

// SetVisibility sets a language's switcher visibility.
func (s *LanguageService) SetVisibility(code string, visible bool) error {
	return s.DB.Model(&models.Language{}).
		Where("code = ?", code).
		Update("show_in_switcher", visible).Error
}

// ToggleSwitcher flips switcher visibility for manual operator overrides and
// returns the new state.
func (s *LanguageService) ToggleSwitcher(code string) (bool, error) {
	lang, err := s.Get(code)
	if err != nil {
		return false, err
	}
	newState := !lang.ShowInSwitcher
	if err := s.SetVisibility(code, newState); err != nil {
		return false, err
	}
	return newState, nil
}
