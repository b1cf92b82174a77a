// Package models defines the persisted data model of the translation pipeline.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// MasterLanguage is the language whose key set every other language is
// synchronized against.
const MasterLanguage = "en"

// Review status constants for Translation.ReviewStatus.
const (
	ReviewStatusPending     = "pending"
	ReviewStatusNeedsReview = "needs_review"
)

// Evaluation progress status constants.
const (
	EvalStatusIdle       = "idle"
	EvalStatusInProgress = "in_progress"
	EvalStatusPaused     = "paused"
	EvalStatusCompleted  = "completed"
	EvalStatusError      = "error"
)

// SystemSetting corresponds to the system_settings table.
type SystemSetting struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SettingKey   string    `gorm:"type:varchar(255);not null;unique" json:"setting_key"`
	SettingValue string    `gorm:"type:text;not null" json:"setting_value"`
	Description  string    `gorm:"type:varchar(512)" json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TechnicalTermIssue flags a domain term the evaluator considers mistranslated.
type TechnicalTermIssue struct {
	Term       string  `json:"term"`
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// QualityMetrics is the structured evaluator verdict stored per row.
type QualityMetrics struct {
	Strengths           []string             `json:"strengths"`
	Issues              []string             `json:"issues"`
	TechnicalTermIssues []TechnicalTermIssue `json:"technical_term_issues"`
}

// Translation corresponds to the translations table: one row per
// (language_code, translation_key). Rows for the master language form the
// master key set; rows whose text equals their key are untranslated
// placeholders.
type Translation struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	LanguageCode   string         `gorm:"type:varchar(16);not null;uniqueIndex:idx_lang_key;index:idx_translations_lang_approved" json:"language_code"`
	TranslationKey string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_lang_key" json:"translation_key"`
	TranslatedText *string        `gorm:"type:text" json:"translated_text"`
	Approved       bool           `gorm:"default:false;not null;index:idx_translations_lang_approved" json:"approved"`
	ApprovedAt     *time.Time     `json:"approved_at"`
	QualityScore   *int           `json:"quality_score"`
	QualityMetrics datatypes.JSON `gorm:"type:json" json:"quality_metrics"`
	ReviewStatus   string         `gorm:"type:varchar(32);not null;default:'pending'" json:"review_status"`
	PageLocation   string         `gorm:"type:varchar(255)" json:"page_location"`
	Context        string         `gorm:"type:varchar(512)" json:"context"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Text returns the translated text, or empty when unset.
func (t *Translation) Text() string {
	if t.TranslatedText == nil {
		return ""
	}
	return *t.TranslatedText
}

// IsPlaceholder reports whether the row still carries the untranslated
// sentinel (text equals the key) or no text at all.
func (t *Translation) IsPlaceholder() bool {
	text := t.Text()
	return text == "" || text == t.TranslationKey
}

// EvaluationProgress corresponds to the evaluation_progress table: one
// resumable checkpoint per non-English language. LastEvaluatedKey is the
// watermark; re-entering the sorted key sequence after it neither repeats
// nor skips keys.
type EvaluationProgress struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LanguageCode     string    `gorm:"type:varchar(16);not null;unique" json:"language_code"`
	Status           string    `gorm:"type:varchar(32);not null;default:'idle';index" json:"status"`
	TotalKeys        int       `gorm:"not null;default:0" json:"total_keys"`
	EvaluatedKeys    int       `gorm:"not null;default:0" json:"evaluated_keys"`
	LastEvaluatedKey *string   `gorm:"type:varchar(255)" json:"last_evaluated_key"`
	ErrorCount       int       `gorm:"not null;default:0" json:"error_count"`
	LastError        string    `gorm:"type:text" json:"last_error"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"` // heartbeat
}

// Language corresponds to the languages table.
type Language struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code           string    `gorm:"type:varchar(16);not null;unique" json:"code"`
	Name           string    `gorm:"type:varchar(64);not null" json:"name"`
	NativeName     string    `gorm:"type:varchar(64)" json:"native_name"`
	Enabled        bool      `gorm:"default:true;not null" json:"enabled"`
	ShowInSwitcher bool      `gorm:"default:false;not null" json:"show_in_switcher"`
	SortOrder      int       `gorm:"default:0" json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ExportedRow is one line of the per-language JSON dump used for offline
// inspection.
type ExportedRow struct {
	Key          string `json:"key"`
	Text         string `json:"text"`
	Page         string `json:"page"`
	Context      string `json:"context"`
	QualityScore *int   `json:"quality_score"`
	ReviewStatus string `json:"review_status"`
	Approved     bool   `json:"approved"`
}

// LanguageStats summarizes a language's pipeline state for the console.
type LanguageStats struct {
	LanguageCode   string  `json:"language_code"`
	TotalKeys      int64   `json:"total_keys"`
	TranslatedKeys int64   `json:"translated_keys"`
	ApprovedKeys   int64   `json:"approved_keys"`
	NeedsReview    int64   `json:"needs_review"`
	ApprovalRate   float64 `json:"approval_rate"`
}
