package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"locsync/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB creates a unique in-memory database migrated with the pipeline
// tables. One connection only, so the schema survives pooling.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testName := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", testName, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt: false,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	err = db.AutoMigrate(&models.Translation{}, &models.EvaluationProgress{}, &models.Language{})
	require.NoError(t, err)
	return db
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// seedRow inserts one translation row directly.
func seedRow(t *testing.T, db *gorm.DB, row models.Translation) {
	t.Helper()
	require.NoError(t, db.Create(&row).Error)
}

// seedMasterKeys inserts master-language rows for the given keys.
func seedMasterKeys(t *testing.T, db *gorm.DB, keys ...string) {
	t.Helper()
	for _, key := range keys {
		text := "English text for " + key
		seedRow(t, db, models.Translation{
			LanguageCode:   models.MasterLanguage,
			TranslationKey: key,
			TranslatedText: &text,
			Approved:       true,
			ReviewStatus:   models.ReviewStatusPending,
			PageLocation:   "home",
			Context:        "ctx:" + key,
		})
	}
}

// TestInsertPlaceholders_CopiesMasterTags verifies sentinel text and tag copy
func TestInsertPlaceholders_CopiesMasterTags(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewTranslationService(db, nil)

	seedMasterKeys(t, db, "nav.home", "nav.about")

	master, err := svc.MasterRows()
	require.NoError(t, err)

	inserted, err := svc.InsertPlaceholders("de", []string{"nav.home", "nav.about"}, master)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	row, err := svc.GetRow("de", "nav.home")
	require.NoError(t, err)
	assert.Equal(t, "nav.home", row.Text())
	assert.True(t, row.IsPlaceholder())
	assert.False(t, row.Approved)
	assert.Equal(t, "home", row.PageLocation)
	assert.Equal(t, "ctx:nav.home", row.Context)
}

// TestInsertPlaceholders_Idempotent verifies re-running inserts zero rows
func TestInsertPlaceholders_Idempotent(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewTranslationService(db, nil)

	seedMasterKeys(t, db, "a", "b", "c")
	master, err := svc.MasterRows()
	require.NoError(t, err)

	inserted, err := svc.InsertPlaceholders("fr", []string{"a", "b", "c"}, master)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	inserted, err = svc.InsertPlaceholders("fr", []string{"a", "b", "c"}, master)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	keys, err := svc.KeysForLanguage("fr")
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

// TestMasterKeys_Sorted verifies the master key set comes back sorted
func TestMasterKeys_Sorted(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewTranslationService(db, nil)

	seedMasterKeys(t, db, "zebra", "apple", "mango")

	keys, err := svc.MasterKeys()
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "mango", "zebra"}, keys)
}

// TestUntranslatedRows verifies sentinel and empty rows are both selected
func TestUntranslatedRows(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewTranslationService(db, nil)

	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "a", TranslatedText: strPtr("a"), ReviewStatus: models.ReviewStatusPending})
	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "b", TranslatedText: strPtr(""), ReviewStatus: models.ReviewStatusPending})
	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "c", TranslatedText: strPtr("Hallo"), ReviewStatus: models.ReviewStatusPending})

	rows, err := svc.UntranslatedRows("de")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].TranslationKey)
	assert.Equal(t, "b", rows[1].TranslationKey)
}

// TestUpdateTranslatedText_WithdrawsApproval verifies new text resets approval
func TestUpdateTranslatedText_WithdrawsApproval(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewTranslationService(db, nil)

	now := time.Now()
	seedRow(t, db, models.Translation{
		LanguageCode:   "de",
		TranslationKey: "greeting",
		TranslatedText: strPtr("Hallo"),
		Approved:       true,
		ApprovedAt:     &now,
		ReviewStatus:   models.ReviewStatusPending,
	})

	require.NoError(t, svc.UpdateTranslatedText("de", "greeting", "Guten Tag"))

	row, err := svc.GetRow("de", "greeting")
	require.NoError(t, err)
	assert.Equal(t, "Guten Tag", row.Text())
	assert.False(t, row.Approved)
	assert.Nil(t, row.ApprovedAt)
}

// TestApplyScores verifies scores and metrics land on rows; unknown keys skip
func TestApplyScores(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewTranslationService(db, nil)

	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "a", TranslatedText: strPtr("A"), ReviewStatus: models.ReviewStatusPending})
	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "b", TranslatedText: strPtr("B"), ReviewStatus: models.ReviewStatusPending})

	applied, err := svc.ApplyScores("de", []KeyScore{
		{Key: "a", Score: 92, Metrics: models.QualityMetrics{Strengths: []string{"fluent"}}},
		{Key: "missing", Score: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	row, err := svc.GetRow("de", "a")
	require.NoError(t, err)
	require.NotNil(t, row.QualityScore)
	assert.Equal(t, 92, *row.QualityScore)
	assert.Contains(t, string(row.QualityMetrics), "fluent")

	row, err = svc.GetRow("de", "b")
	require.NoError(t, err)
	assert.Nil(t, row.QualityScore)
}

// TestCountEmptyUnapproved verifies blank text detection for the approval gate
func TestCountEmptyUnapproved(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewTranslationService(db, nil)

	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "a", TranslatedText: strPtr("   "), ReviewStatus: models.ReviewStatusPending})
	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "b", TranslatedText: nil, ReviewStatus: models.ReviewStatusPending})
	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "c", TranslatedText: strPtr("ok"), ReviewStatus: models.ReviewStatusPending})
	// Approved rows never block, even when blank
	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "d", TranslatedText: strPtr(""), Approved: true, ReviewStatus: models.ReviewStatusPending})

	count, err := svc.CountEmptyUnapproved("de")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

// TestApproveByScore verifies both thresholds in a single pass
func TestApproveByScore(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewTranslationService(db, nil)

	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "high", TranslatedText: strPtr("x"), QualityScore: intPtr(92), ReviewStatus: models.ReviewStatusPending})
	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "edge", TranslatedText: strPtr("x"), QualityScore: intPtr(85), ReviewStatus: models.ReviewStatusPending})
	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "mid", TranslatedText: strPtr("x"), QualityScore: intPtr(75), ReviewStatus: models.ReviewStatusPending})
	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "low", TranslatedText: strPtr("x"), QualityScore: intPtr(60), ReviewStatus: models.ReviewStatusPending})
	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "unscored", TranslatedText: strPtr("x"), ReviewStatus: models.ReviewStatusPending})

	approved, flagged, err := svc.ApproveByScore("de", 85, 70)
	require.NoError(t, err)
	assert.Equal(t, int64(2), approved)
	assert.Equal(t, int64(1), flagged)

	checks := map[string]struct {
		approved bool
		status   string
	}{
		"high":     {true, models.ReviewStatusPending},
		"edge":     {true, models.ReviewStatusPending},
		"mid":      {false, models.ReviewStatusPending},
		"low":      {false, models.ReviewStatusNeedsReview},
		"unscored": {false, models.ReviewStatusPending},
	}
	for key, want := range checks {
		row, err := svc.GetRow("de", key)
		require.NoError(t, err)
		assert.Equal(t, want.approved, row.Approved, "approved mismatch for %s", key)
		assert.Equal(t, want.status, row.ReviewStatus, "review status mismatch for %s", key)
	}
}

// TestApproveLanguage verifies bulk approval touches only unapproved rows
func TestApproveLanguage(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewTranslationService(db, nil)

	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "a", TranslatedText: strPtr("x"), ReviewStatus: models.ReviewStatusPending})
	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "b", TranslatedText: strPtr("y"), Approved: true, ReviewStatus: models.ReviewStatusPending})

	affected, err := svc.ApproveLanguage("de")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	count, err := svc.CountApproved("de")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

// TestServableRows_MasterFallback verifies unapproved rows serve English text
func TestServableRows_MasterFallback(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewTranslationService(db, nil)

	seedMasterKeys(t, db, "title")
	seedRow(t, db, models.Translation{
		LanguageCode:   "de",
		TranslationKey: "title",
		TranslatedText: strPtr("Titel"),
		ReviewStatus:   models.ReviewStatusPending,
	})

	rows, err := svc.ServableRows("de")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "English text for title", rows[0].Text())

	// Once approved, the row serves its own text
	_, err = svc.SetApproved("de", []string{"title"}, true)
	require.NoError(t, err)

	rows, err = svc.ServableRows("de")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Titel", rows[0].Text())
}

// TestStats verifies count aggregation against the master key set
func TestStats(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewTranslationService(db, nil)

	seedMasterKeys(t, db, "a", "b", "c", "d")
	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "a", TranslatedText: strPtr("A"), Approved: true, ReviewStatus: models.ReviewStatusPending})
	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "b", TranslatedText: strPtr("B"), ReviewStatus: models.ReviewStatusNeedsReview})
	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "c", TranslatedText: strPtr("c"), ReviewStatus: models.ReviewStatusPending})

	stats, err := svc.Stats("de")
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalKeys)
	assert.Equal(t, int64(2), stats.TranslatedKeys)
	assert.Equal(t, int64(1), stats.ApprovedKeys)
	assert.Equal(t, int64(1), stats.NeedsReview)
	assert.InDelta(t, 0.25, stats.ApprovalRate, 0.0001)
}

// TestExport verifies the dump shape and ordering
func TestExport(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewTranslationService(db, nil)

	seedRow(t, db, models.Translation{
		LanguageCode:   "de",
		TranslationKey: "b",
		TranslatedText: strPtr("B"),
		QualityScore:   intPtr(88),
		Approved:       true,
		ReviewStatus:   models.ReviewStatusPending,
		PageLocation:   "about",
		Context:        "heading",
	})
	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "a", TranslatedText: strPtr("A"), ReviewStatus: models.ReviewStatusPending})

	rows, err := svc.Export("de")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].Key)

	assert.Equal(t, "b", rows[1].Key)
	assert.Equal(t, "B", rows[1].Text)
	assert.Equal(t, "about", rows[1].Page)
	assert.Equal(t, "heading", rows[1].Context)
	require.NotNil(t, rows[1].QualityScore)
	assert.Equal(t, 88, *rows[1].QualityScore)
	assert.True(t, rows[1].Approved)
}

// TestListTranslations_Filters verifies the console grid filters
func TestListTranslations_Filters(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewTranslationService(db, nil)

	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "nav.home", TranslatedText: strPtr("Start"), Approved: true, ReviewStatus: models.ReviewStatusPending})
	seedRow(t, db, models.Translation{LanguageCode: "de", TranslationKey: "nav.about", TranslatedText: strPtr("nav.about"), ReviewStatus: models.ReviewStatusPending})
	seedRow(t, db, models.Translation{LanguageCode: "fr", TranslationKey: "nav.home", TranslatedText: strPtr("Accueil"), ReviewStatus: models.ReviewStatusNeedsReview})

	var rows []models.Translation
	require.NoError(t, svc.ListTranslations("de", "approved", "").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "nav.home", rows[0].TranslationKey)

	rows = nil
	require.NoError(t, svc.ListTranslations("de", "untranslated", "").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "nav.about", rows[0].TranslationKey)

	rows = nil
	require.NoError(t, svc.ListTranslations("", "needs_review", "").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "fr", rows[0].LanguageCode)

	rows = nil
	require.NoError(t, svc.ListTranslations("", "", "Accueil").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "fr", rows[0].LanguageCode)
}
