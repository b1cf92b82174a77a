package db

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migration is a named schema or data change applied once at startup,
// after AutoMigrate has created the base tables.
type Migration struct {
	Name string
	Run  func(db *gorm.DB) error
}

// Migrations are applied in order. Each must be idempotent because there is
// no applied-migrations bookkeeping table.
var Migrations = []Migration{
	{"add_translations_review_status_index", addTranslationsReviewStatusIndex},
	{"add_translations_quality_score_index", addTranslationsQualityScoreIndex},
	{"backfill_review_status", backfillReviewStatus},
}

// RunMigrations executes all registered migrations.
func RunMigrations(db *gorm.DB) error {
	for _, m := range Migrations {
		if err := m.Run(db); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.Name, err)
		}
	}
	return nil
}

// addTranslationsReviewStatusIndex speeds up the approval listing queries,
// which filter on language and review status.
func addTranslationsReviewStatusIndex(db *gorm.DB) error {
	return createIndexIfNotExists(db, "translations", "idx_translations_lang_review", "language_code, review_status")
}

// addTranslationsQualityScoreIndex supports threshold scans in the approval gate.
func addTranslationsQualityScoreIndex(db *gorm.DB) error {
	return createIndexIfNotExists(db, "translations", "idx_translations_quality_score", "quality_score")
}

// backfillReviewStatus marks already approved rows whose review status was
// never set. Rows written before the review workflow existed have an empty
// status instead of the column default.
func backfillReviewStatus(db *gorm.DB) error {
	result := db.Exec(`UPDATE translations SET review_status = 'pending' WHERE review_status = '' OR review_status IS NULL`)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		logrus.Infof("Backfilled review_status for %d translations", result.RowsAffected)
	}
	return nil
}

// createIndexIfNotExists creates an index if it doesn't exist. It first tries
// CREATE INDEX IF NOT EXISTS, then falls back to a dialect-specific existence
// check for MySQL, which lacks that syntax.
func createIndexIfNotExists(db *gorm.DB, tableName, indexName, columns string) error {
	dialectorName := db.Dialector.Name()

	if dialectorName != "mysql" {
		sql := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", indexName, tableName, columns)
		return db.Exec(sql).Error
	}

	if checkIndexExists(db, dialectorName, tableName, indexName) {
		return nil
	}
	sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", indexName, tableName, columns)
	return db.Exec(sql).Error
}

// checkIndexExists checks if an index exists using dialect-specific queries.
func checkIndexExists(db *gorm.DB, dialectorName, tableName, indexName string) bool {
	var indexCount int64
	var err error

	switch dialectorName {
	case "mysql":
		err = db.Raw(`
			SELECT COUNT(*)
			FROM information_schema.STATISTICS
			WHERE TABLE_SCHEMA = DATABASE()
			AND TABLE_NAME = ?
			AND INDEX_NAME = ?
		`, tableName, indexName).Scan(&indexCount).Error
	case "sqlite":
		err = db.Raw(`
			SELECT COUNT(*) FROM sqlite_master
			WHERE type = 'index' AND name = ?
		`, indexName).Scan(&indexCount).Error
	case "postgres":
		err = db.Raw(`
			SELECT COUNT(*) FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, tableName, indexName).Scan(&indexCount).Error
	default:
		return false
	}

	if err != nil {
		logrus.WithError(err).Warnf("Failed to check if index %s exists", indexName)
		return false
	}

	return indexCount > 0
}
