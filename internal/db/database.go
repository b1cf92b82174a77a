package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"locsync/internal/types"
	"locsync/internal/utils"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// ReadDB is a separate read-only connection pool for SQLite to avoid read/write
// lock contention. For MySQL and PostgreSQL it is the same as DB since those
// handle concurrency natively.
var ReadDB *gorm.DB

// NewDB opens the database connection, sniffing the driver from the DSN.
func NewDB(configManager types.ConfigManager) (*gorm.DB, error) {
	dsn := configManager.GetDatabaseConfig().DSN
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is not configured")
	}

	var gormLogger logger.Interface
	if configManager.GetLogConfig().Level == "debug" {
		// Route GORM logs through logrus so they reach both console and file
		gormLogger = logger.New(
			log.New(logrus.StandardLogger().Out, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Info,
				IgnoreRecordNotFoundError: true,
				Colorful:                  true,
			},
		)
	}

	isPostgres := strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		(strings.Contains(dsn, "host=") && strings.Contains(dsn, "dbname="))
	isMySQL := strings.Contains(dsn, "@tcp(") || strings.Contains(dsn, "@unix(")

	var dialector gorm.Dialector
	switch {
	case isPostgres:
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
	case isMySQL:
		if !strings.Contains(dsn, "parseTime") {
			if strings.Contains(dsn, "?") {
				dsn += "&parseTime=true"
			} else {
				dsn += "?parseTime=true"
			}
		}
		dialector = mysql.Open(dsn)
	default:
		// SQLite file: URIs handle their own path resolution; only create
		// parent directories for plain filesystem paths.
		if !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		cacheSize := utils.GetEnvOrDefault("SQLITE_CACHE_SIZE", "10000")
		params := fmt.Sprintf("_pragma=foreign_keys(1)&_busy_timeout=10000&_journal_mode=WAL&_synchronous=NORMAL&cache=shared&_cache_size=%s&_temp_store=MEMORY", cacheSize)
		delimiter := "?"
		if strings.Contains(dsn, "?") {
			delimiter = "&"
		}
		dialector = sqlite.Open(dsn + delimiter + params)
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if isPostgres || isMySQL {
		sqlDB.SetMaxIdleConns(20)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
		ReadDB = DB
	} else {
		// SQLite needs a single write connection to avoid lock contention
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(time.Hour)

		applySQLitePragmas(sqlDB)

		// In WAL mode readers do not block the writer, but only on
		// separate connections.
		ReadDB, err = createSQLiteReadDB(dsn, gormLogger)
		if err != nil {
			logrus.WithError(err).Warn("Failed to create SQLite read connection pool, using main DB for reads")
			ReadDB = DB
		}
	}

	return DB, nil
}

// applySQLitePragmas sets PRAGMAs that cannot be expressed in the DSN.
// Applied over a raw connection to keep them out of the slow query log.
func applySQLitePragmas(sqlDB *sql.DB) {
	conn, err := sqlDB.Conn(context.Background())
	if err != nil {
		logrus.WithError(err).Warn("Failed to acquire connection for SQLite PRAGMAs")
		return
	}
	defer conn.Close()

	mmapSize := utils.GetEnvOrDefault("SQLITE_MMAP_SIZE", "268435456")
	journalSizeLimit := utils.GetEnvOrDefault("SQLITE_JOURNAL_SIZE_LIMIT", "67108864")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := conn.ExecContext(ctx, fmt.Sprintf("PRAGMA mmap_size = %s", mmapSize)); err != nil {
		logrus.WithError(err).Warn("Failed to apply PRAGMA mmap_size")
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("PRAGMA journal_size_limit = %s", journalSizeLimit)); err != nil {
		logrus.WithError(err).Warn("Failed to apply PRAGMA journal_size_limit")
	}
}

// createSQLiteReadDB creates a separate read-only connection pool for SQLite.
func createSQLiteReadDB(dsn string, gormLogger logger.Interface) (*gorm.DB, error) {
	cacheSize := utils.GetEnvOrDefault("SQLITE_CACHE_SIZE", "10000")
	// Shorter busy_timeout so readers fail fast on contention
	params := fmt.Sprintf("_pragma=foreign_keys(1)&_busy_timeout=1000&_journal_mode=WAL&_synchronous=NORMAL&_cache_size=%s&_temp_store=MEMORY", cacheSize)
	delimiter := "?"
	if strings.Contains(dsn, "?") {
		delimiter = "&"
	}
	dialector := sqlite.Open(dsn + delimiter + params)

	readDB, err := gorm.Open(dialector, &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite read connection: %w", err)
	}

	sqlDB, err := readDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB for read connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Minute)

	logrus.Info("SQLite read-only connection pool created for concurrent reads")
	return readDB, nil
}
