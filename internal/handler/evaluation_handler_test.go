package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"locsync/internal/aiservice"
	"locsync/internal/config"
	"locsync/internal/i18n"
	"locsync/internal/models"
	"locsync/internal/pipeline"
	"locsync/internal/services"
	"locsync/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := i18n.Init(); err != nil {
		panic("failed to initialize i18n for tests: " + err.Error())
	}
}

// completingEvaluator finishes every language in a single final response.
type completingEvaluator struct{}

func (completingEvaluator) Evaluate(ctx context.Context, req aiservice.EvaluateRequest) (*aiservice.EvaluateResponse, error) {
	return &aiservice.EvaluateResponse{Status: "completed", TotalEvaluated: 1, TotalKeys: 1}, nil
}

func newEvaluationServer(t *testing.T) (*Server, store.Store, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{PrepareStmt: false})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.SystemSetting{},
		&models.Language{},
		&models.Translation{},
		&models.EvaluationProgress{},
	))

	st := store.NewMemoryStore()
	t.Cleanup(func() { st.Close() })

	settings := config.NewSystemSettingsManager()
	settings.Initialize(db, st, true)
	t.Cleanup(func() { settings.Stop(context.Background()) })

	translationSvc := services.NewTranslationService(db, db)
	languageSvc := services.NewLanguageService(db)
	progressSvc := services.NewProgressService(db)
	orchestrator := pipeline.NewEvaluationOrchestrator(
		completingEvaluator{}, translationSvc, progressSvc, languageSvc, settings, st)

	require.NoError(t, db.Create(&models.Language{Code: "de", Name: "German", Enabled: true}).Error)

	server := &Server{
		DB:           db,
		LanguageSvc:  languageSvc,
		ProgressSvc:  progressSvc,
		Orchestrator: orchestrator,
		Storage:      st,
	}
	return server, st, db
}

func postRunEvaluation(server *Server, body string) *httptest.ResponseRecorder {
	router := gin.New()
	router.POST("/api/evaluations/run", server.RunEvaluation)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/evaluations/run", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

// TestRunEvaluation_RejectsActiveLanguageRun tests that starting a language
// whose run lease is held answers with a conflict instead of a success
func TestRunEvaluation_RejectsActiveLanguageRun(t *testing.T) {
	server, st, _ := newEvaluationServer(t)

	acquired, err := st.SetNX(pipeline.EvaluationLeaseKey("de"), []byte("other-run"), time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	w := postRunEvaluation(server, `{"language":"de"}`)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "TASK_IN_PROGRESS", resp.Code)
	assert.Contains(t, resp.Message, "already active")
}

// TestRunEvaluation_StartsIdleLanguage tests the background start path and
// the localized response message
func TestRunEvaluation_StartsIdleLanguage(t *testing.T) {
	server, _, db := newEvaluationServer(t)

	w := postRunEvaluation(server, `{"language":"de"}`)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "Evaluation started for de", resp.Message)

	require.Eventually(t, func() bool {
		var progress models.EvaluationProgress
		if err := db.Where("language_code = ?", "de").First(&progress).Error; err != nil {
			return false
		}
		return progress.Status == models.EvalStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

// TestRunEvaluation_UnknownLanguage tests the not-found path
func TestRunEvaluation_UnknownLanguage(t *testing.T) {
	server, _, _ := newEvaluationServer(t)

	w := postRunEvaluation(server, `{"language":"xx"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
