package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"locsync/internal/aiservice"
	"locsync/internal/config"
	"locsync/internal/models"
	"locsync/internal/services"
	"locsync/internal/store"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv bundles the persistence and configuration fixtures shared by the
// pipeline tests.
type testEnv struct {
	db           *gorm.DB
	store        store.Store
	settings     *config.SystemSettingsManager
	translations *services.TranslationService
	languages    *services.LanguageService
	progress     *services.ProgressService
}

// newTestEnv creates a unique in-memory database, a memory store and a
// settings manager tuned for fast tests (all pacing pauses at minimum).
func newTestEnv(t *testing.T) *testEnv {
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

	err = db.AutoMigrate(
		&models.SystemSetting{},
		&models.Language{},
		&models.Translation{},
		&models.EvaluationProgress{},
	)
	require.NoError(t, err)

	st := store.NewMemoryStore()
	t.Cleanup(func() {
		_ = st.Close()
	})

	sm := config.NewSystemSettingsManager()
	sm.Initialize(db, st, true)
	t.Cleanup(func() {
		sm.Stop(context.Background())
	})
	require.NoError(t, sm.UpdateSettings(map[string]any{
		"eval_pause_millis":          0,
		"batch_pause_seconds":        0,
		"language_pause_seconds":     0,
		"rate_limit_backoff_seconds": 1,
	}))

	return &testEnv{
		db:           db,
		store:        st,
		settings:     sm,
		translations: services.NewTranslationService(db, nil),
		languages:    services.NewLanguageService(db),
		progress:     services.NewProgressService(db),
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func (e *testEnv) seedLanguage(t *testing.T, code, name string, sortOrder int) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.Language{
		Code: code, Name: name, NativeName: name, Enabled: true, SortOrder: sortOrder,
	}).Error)
}

func (e *testEnv) seedMasterKeys(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		text := "English " + key
		require.NoError(t, e.db.Create(&models.Translation{
			LanguageCode:   models.MasterLanguage,
			TranslationKey: key,
			TranslatedText: &text,
			Approved:       true,
			ReviewStatus:   models.ReviewStatusPending,
		}).Error)
	}
}

func (e *testEnv) seedRow(t *testing.T, row models.Translation) {
	t.Helper()
	if row.ReviewStatus == "" {
		row.ReviewStatus = models.ReviewStatusPending
	}
	require.NoError(t, e.db.Create(&row).Error)
}

// backdateHeartbeat moves a progress row's heartbeat into the past, bypassing
// the automatic updated_at refresh.
func (e *testEnv) backdateHeartbeat(t *testing.T, lang string, age time.Duration) {
	t.Helper()
	require.NoError(t, e.db.Model(&models.EvaluationProgress{}).
		Where("language_code = ?", lang).
		UpdateColumn("updated_at", time.Now().Add(-age)).Error)
}

// evalStep is one scripted evaluator response.
type evalStep struct {
	resp *aiservice.EvaluateResponse
	err  error
}

// scriptedEvaluator replays a fixed response sequence and records every
// request it saw. The optional handler takes over when set.
type scriptedEvaluator struct {
	mu      sync.Mutex
	steps   []evalStep
	calls   []aiservice.EvaluateRequest
	onCall  func(call int, req aiservice.EvaluateRequest)
	handler func(req aiservice.EvaluateRequest) (*aiservice.EvaluateResponse, error)
}

func (e *scriptedEvaluator) Evaluate(_ context.Context, req aiservice.EvaluateRequest) (*aiservice.EvaluateResponse, error) {
	e.mu.Lock()
	idx := len(e.calls)
	e.calls = append(e.calls, req)
	onCall := e.onCall
	e.mu.Unlock()

	if onCall != nil {
		onCall(idx, req)
	}
	if e.handler != nil {
		return e.handler(req)
	}
	if idx >= len(e.steps) {
		return nil, fmt.Errorf("unexpected evaluation call %d", idx)
	}
	step := e.steps[idx]
	return step.resp, step.err
}

func (e *scriptedEvaluator) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// fillStep is one scripted fill response.
type fillStep struct {
	result *aiservice.FillResult
	err    error
}

// scriptedTranslator replays fill responses and delegates refines to a
// per-key function.
type scriptedTranslator struct {
	mu        sync.Mutex
	fillSteps []fillStep
	fillCalls []aiservice.FillRequest
	refineFn  func(req aiservice.RefineRequest) (string, error)
}

func (tr *scriptedTranslator) FillMissing(_ context.Context, req aiservice.FillRequest) (*aiservice.FillResult, error) {
	tr.mu.Lock()
	idx := len(tr.fillCalls)
	tr.fillCalls = append(tr.fillCalls, req)
	tr.mu.Unlock()

	if idx >= len(tr.fillSteps) {
		return nil, fmt.Errorf("unexpected fill call %d", idx)
	}
	step := tr.fillSteps[idx]
	return step.result, step.err
}

func (tr *scriptedTranslator) Refine(_ context.Context, req aiservice.RefineRequest) (string, error) {
	if tr.refineFn == nil {
		return "", fmt.Errorf("no refine handler configured")
	}
	return tr.refineFn(req)
}

func (tr *scriptedTranslator) fillCallCount() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.fillCalls)
}
