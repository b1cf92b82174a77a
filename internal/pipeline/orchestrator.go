package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"locsync/internal/aiservice"
	"locsync/internal/config"
	"locsync/internal/models"
	"locsync/internal/services"
	"locsync/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	evalLeasePrefix = "eval:lease:"
	evalPausePrefix = "eval:pause:"

	// EvaluateAllLeaseKey guards the multi-language run, only one may be
	// active at a time.
	EvaluateAllLeaseKey = "task:evaluate_all"
)

// ErrRunInProgress is returned when a language already has an active run.
var ErrRunInProgress = errors.New("an evaluation run is already active for this language")

// EvaluationLeaseKey returns the store key guarding a language's run.
func EvaluationLeaseKey(lang string) string {
	return evalLeasePrefix + lang
}

// EvaluationOrchestrator drives the resumable per-language evaluation loop.
// The persisted EvaluationProgress row is the only state that survives a
// restart; the orchestrator itself holds nothing between invocations.
type EvaluationOrchestrator struct {
	evaluator          aiservice.Evaluator
	translationService *services.TranslationService
	progressService    *services.ProgressService
	languageService    *services.LanguageService
	settingsManager    *config.SystemSettingsManager
	store              store.Store
}

// NewEvaluationOrchestrator creates an EvaluationOrchestrator.
func NewEvaluationOrchestrator(
	evaluator aiservice.Evaluator,
	translationService *services.TranslationService,
	progressService *services.ProgressService,
	languageService *services.LanguageService,
	settingsManager *config.SystemSettingsManager,
	storage store.Store,
) *EvaluationOrchestrator {
	return &EvaluationOrchestrator{
		evaluator:          evaluator,
		translationService: translationService,
		progressService:    progressService,
		languageService:    languageService,
		settingsManager:    settingsManager,
		store:              storage,
	}
}

// leaseTTL derives the per-language lease lifetime from the watchdog's
// staleness threshold, so an abandoned lease expires no later than the row
// would be considered stuck.
func (o *EvaluationOrchestrator) leaseTTL() time.Duration {
	return time.Duration(o.settingsManager.GetSettings().StuckAfterMinutes) * time.Minute
}

// Running reports whether a language currently holds a run lease.
func (o *EvaluationOrchestrator) Running(lang string) (bool, error) {
	return o.store.Exists(EvaluationLeaseKey(lang))
}

// EvaluateLanguage runs (or resumes) the evaluation loop for one language
// until it completes, pauses, or fails. Concurrent runs of the same language
// are rejected through a store lease.
func (o *EvaluationOrchestrator) EvaluateLanguage(ctx context.Context, lang string) error {
	leaseKey := EvaluationLeaseKey(lang)
	runID := uuid.NewString()

	acquired, err := o.store.SetNX(leaseKey, []byte(runID), o.leaseTTL())
	if err != nil {
		return fmt.Errorf("failed to acquire run lease for %s: %w", lang, err)
	}
	if !acquired {
		return ErrRunInProgress
	}
	defer func() {
		if err := o.store.Delete(leaseKey); err != nil {
			logrus.WithError(err).Warnf("Failed to release run lease for %s", lang)
		}
	}()

	log := logrus.WithFields(logrus.Fields{"language": lang, "run_id": runID})

	progress, err := o.progressService.LoadOrCreate(lang)
	if err != nil {
		return fmt.Errorf("failed to load progress for %s: %w", lang, err)
	}

	var startFromKey *string
	if (progress.Status == models.EvalStatusInProgress || progress.Status == models.EvalStatusPaused) &&
		progress.LastEvaluatedKey != nil {
		startFromKey = progress.LastEvaluatedKey
		log.Infof("Resuming evaluation from watermark %q (%d/%d)", *startFromKey, progress.EvaluatedKeys, progress.TotalKeys)
	} else {
		log.Info("Starting evaluation from the beginning")
	}

	if err := o.progressService.SetStatus(lang, models.EvalStatusInProgress); err != nil {
		return fmt.Errorf("failed to mark %s in progress: %w", lang, err)
	}

	settings := o.settingsManager.GetSettings()
	stepPause := time.Duration(settings.EvalPauseMillis) * time.Millisecond

	for {
		if err := ctx.Err(); err != nil {
			// Shutdown mid-run leaves the row in_progress with an intact
			// watermark; the next invocation resumes from it.
			return err
		}

		paused, err := o.consumePauseSignal(lang)
		if err != nil {
			log.WithError(err).Warn("Failed to read pause signal, continuing")
		}
		if paused {
			if err := o.progressService.SetStatus(lang, models.EvalStatusPaused); err != nil {
				return fmt.Errorf("failed to mark %s paused: %w", lang, err)
			}
			log.Info("Evaluation paused on request, watermark preserved")
			return nil
		}

		resp, err := o.evaluator.Evaluate(ctx, aiservice.EvaluateRequest{
			LanguageCode:   lang,
			SourceLanguage: models.MasterLanguage,
			StartFromKey:   startFromKey,
		})
		if err != nil {
			if errors.Is(err, aiservice.ErrRateLimited) {
				backoff := time.Duration(o.settingsManager.GetSettings().RateLimitBackoffSeconds) * time.Second
				log.Warnf("Rate limited, backing off %v and retrying the same step", backoff)
				if !sleepCtx(ctx, backoff) {
					return ctx.Err()
				}
				continue
			}
			return o.classifyStepError(log, lang, err)
		}

		// The verdicts and the watermark must both be durable before the
		// next sub-batch is requested; a failed write would otherwise lose
		// or repeat keys after a crash.
		if len(resp.Results) > 0 {
			if _, err := o.translationService.ApplyScores(lang, toKeyScores(resp.Results)); err != nil {
				o.failRun(log, lang, fmt.Sprintf("persisting scores failed: %v", err))
				return fmt.Errorf("aborting %s run, failed to persist scores: %w", lang, err)
			}
		}

		if !resp.Partial {
			if err := o.progressService.MarkCompleted(lang, resp.TotalEvaluated, resp.TotalKeys); err != nil {
				return fmt.Errorf("failed to mark %s completed: %w", lang, err)
			}
			log.WithFields(logrus.Fields{
				"evaluated":     resp.TotalEvaluated,
				"total":         resp.TotalKeys,
				"average_score": resp.AverageScore,
				"high":          resp.HighQuality,
				"medium":        resp.MediumQuality,
				"low":           resp.LowQuality,
			}).Info("Evaluation completed")
			return nil
		}

		if err := o.progressService.SaveCheckpoint(lang, resp.TotalEvaluated, resp.TotalKeys, resp.LastKey); err != nil {
			o.failRun(log, lang, fmt.Sprintf("persisting watermark failed: %v", err))
			return fmt.Errorf("aborting %s run, failed to persist watermark: %w", lang, err)
		}
		log.Debugf("Checkpoint persisted at %q (%d/%d)", resp.LastKey, resp.TotalEvaluated, resp.TotalKeys)

		if err := o.store.Set(evalLeasePrefix+lang, []byte(runID), o.leaseTTL()); err != nil {
			log.WithError(err).Warn("Failed to refresh run lease")
		}

		lastKey := resp.LastKey
		startFromKey = &lastKey

		if !sleepCtx(ctx, stepPause) {
			return ctx.Err()
		}
	}
}

// classifyStepError applies the error taxonomy to one failed evaluation step.
// Rate limits are handled in the loop itself since they retry in place.
func (o *EvaluationOrchestrator) classifyStepError(log *logrus.Entry, lang string, err error) error {
	switch {
	case errors.Is(err, aiservice.ErrTimeout):
		log.Warn("Evaluation step timed out, pausing run with watermark intact")
		if setErr := o.progressService.SetStatus(lang, models.EvalStatusPaused); setErr != nil {
			return fmt.Errorf("failed to mark %s paused after timeout: %w", lang, setErr)
		}
		return nil
	case errors.Is(err, aiservice.ErrQuotaExceeded):
		o.failRun(log, lang, "evaluation service quota exhausted")
		return fmt.Errorf("%s: %w", lang, err)
	default:
		o.failRun(log, lang, err.Error())
		return fmt.Errorf("evaluation failed for %s: %w", lang, err)
	}
}

// failRun records a terminal error on the progress row.
func (o *EvaluationOrchestrator) failRun(log *logrus.Entry, lang, message string) {
	if err := o.progressService.MarkError(lang, message); err != nil {
		log.WithError(err).Error("Failed to record run error")
	}
	log.Errorf("Evaluation run failed: %s", message)
}

// RequestPause sets the cooperative pause flag. The in-flight service call is
// not interrupted; the loop stops before issuing the next one.
func (o *EvaluationOrchestrator) RequestPause(lang string) error {
	ttl := o.leaseTTL()
	return o.store.Set(evalPausePrefix+lang, []byte("1"), ttl)
}

// consumePauseSignal reports and clears a pending pause request.
func (o *EvaluationOrchestrator) consumePauseSignal(lang string) (bool, error) {
	key := evalPausePrefix + lang
	exists, err := o.store.Exists(key)
	if err != nil || !exists {
		return false, err
	}
	if err := o.store.Delete(key); err != nil {
		return true, err
	}
	return true, nil
}

// EvaluateAll drives all enabled target languages strictly sequentially. The
// external service is shared and rate limited, parallel languages would
// defeat the backoff strategy. Completed languages are skipped unless force
// is set. Per-language failures are logged and the driver moves on.
func (o *EvaluationOrchestrator) EvaluateAll(ctx context.Context, force bool) error {
	languages, err := o.languageService.EnabledTargetLanguages()
	if err != nil {
		return fmt.Errorf("failed to list target languages: %w", err)
	}

	pause := time.Duration(o.settingsManager.GetSettings().LanguagePauseSeconds) * time.Second

	for i, lang := range languages {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !force {
			progress, err := o.progressService.LoadOrCreate(lang.Code)
			if err != nil {
				return fmt.Errorf("failed to load progress for %s: %w", lang.Code, err)
			}
			if progress.Status == models.EvalStatusCompleted {
				logrus.Debugf("Skipping %s, already completed", lang.Code)
				continue
			}
		}

		if err := o.EvaluateLanguage(ctx, lang.Code); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			logrus.WithError(err).Errorf("Evaluation run failed for %s, continuing with next language", lang.Code)
		}

		if i < len(languages)-1 && !sleepCtx(ctx, pause) {
			return ctx.Err()
		}
	}
	return nil
}

// Progress returns all checkpoint rows for the console.
func (o *EvaluationOrchestrator) Progress() ([]models.EvaluationProgress, error) {
	return o.progressService.List()
}

func toKeyScores(results []aiservice.KeyEvaluation) []services.KeyScore {
	scores := make([]services.KeyScore, 0, len(results))
	for _, r := range results {
		metrics := models.QualityMetrics{
			Strengths: r.Strengths,
			Issues:    r.Issues,
		}
		for _, t := range r.TechnicalTermIssues {
			metrics.TechnicalTermIssues = append(metrics.TechnicalTermIssues, models.TechnicalTermIssue{
				Term:       t.Term,
				Suggestion: t.Suggestion,
				Confidence: t.Confidence,
			})
		}
		scores = append(scores, services.KeyScore{Key: r.Key, Score: r.Score, Metrics: metrics})
	}
	return scores
}
