package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"locsync/internal/aiservice"
	"locsync/internal/config"
	"locsync/internal/models"
	"locsync/internal/services"

	"github.com/sirupsen/logrus"
)

// ErrRunQuotaExceeded aborts the remaining languages of a multi-language run
// once the service reports exhausted quota.
var ErrRunQuotaExceeded = errors.New("translation run aborted: service quota exhausted")

// FillOutcome reports one language's fill-missing call.
type FillOutcome struct {
	Language   string `json:"language"`
	Missing    int    `json:"missing"`
	Translated int    `json:"translated"`
	Failed     int    `json:"failed"`
	Error      string `json:"error,omitempty"`
}

// RefineFilter selects the rows of a bulk refine. An explicit key list
// overrides the score filter; both empty selects every row of the language.
type RefineFilter struct {
	ScoreBelow *int
	Keys       []string
}

// RefineOutcome reports a bulk refine run.
type RefineOutcome struct {
	Language string `json:"language"`
	Total    int    `json:"total"`
	Refined  int    `json:"refined"`
	Failed   int    `json:"failed"`
}

// TranslationBatchDispatcher drives the external translation service: a
// single fill call per language for missing keys, and concurrent fixed-size
// batches for refinement.
type TranslationBatchDispatcher struct {
	translator         aiservice.Translator
	translationService *services.TranslationService
	languageService    *services.LanguageService
	settingsManager    *config.SystemSettingsManager
}

// NewTranslationBatchDispatcher creates a TranslationBatchDispatcher.
func NewTranslationBatchDispatcher(
	translator aiservice.Translator,
	translationService *services.TranslationService,
	languageService *services.LanguageService,
	settingsManager *config.SystemSettingsManager,
) *TranslationBatchDispatcher {
	return &TranslationBatchDispatcher{
		translator:         translator,
		translationService: translationService,
		languageService:    languageService,
		settingsManager:    settingsManager,
	}
}

// FillMissing sends all untranslated keys of one language in a single service
// call and writes the returned translations back onto their rows.
func (d *TranslationBatchDispatcher) FillMissing(ctx context.Context, lang string) (*FillOutcome, error) {
	rows, err := d.translationService.UntranslatedRows(lang)
	if err != nil {
		return nil, fmt.Errorf("failed to load untranslated rows for %s: %w", lang, err)
	}

	outcome := &FillOutcome{Language: lang, Missing: len(rows)}
	if len(rows) == 0 {
		return outcome, nil
	}

	keys := make([]string, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, r.TranslationKey)
	}

	result, err := d.callFill(ctx, lang, keys)
	if err != nil {
		return nil, err
	}

	outcome.Translated = result.Translated
	outcome.Failed = result.Failed

	for _, t := range result.Translations {
		if t.Text == "" {
			continue
		}
		if err := d.translationService.UpdateTranslatedText(lang, t.Key, t.Text); err != nil {
			logrus.WithError(err).Errorf("Failed to persist translation for %s/%s", lang, t.Key)
			outcome.Failed++
			if outcome.Translated > 0 {
				outcome.Translated--
			}
		}
	}

	logrus.WithFields(logrus.Fields{
		"language":   lang,
		"missing":    outcome.Missing,
		"translated": outcome.Translated,
		"failed":     outcome.Failed,
	}).Info("Fill-missing completed")
	return outcome, nil
}

// callFill issues the fill request, retrying once after backoff on a rate
// limit. Quota errors pass through for the caller to abort on.
func (d *TranslationBatchDispatcher) callFill(ctx context.Context, lang string, keys []string) (*aiservice.FillResult, error) {
	req := aiservice.FillRequest{
		TranslationKeys: keys,
		TargetLanguage:  lang,
		SourceLanguage:  models.MasterLanguage,
	}

	result, err := d.translator.FillMissing(ctx, req)
	if errors.Is(err, aiservice.ErrRateLimited) {
		backoff := time.Duration(d.settingsManager.GetSettings().RateLimitBackoffSeconds) * time.Second
		logrus.Warnf("Rate limited filling %s, backing off %v", lang, backoff)
		if !sleepCtx(ctx, backoff) {
			return nil, ctx.Err()
		}
		result, err = d.translator.FillMissing(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FillAll runs fill-missing for every enabled target language sequentially.
// A quota error aborts the remaining languages; other per-language failures
// are reported and the run continues.
func (d *TranslationBatchDispatcher) FillAll(ctx context.Context) ([]FillOutcome, error) {
	languages, err := d.languageService.EnabledTargetLanguages()
	if err != nil {
		return nil, fmt.Errorf("failed to list target languages: %w", err)
	}

	pause := time.Duration(d.settingsManager.GetSettings().LanguagePauseSeconds) * time.Second
	outcomes := make([]FillOutcome, 0, len(languages))

	for i, lang := range languages {
		outcome, err := d.FillMissing(ctx, lang.Code)
		if err != nil {
			if errors.Is(err, aiservice.ErrQuotaExceeded) {
				outcomes = append(outcomes, FillOutcome{Language: lang.Code, Error: err.Error()})
				return outcomes, ErrRunQuotaExceeded
			}
			logrus.WithError(err).Errorf("Fill-missing failed for %s", lang.Code)
			outcomes = append(outcomes, FillOutcome{Language: lang.Code, Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, *outcome)

		if i < len(languages)-1 && !sleepCtx(ctx, pause) {
			return outcomes, ctx.Err()
		}
	}
	return outcomes, nil
}

// BulkRefine refines the selected rows of one language in fixed-size
// concurrent batches. Within a batch calls run concurrently and are awaited
// together; a pause separates batches. Refined text withdraws prior approval.
func (d *TranslationBatchDispatcher) BulkRefine(ctx context.Context, lang string, filter RefineFilter) (*RefineOutcome, error) {
	language, err := d.languageService.Get(lang)
	if err != nil {
		return nil, fmt.Errorf("unknown language %s: %w", lang, err)
	}

	rows, err := d.translationService.RowsForRefine(lang, filter.ScoreBelow, filter.Keys)
	if err != nil {
		return nil, fmt.Errorf("failed to select refine candidates for %s: %w", lang, err)
	}

	master, err := d.translationService.MasterRows()
	if err != nil {
		return nil, fmt.Errorf("failed to load master rows: %w", err)
	}

	settings := d.settingsManager.GetSettings()
	batchSize := settings.RefineBatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	batchPause := time.Duration(settings.BatchPauseSeconds) * time.Second

	outcome := &RefineOutcome{Language: lang, Total: len(rows)}

	for start := 0; start < len(rows); start += batchSize {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		refined, failed, err := d.refineBatch(ctx, language, batch, master)
		outcome.Refined += refined
		outcome.Failed += failed
		if err != nil {
			return outcome, err
		}

		if end < len(rows) && !sleepCtx(ctx, batchPause) {
			return outcome, ctx.Err()
		}
	}

	logrus.WithFields(logrus.Fields{
		"language": lang,
		"total":    outcome.Total,
		"refined":  outcome.Refined,
		"failed":   outcome.Failed,
	}).Info("Bulk refine completed")
	return outcome, nil
}

// refineBatch runs one concurrent batch. Item failures are counted, a rate
// limit pauses the whole run before the next batch, quota aborts it.
func (d *TranslationBatchDispatcher) refineBatch(ctx context.Context, language *models.Language, batch []models.Translation, master map[string]models.Translation) (refined, failed int, fatal error) {
	type itemResult struct {
		key  string
		text string
		err  error
	}

	results := make([]itemResult, len(batch))
	var wg sync.WaitGroup
	for i, row := range batch {
		wg.Add(1)
		go func(i int, row models.Translation) {
			defer wg.Done()

			english := master[row.TranslationKey]
			text, err := d.translator.Refine(ctx, aiservice.RefineRequest{
				EnglishText:        english.Text(),
				CurrentTranslation: row.Text(),
				TargetLanguage:     language.Code,
				TargetLanguageName: language.Name,
				Context:            row.Context,
				PageLocation:       row.PageLocation,
			})
			results[i] = itemResult{key: row.TranslationKey, text: text, err: err}
		}(i, row)
	}
	wg.Wait()

	rateLimited := false
	for _, r := range results {
		switch {
		case r.err == nil:
			if err := d.translationService.UpdateTranslatedText(language.Code, r.key, r.text); err != nil {
				logrus.WithError(err).Errorf("Failed to persist refined text for %s/%s", language.Code, r.key)
				failed++
				continue
			}
			refined++
		case errors.Is(r.err, aiservice.ErrQuotaExceeded):
			failed++
			return refined, failed, r.err
		case errors.Is(r.err, aiservice.ErrRateLimited):
			rateLimited = true
			failed++
		default:
			logrus.WithError(r.err).Warnf("Refine failed for %s/%s", language.Code, r.key)
			failed++
		}
	}

	if rateLimited {
		backoff := time.Duration(d.settingsManager.GetSettings().RateLimitBackoffSeconds) * time.Second
		logrus.Warnf("Rate limited refining %s, backing off %v before next batch", language.Code, backoff)
		if !sleepCtx(ctx, backoff) {
			return refined, failed, ctx.Err()
		}
	}
	return refined, failed, nil
}

// sleepCtx sleeps for d unless the context ends first. Returns false when
// the context ended.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
