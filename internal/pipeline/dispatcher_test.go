package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"locsync/internal/aiservice"
	"locsync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher(env *testEnv, translator aiservice.Translator) *TranslationBatchDispatcher {
	return NewTranslationBatchDispatcher(translator, env.translations, env.languages, env.settings)
}

// TestFillMissing_WritesTranslationsBack verifies the single-call fill: all
// missing keys go out in one request and the returned texts land on their
// rows with approval withdrawn.
func TestFillMissing_WritesTranslationsBack(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seedMasterKeys(t, "k1", "k2", "k3")
	env.seedRow(t, models.Translation{
		LanguageCode: "de", TranslationKey: "k1", TranslatedText: strPtr("k1"), Approved: true,
	})
	env.seedRow(t, models.Translation{
		LanguageCode: "de", TranslationKey: "k2", TranslatedText: strPtr(""),
	})
	env.seedRow(t, models.Translation{
		LanguageCode: "de", TranslationKey: "k3", TranslatedText: strPtr("Drei"),
	})

	translator := &scriptedTranslator{
		fillSteps: []fillStep{
			{result: &aiservice.FillResult{
				Translated: 2, Failed: 0, Count: 2,
				Translations: []aiservice.KeyText{
					{Key: "k1", Text: "Eins"},
					{Key: "k2", Text: "Zwei"},
				},
			}},
		},
	}

	dispatcher := newDispatcher(env, translator)
	outcome, err := dispatcher.FillMissing(context.Background(), "de")
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Missing)
	assert.Equal(t, 2, outcome.Translated)
	assert.Equal(t, 0, outcome.Failed)

	require.Equal(t, 1, translator.fillCallCount())
	req := translator.fillCalls[0]
	assert.Equal(t, []string{"k1", "k2"}, req.TranslationKeys)
	assert.Equal(t, "de", req.TargetLanguage)
	assert.Equal(t, models.MasterLanguage, req.SourceLanguage)

	row, err := env.translations.GetRow("de", "k1")
	require.NoError(t, err)
	assert.Equal(t, "Eins", row.Text())
	assert.False(t, row.Approved, "new text withdraws approval")

	row, err = env.translations.GetRow("de", "k2")
	require.NoError(t, err)
	assert.Equal(t, "Zwei", row.Text())
}

// TestFillMissing_NothingMissingSkipsService verifies a fully translated
// language never reaches the external service.
func TestFillMissing_NothingMissingSkipsService(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seedMasterKeys(t, "k1")
	env.seedRow(t, models.Translation{
		LanguageCode: "de", TranslationKey: "k1", TranslatedText: strPtr("Eins"),
	})

	translator := &scriptedTranslator{}
	dispatcher := newDispatcher(env, translator)
	outcome, err := dispatcher.FillMissing(context.Background(), "de")
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Missing)
	assert.Equal(t, 0, translator.fillCallCount())
}

// TestFillMissing_RetriesOnceAfterRateLimit verifies the fill call backs off
// and retries a single time on a 429.
func TestFillMissing_RetriesOnceAfterRateLimit(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seedMasterKeys(t, "k1")
	env.seedRow(t, models.Translation{
		LanguageCode: "de", TranslationKey: "k1", TranslatedText: strPtr("k1"),
	})

	translator := &scriptedTranslator{
		fillSteps: []fillStep{
			{err: aiservice.ErrRateLimited},
			{result: &aiservice.FillResult{
				Translated: 1, Count: 1,
				Translations: []aiservice.KeyText{{Key: "k1", Text: "Eins"}},
			}},
		},
	}

	dispatcher := newDispatcher(env, translator)
	outcome, err := dispatcher.FillMissing(context.Background(), "de")
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Translated)
	assert.Equal(t, 2, translator.fillCallCount())
}

// TestFillAll_QuotaAbortsRemainingLanguages verifies exhausted quota stops
// the multi-language run before the next language is attempted.
func TestFillAll_QuotaAbortsRemainingLanguages(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seedLanguage(t, "de", "German", 10)
	env.seedLanguage(t, "fr", "French", 20)
	env.seedMasterKeys(t, "k1")
	for _, lang := range []string{"de", "fr"} {
		env.seedRow(t, models.Translation{
			LanguageCode: lang, TranslationKey: "k1", TranslatedText: strPtr("k1"),
		})
	}

	translator := &scriptedTranslator{
		fillSteps: []fillStep{{err: aiservice.ErrQuotaExceeded}},
	}

	dispatcher := newDispatcher(env, translator)
	outcomes, err := dispatcher.FillAll(context.Background())
	require.ErrorIs(t, err, ErrRunQuotaExceeded)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "de", outcomes[0].Language)
	assert.Contains(t, outcomes[0].Error, "quota")
	assert.Equal(t, 1, translator.fillCallCount(), "fr must not be attempted")
}

// TestFillAll_LanguageFailureContinues verifies an ordinary per-language
// failure is reported in its outcome and the run moves on.
func TestFillAll_LanguageFailureContinues(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seedLanguage(t, "de", "German", 10)
	env.seedLanguage(t, "fr", "French", 20)
	env.seedMasterKeys(t, "k1")
	for _, lang := range []string{"de", "fr"} {
		env.seedRow(t, models.Translation{
			LanguageCode: lang, TranslationKey: "k1", TranslatedText: strPtr("k1"),
		})
	}

	translator := &scriptedTranslator{
		fillSteps: []fillStep{
			{err: errors.New("upstream exploded")},
			{result: &aiservice.FillResult{
				Translated: 1, Count: 1,
				Translations: []aiservice.KeyText{{Key: "k1", Text: "Un"}},
			}},
		},
	}

	dispatcher := newDispatcher(env, translator)
	outcomes, err := dispatcher.FillAll(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Contains(t, outcomes[0].Error, "upstream exploded")
	assert.Equal(t, "fr", outcomes[1].Language)
	assert.Equal(t, 1, outcomes[1].Translated)
}

// TestBulkRefine_RefinesSelectedRows verifies score-based selection and the
// full refine request context, and that refined text withdraws approval.
func TestBulkRefine_RefinesSelectedRows(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seedLanguage(t, "de", "German", 10)
	env.seedMasterKeys(t, "k1", "k2", "k3")
	env.seedRow(t, models.Translation{
		LanguageCode: "de", TranslationKey: "k1", TranslatedText: strPtr("Eins"),
		Approved: true, QualityScore: intPtr(40), PageLocation: "home", Context: "ctx:k1",
	})
	env.seedRow(t, models.Translation{
		LanguageCode: "de", TranslationKey: "k2", TranslatedText: strPtr("Zwei"),
		QualityScore: intPtr(50),
	})
	env.seedRow(t, models.Translation{
		LanguageCode: "de", TranslationKey: "k3", TranslatedText: strPtr("Drei"),
		QualityScore: intPtr(90),
	})

	translator := &scriptedTranslator{
		refineFn: func(req aiservice.RefineRequest) (string, error) {
			assert.Equal(t, "de", req.TargetLanguage)
			assert.Equal(t, "German", req.TargetLanguageName)
			assert.True(t, strings.HasPrefix(req.EnglishText, "English "))
			return "Refined " + req.CurrentTranslation, nil
		},
	}

	dispatcher := newDispatcher(env, translator)
	outcome, err := dispatcher.BulkRefine(context.Background(), "de", RefineFilter{ScoreBelow: intPtr(60)})
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Total)
	assert.Equal(t, 2, outcome.Refined)
	assert.Equal(t, 0, outcome.Failed)

	row, err := env.translations.GetRow("de", "k1")
	require.NoError(t, err)
	assert.Equal(t, "Refined Eins", row.Text())
	assert.False(t, row.Approved)

	row, err = env.translations.GetRow("de", "k3")
	require.NoError(t, err)
	assert.Equal(t, "Drei", row.Text(), "rows above the score filter are untouched")
}

// TestBulkRefine_CountsItemFailures verifies one failing item never sinks the
// rest of its batch.
func TestBulkRefine_CountsItemFailures(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seedLanguage(t, "de", "German", 10)
	env.seedMasterKeys(t, "k1", "k2")
	env.seedRow(t, models.Translation{
		LanguageCode: "de", TranslationKey: "k1", TranslatedText: strPtr("Eins"),
	})
	env.seedRow(t, models.Translation{
		LanguageCode: "de", TranslationKey: "k2", TranslatedText: strPtr("Zwei"),
	})

	translator := &scriptedTranslator{
		refineFn: func(req aiservice.RefineRequest) (string, error) {
			if req.CurrentTranslation == "Zwei" {
				return "", errors.New("model declined")
			}
			return "Refined " + req.CurrentTranslation, nil
		},
	}

	dispatcher := newDispatcher(env, translator)
	outcome, err := dispatcher.BulkRefine(context.Background(), "de", RefineFilter{Keys: []string{"k1", "k2"}})
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Total)
	assert.Equal(t, 1, outcome.Refined)
	assert.Equal(t, 1, outcome.Failed)
}

// TestBulkRefine_QuotaAborts verifies exhausted quota is fatal for the whole
// refine run.
func TestBulkRefine_QuotaAborts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seedLanguage(t, "de", "German", 10)
	env.seedMasterKeys(t, "k1", "k2")
	env.seedRow(t, models.Translation{
		LanguageCode: "de", TranslationKey: "k1", TranslatedText: strPtr("Eins"),
	})
	env.seedRow(t, models.Translation{
		LanguageCode: "de", TranslationKey: "k2", TranslatedText: strPtr("Zwei"),
	})

	translator := &scriptedTranslator{
		refineFn: func(req aiservice.RefineRequest) (string, error) {
			return "", aiservice.ErrQuotaExceeded
		},
	}

	dispatcher := newDispatcher(env, translator)
	outcome, err := dispatcher.BulkRefine(context.Background(), "de", RefineFilter{})
	require.ErrorIs(t, err, aiservice.ErrQuotaExceeded)
	require.NotNil(t, outcome)
	assert.GreaterOrEqual(t, outcome.Failed, 1)
	assert.Equal(t, 0, outcome.Refined)
}

// TestBulkRefine_UnknownLanguage verifies the language must exist before any
// rows are selected.
func TestBulkRefine_UnknownLanguage(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	dispatcher := newDispatcher(env, &scriptedTranslator{})
	_, err := dispatcher.BulkRefine(context.Background(), "xx", RefineFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown language")
}
