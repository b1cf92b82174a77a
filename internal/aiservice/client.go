// Package aiservice implements the HTTP client for the external translation
// and evaluation service. The pipeline consumes the Evaluator and Translator
// interfaces so tests can inject scripted fakes.
package aiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"locsync/internal/httpclient"
	"locsync/internal/types"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Sentinel errors for the caller to classify with errors.Is.
var (
	// ErrRateLimited indicates a 429 from the service. Callers back off and retry.
	ErrRateLimited = errors.New("ai service rate limited")
	// ErrQuotaExceeded indicates a 402. The run must abort, retrying wastes calls.
	ErrQuotaExceeded = errors.New("ai service quota exceeded")
	// ErrTimeout indicates a network timeout. Recoverable, the caller may pause
	// and resume from the persisted watermark.
	ErrTimeout = errors.New("ai service request timed out")
)

// EvaluateRequest identifies the language to evaluate and the resume point.
type EvaluateRequest struct {
	LanguageCode   string  `json:"languageCode"`
	SourceLanguage string  `json:"sourceLanguage"`
	StartFromKey   *string `json:"startFromKey"`
}

// KeyEvaluation is the per-key verdict carried in a response's results array.
type KeyEvaluation struct {
	Key                 string
	Score               int
	Strengths           []string
	Issues              []string
	TechnicalTermIssues []TermIssue
}

// TermIssue flags a mistranslated domain term.
type TermIssue struct {
	Term       string
	Suggestion string
	Confidence float64
}

// EvaluateResponse covers both the partial and final shapes of the
// evaluation endpoint. Partial is true when the service asks to be called
// again from LastKey. Results holds the per-key verdicts of this step and
// must be persisted before the next call.
type EvaluateResponse struct {
	Partial        bool
	LastKey        string
	TotalEvaluated int
	TotalKeys      int
	Status         string
	AverageScore   float64
	HighQuality    int
	MediumQuality  int
	LowQuality     int
	Results        []KeyEvaluation
}

// FillRequest carries all missing keys of one language in a single call.
type FillRequest struct {
	TranslationKeys []string `json:"translationKeys"`
	TargetLanguage  string   `json:"targetLanguage"`
	SourceLanguage  string   `json:"sourceLanguage"`
}

// KeyText is one translated key carried in a fill response.
type KeyText struct {
	Key  string
	Text string
}

// FillResult reports per-call counts from the fill endpoint plus the
// translated texts to write back.
type FillResult struct {
	Translated   int
	Failed       int
	Count        int
	Translations []KeyText
}

// RefineRequest carries the full context for refining one translation.
type RefineRequest struct {
	EnglishText        string `json:"englishText"`
	CurrentTranslation string `json:"currentTranslation"`
	TargetLanguage     string `json:"targetLanguage"`
	TargetLanguageName string `json:"targetLanguageName"`
	Context            string `json:"context"`
	PageLocation       string `json:"pageLocation"`
	TovContent         string `json:"tovContent"`
}

// Evaluator is the evaluation endpoint as seen by the orchestrator.
type Evaluator interface {
	Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluateResponse, error)
}

// Translator is the fill/refine surface as seen by the batch dispatcher.
type Translator interface {
	FillMissing(ctx context.Context, req FillRequest) (*FillResult, error)
	Refine(ctx context.Context, req RefineRequest) (string, error)
}

// Client talks to the external AI service over HTTP JSON.
type Client struct {
	configManager   types.ConfigManager
	settingsManager SettingsProvider
	clientManager   *httpclient.Manager
}

// SettingsProvider exposes the one tunable the client needs. Satisfied by
// config.SystemSettingsManager.
type SettingsProvider interface {
	GetSettings() types.SystemSettings
}

// NewClient creates the AI service client.
func NewClient(configManager types.ConfigManager, settingsManager SettingsProvider, clientManager *httpclient.Manager) *Client {
	return &Client{
		configManager:   configManager,
		settingsManager: settingsManager,
		clientManager:   clientManager,
	}
}

var _ Evaluator = (*Client)(nil)
var _ Translator = (*Client)(nil)

// Evaluate runs one evaluation step for a language, starting after the
// given watermark key.
func (c *Client) Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluateResponse, error) {
	if req.SourceLanguage == "" {
		req.SourceLanguage = "en"
	}

	body, err := c.post(ctx, "/evaluate-translations", req)
	if err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(body)
	resp := &EvaluateResponse{
		TotalEvaluated: int(parsed.Get("totalEvaluated").Int()),
		TotalKeys:      int(parsed.Get("totalKeys").Int()),
		Results:        parseKeyEvaluations(parsed.Get("results")),
	}

	if parsed.Get("shouldContinue").Bool() {
		resp.Partial = true
		resp.LastKey = parsed.Get("lastKey").String()
		if resp.LastKey == "" {
			return nil, fmt.Errorf("evaluation service returned partial result without lastKey")
		}
		return resp, nil
	}

	resp.Status = parsed.Get("status").String()
	resp.AverageScore = parsed.Get("averageScore").Float()
	resp.HighQuality = int(parsed.Get("highQuality").Int())
	resp.MediumQuality = int(parsed.Get("mediumQuality").Int())
	resp.LowQuality = int(parsed.Get("lowQuality").Int())
	return resp, nil
}

// FillMissing sends all missing keys of one language in a single request.
func (c *Client) FillMissing(ctx context.Context, req FillRequest) (*FillResult, error) {
	if req.SourceLanguage == "" {
		req.SourceLanguage = "en"
	}

	body, err := c.post(ctx, "/translate-keys", req)
	if err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(body)
	result := &FillResult{
		Translated: int(parsed.Get("translated").Int()),
		Failed:     int(parsed.Get("failed").Int()),
		Count:      int(parsed.Get("count").Int()),
	}
	parsed.Get("translations").ForEach(func(_, item gjson.Result) bool {
		key := item.Get("key").String()
		if key != "" {
			result.Translations = append(result.Translations, KeyText{
				Key:  key,
				Text: item.Get("text").String(),
			})
		}
		return true
	})
	return result, nil
}

// Refine asks for an improved translation of a single key. The configured
// tone-of-voice guide is attached unless the caller already set one.
func (c *Client) Refine(ctx context.Context, req RefineRequest) (string, error) {
	if req.TovContent == "" {
		req.TovContent = c.configManager.GetAIServiceConfig().ToneOfVoice
	}

	body, err := c.post(ctx, "/refine-translation", req)
	if err != nil {
		return "", err
	}

	refined := gjson.GetBytes(body, "refinedText").String()
	if refined == "" {
		return "", fmt.Errorf("refine service returned empty refinedText")
	}
	return refined, nil
}

// post issues a JSON POST and returns the raw response body, mapping
// transport and status errors to the package sentinels.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	aiConfig := c.configManager.GetAIServiceConfig()
	if aiConfig.BaseURL == "" {
		return nil, fmt.Errorf("AI_SERVICE_URL is not configured")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, aiConfig.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if aiConfig.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+aiConfig.APIKey)
	}

	timeout := time.Duration(c.settingsManager.GetSettings().AIRequestTimeoutSeconds) * time.Second
	client := c.clientManager.GetClient(httpclient.DefaultConfig(timeout))

	resp, err := client.Do(req)
	if err != nil {
		if isTimeoutError(err) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, path)
		}
		return nil, fmt.Errorf("ai service request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		if isTimeoutError(err) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, path)
		}
		return nil, fmt.Errorf("failed to read ai service response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, path)
	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, fmt.Errorf("%w: %s", ErrQuotaExceeded, path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		logrus.WithFields(logrus.Fields{
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("AI service returned error status")
		return nil, fmt.Errorf("ai service returned status %d for %s", resp.StatusCode, path)
	}

	return body, nil
}

// parseKeyEvaluations extracts the optional per-key results array.
func parseKeyEvaluations(results gjson.Result) []KeyEvaluation {
	if !results.IsArray() {
		return nil
	}
	var evals []KeyEvaluation
	results.ForEach(func(_, item gjson.Result) bool {
		eval := KeyEvaluation{
			Key:   item.Get("key").String(),
			Score: int(item.Get("score").Int()),
		}
		item.Get("strengths").ForEach(func(_, s gjson.Result) bool {
			eval.Strengths = append(eval.Strengths, s.String())
			return true
		})
		item.Get("issues").ForEach(func(_, s gjson.Result) bool {
			eval.Issues = append(eval.Issues, s.String())
			return true
		})
		item.Get("technicalTermIssues").ForEach(func(_, t gjson.Result) bool {
			eval.TechnicalTermIssues = append(eval.TechnicalTermIssues, TermIssue{
				Term:       t.Get("term").String(),
				Suggestion: t.Get("suggestion").String(),
				Confidence: t.Get("confidence").Float(),
			})
			return true
		})
		if eval.Key != "" {
			evals = append(evals, eval)
		}
		return true
	})
	return evals
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
