package locales

// MessagesEnUS holds English (US) console messages.
var MessagesEnUS = map[string]string{
	// Common messages
	"success":        "Operation successful",
	"common.success": "Success",
	"error":          "Operation failed",
	"unauthorized":   "Unauthorized",
	"not_found":      "Not found",
	"bad_request":    "Bad request",
	"internal_error": "Internal error",

	// Key synchronization
	"sync.completed":    "Key synchronization completed: {{.Inserted}} placeholder rows inserted",
	"sync.with_errors":  "Key synchronization finished with errors for {{.Failed}} languages",
	"sync.no_languages": "No enabled target languages to synchronize",

	// Batch translation
	"translate.fill_completed":   "Translation fill completed: {{.Translated}} translated, {{.Failed}} failed",
	"translate.refine_completed": "Refinement completed: {{.Refined}} refined, {{.Failed}} failed",
	"translate.quota_exceeded":   "Translation service quota exhausted, remaining languages skipped",

	// Evaluation
	"eval.started":         "Evaluation started for {{.Language}}",
	"eval.run_started":     "Evaluation run started",
	"eval.run_in_progress": "A multi-language evaluation run is already in progress",
	"eval.already_active":  "An evaluation run is already active for this language",
	"eval.paused":          "Evaluation paused",
	"eval.reset":           "Evaluation progress reset",

	// Approval
	"approval.completed":     "Approved {{.Count}} translations",
	"approval.blocked":       "Bulk approval refused: {{.Count}} unapproved rows have empty text",
	"approval.auto_applied":  "Auto-approval applied: {{.Approved}} approved, {{.Flagged}} flagged for review",
	"approval.key_approved":  "Translation approved",
	"approval.key_unapproved": "Translation approval revoked",

	// Visibility
	"visibility.synced": "Language visibility synchronized",

	// Languages
	"language.not_found": "Language not found",
	"language.updated":   "Language updated",

	// Settings
	"settings.update_success": "Settings updated successfully",

	// Config metadata
	"config.category.translation": "Batch Translation",
	"config.category.evaluation":  "Quality Evaluation",
	"config.category.approval":    "Approval Policy",
	"config.category.watchdog":    "Watchdog",

	"config.refine_batch_size":       "Refine batch size",
	"config.refine_batch_size_desc":  "Number of concurrent refine calls per batch",
	"config.batch_pause":             "Inter-batch pause (s)",
	"config.batch_pause_desc":        "Pause between refine batches to respect service rate limits",
	"config.rate_limit_backoff":      "Rate limit backoff (s)",
	"config.rate_limit_backoff_desc": "Wait time after the service returns HTTP 429",
	"config.eval_pause":              "Evaluation pause (ms)",
	"config.eval_pause_desc":         "Pause between evaluation sub-batches",
	"config.language_pause":          "Language pause (s)",
	"config.language_pause_desc":     "Pause between languages in multi-language runs",
	"config.ai_request_timeout":      "Service request timeout (s)",
	"config.ai_request_timeout_desc": "Timeout for a single call to the translation/evaluation service",
	"config.auto_approve_threshold":      "Auto-approve threshold",
	"config.auto_approve_threshold_desc": "Quality score at or above which rows are approved automatically",
	"config.needs_review_threshold":      "Needs-review threshold",
	"config.needs_review_threshold_desc": "Quality score below which rows are flagged for review",
	"config.visibility_threshold":        "Visibility threshold (%)",
	"config.visibility_threshold_desc":   "Approval completion ratio at which a language is shown publicly",
	"config.stuck_after":             "Stuck after (min)",
	"config.stuck_after_desc":        "Heartbeat age after which an in-progress run is considered stuck",
	"config.no_progress_after":       "No progress after (min)",
	"config.no_progress_after_desc":  "Age after which a run with zero evaluated keys is considered stuck",
	"config.watchdog_interval":       "Watchdog interval (min)",
	"config.watchdog_interval_desc":  "How often the stuck-job watchdog scans progress rows",
}
