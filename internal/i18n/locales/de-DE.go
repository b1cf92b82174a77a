package locales

// MessagesDeDE holds German console messages.
var MessagesDeDE = map[string]string{
	"success":        "Vorgang erfolgreich",
	"common.success": "Erfolg",
	"error":          "Vorgang fehlgeschlagen",
	"unauthorized":   "Nicht autorisiert",
	"not_found":      "Nicht gefunden",
	"bad_request":    "Ungültige Anfrage",
	"internal_error": "Interner Fehler",

	"sync.completed":    "Schlüsselabgleich abgeschlossen: {{.Inserted}} Platzhalterzeilen eingefügt",
	"sync.with_errors":  "Schlüsselabgleich mit Fehlern für {{.Failed}} Sprachen beendet",
	"sync.no_languages": "Keine aktivierten Zielsprachen zum Abgleichen",

	"translate.fill_completed":   "Übersetzung abgeschlossen: {{.Translated}} übersetzt, {{.Failed}} fehlgeschlagen",
	"translate.refine_completed": "Verfeinerung abgeschlossen: {{.Refined}} verfeinert, {{.Failed}} fehlgeschlagen",
	"translate.quota_exceeded":   "Kontingent des Übersetzungsdienstes erschöpft, verbleibende Sprachen übersprungen",

	"eval.started":         "Bewertung für {{.Language}} gestartet",
	"eval.run_started":     "Bewertungslauf gestartet",
	"eval.run_in_progress": "Ein mehrsprachiger Bewertungslauf ist bereits aktiv",
	"eval.already_active":  "Für diese Sprache läuft bereits eine Bewertung",
	"eval.paused":          "Bewertung pausiert",
	"eval.reset":           "Bewertungsfortschritt zurückgesetzt",

	"approval.completed":      "{{.Count}} Übersetzungen freigegeben",
	"approval.blocked":        "Massenfreigabe verweigert: {{.Count}} Zeilen ohne Text",
	"approval.auto_applied":   "Auto-Freigabe angewendet: {{.Approved}} freigegeben, {{.Flagged}} zur Prüfung markiert",
	"approval.key_approved":   "Übersetzung freigegeben",
	"approval.key_unapproved": "Freigabe zurückgezogen",

	"visibility.synced": "Sichtbarkeit der Sprachen synchronisiert",

	"language.not_found": "Sprache nicht gefunden",
	"language.updated":   "Sprache aktualisiert",

	"settings.update_success": "Einstellungen erfolgreich aktualisiert",

	"config.category.translation": "Stapelübersetzung",
	"config.category.evaluation":  "Qualitätsbewertung",
	"config.category.approval":    "Freigaberichtlinie",
	"config.category.watchdog":    "Überwachung",

	"config.refine_batch_size":       "Verfeinerungs-Stapelgröße",
	"config.refine_batch_size_desc":  "Anzahl gleichzeitiger Verfeinerungsaufrufe pro Stapel",
	"config.batch_pause":             "Pause zwischen Stapeln (s)",
	"config.batch_pause_desc":        "Pause zwischen Verfeinerungsstapeln zur Schonung der Dienst-Ratenlimits",
	"config.rate_limit_backoff":      "Wartezeit bei Ratenlimit (s)",
	"config.rate_limit_backoff_desc": "Wartezeit nachdem der Dienst HTTP 429 meldet",
	"config.eval_pause":              "Bewertungspause (ms)",
	"config.eval_pause_desc":         "Pause zwischen Bewertungs-Teilschritten",
	"config.language_pause":          "Sprachpause (s)",
	"config.language_pause_desc":     "Pause zwischen Sprachen in mehrsprachigen Läufen",
	"config.ai_request_timeout":      "Dienst-Timeout (s)",
	"config.ai_request_timeout_desc": "Zeitlimit für einen einzelnen Aufruf des Übersetzungs-/Bewertungsdienstes",
	"config.auto_approve_threshold":      "Schwelle für Auto-Freigabe",
	"config.auto_approve_threshold_desc": "Qualitätswert, ab dem Zeilen automatisch freigegeben werden",
	"config.needs_review_threshold":      "Schwelle für Prüfbedarf",
	"config.needs_review_threshold_desc": "Qualitätswert, unterhalb dessen Zeilen zur Prüfung markiert werden",
	"config.visibility_threshold":        "Sichtbarkeitsschwelle (%)",
	"config.visibility_threshold_desc":   "Freigabequote, ab der eine Sprache öffentlich angezeigt wird",
	"config.stuck_after":             "Hängend nach (min)",
	"config.stuck_after_desc":        "Heartbeat-Alter, ab dem ein laufender Durchlauf als hängend gilt",
	"config.no_progress_after":       "Ohne Fortschritt nach (min)",
	"config.no_progress_after_desc":  "Alter, ab dem ein Durchlauf ohne bewertete Schlüssel als hängend gilt",
	"config.watchdog_interval":       "Überwachungsintervall (min)",
	"config.watchdog_interval_desc":  "Abstand, in dem die Überwachung die Fortschrittszeilen prüft",
}
