package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"locsync/internal/config"
	"locsync/internal/models"
	"locsync/internal/services"

	"github.com/sirupsen/logrus"
)

// StuckJobDetector periodically resets evaluation runs whose heartbeat went
// stale, so a crashed or hung run never blocks the language forever. Resets
// clear only the resumability checkpoint, translated text and quality scores
// are untouched.
type StuckJobDetector struct {
	progressService *services.ProgressService
	visibilitySync  *VisibilitySync
	settingsManager *config.SystemSettingsManager
	stopCh          chan struct{}
	wg              sync.WaitGroup
}

// NewStuckJobDetector creates a StuckJobDetector.
func NewStuckJobDetector(
	progressService *services.ProgressService,
	visibilitySync *VisibilitySync,
	settingsManager *config.SystemSettingsManager,
) *StuckJobDetector {
	return &StuckJobDetector{
		progressService: progressService,
		visibilitySync:  visibilitySync,
		settingsManager: settingsManager,
		stopCh:          make(chan struct{}),
	}
}

// Start launches the background watchdog loop.
func (d *StuckJobDetector) Start() {
	d.wg.Add(1)
	go d.run()
	logrus.Debug("Stuck job detector started")
}

// Stop stops the watchdog gracefully.
func (d *StuckJobDetector) Stop(ctx context.Context) {
	close(d.stopCh)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logrus.Info("StuckJobDetector stopped gracefully.")
	case <-ctx.Done():
		logrus.Warn("StuckJobDetector stop timed out.")
	}
}

func (d *StuckJobDetector) run() {
	defer d.wg.Done()

	interval := time.Duration(d.settingsManager.GetSettings().WatchdogIntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := d.SweepOnce(); n > 0 {
				// Visibility may change after resets free up languages for
				// fresh evaluation runs.
				if _, err := d.visibilitySync.SyncAll(); err != nil {
					logrus.WithError(err).Warn("Visibility sync after watchdog sweep failed")
				}
			}

			// Pick up a changed interval without restarting the service
			if next := time.Duration(d.settingsManager.GetSettings().WatchdogIntervalMinutes) * time.Minute; next != interval && next > 0 {
				interval = next
				ticker.Reset(interval)
			}
		case <-d.stopCh:
			return
		}
	}
}

// SweepOnce resets every stuck run and returns how many were reset. A run is
// stuck when in_progress with a heartbeat older than the staleness threshold,
// or when it never made initial progress within the no-progress threshold.
func (d *StuckJobDetector) SweepOnce() int {
	settings := d.settingsManager.GetSettings()
	stuckAfter := time.Duration(settings.StuckAfterMinutes) * time.Minute
	noProgressAfter := time.Duration(settings.NoProgressAfterMinutes) * time.Minute

	stuck, err := d.progressService.FindStuck(stuckAfter, noProgressAfter)
	if err != nil {
		logrus.WithError(err).Error("Failed to scan for stuck evaluation runs")
		return 0
	}

	reset := 0
	for _, row := range stuck {
		if err := d.progressService.Reset(row.LanguageCode); err != nil {
			logrus.WithError(err).Errorf("Failed to reset stuck run for %s", row.LanguageCode)
			continue
		}
		reset++
		logrus.WithFields(logrus.Fields{
			"language":       row.LanguageCode,
			"evaluated_keys": row.EvaluatedKeys,
			"last_heartbeat": row.UpdatedAt,
		}).Warn("Reset stuck evaluation run")
	}
	return reset
}

// ResetLanguage is the operator-initiated reset. Only error or in_progress
// rows may be reset, resetting an active healthy run is guarded by status.
func (d *StuckJobDetector) ResetLanguage(lang string) error {
	progress, err := d.progressService.Get(lang)
	if err != nil {
		return err
	}
	if progress.Status != models.EvalStatusError &&
		progress.Status != models.EvalStatusInProgress &&
		progress.Status != models.EvalStatusPaused {
		return fmt.Errorf("cannot reset run in status %q", progress.Status)
	}
	return d.progressService.Reset(lang)
}
