package config

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"locsync/internal/models"
	"locsync/internal/store"
	"locsync/internal/types"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settingsUpdateChannel is the store pub/sub channel used to propagate
// settings changes to other nodes.
const settingsUpdateChannel = "system_settings:updated"

// SystemSettingsManager serves hot-reloadable pipeline tunables from the
// system_settings table, with an in-memory cache refreshed on updates.
type SystemSettingsManager struct {
	db       *gorm.DB
	storage  store.Store
	isMaster bool

	mu       sync.RWMutex
	settings types.SystemSettings

	sub    store.Subscription
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewSystemSettingsManager creates a manager populated with tag defaults.
// Initialize must be called before the manager serves DB-backed values.
func NewSystemSettingsManager() *SystemSettingsManager {
	return &SystemSettingsManager{
		settings: DefaultSystemSettings(),
		stopCh:   make(chan struct{}),
	}
}

// DefaultSystemSettings builds a SystemSettings from struct tag defaults.
func DefaultSystemSettings() types.SystemSettings {
	var s types.SystemSettings
	v := reflect.ValueOf(&s).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		def := t.Field(i).Tag.Get("default")
		if def == "" {
			continue
		}
		switch v.Field(i).Kind() {
		case reflect.Int:
			if n, err := strconv.Atoi(def); err == nil {
				v.Field(i).SetInt(int64(n))
			}
		case reflect.Bool:
			v.Field(i).SetBool(def == "true")
		case reflect.String:
			v.Field(i).SetString(def)
		}
	}
	return s
}

// Initialize wires the manager to its persistence and sync dependencies and
// loads current values. On non-master nodes it additionally subscribes to
// settings-change notifications.
func (sm *SystemSettingsManager) Initialize(db *gorm.DB, storage store.Store, isMaster bool) {
	sm.db = db
	sm.storage = storage
	sm.isMaster = isMaster

	if err := sm.loadFromDB(); err != nil {
		logrus.WithError(err).Warn("Failed to load system settings, using defaults")
	}

	sub, err := storage.Subscribe(settingsUpdateChannel)
	if err != nil {
		logrus.WithError(err).Warn("Failed to subscribe to settings updates")
		return
	}
	sm.sub = sub

	sm.wg.Add(1)
	go sm.watchUpdates()
}

// EnsureSettingsInitialized inserts missing setting rows with their defaults
// so operators see the full tunable surface from the start.
func (sm *SystemSettingsManager) EnsureSettingsInitialized() error {
	if sm.db == nil {
		return fmt.Errorf("settings manager is not initialized")
	}

	defaults := DefaultSystemSettings()
	v := reflect.ValueOf(&defaults).Elem()
	t := v.Type()

	rows := make([]models.SystemSetting, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		key := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		if key == "" || key == "-" {
			continue
		}
		rows = append(rows, models.SystemSetting{
			SettingKey:   key,
			SettingValue: fmt.Sprint(v.Field(i).Interface()),
			Description:  t.Field(i).Tag.Get("desc"),
		})
	}

	return sm.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoNothing: true,
	}).Create(&rows).Error
}

// GetSettings returns a copy of the current settings.
func (sm *SystemSettingsManager) GetSettings() types.SystemSettings {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.settings
}

// UpdateSettings persists the given key/value pairs, refreshes the cache and
// notifies other nodes. Unknown keys are rejected.
func (sm *SystemSettingsManager) UpdateSettings(updates map[string]any) error {
	if sm.db == nil {
		return fmt.Errorf("settings manager is not initialized")
	}
	if len(updates) == 0 {
		return nil
	}

	known := knownSettingKeys()
	for key := range updates {
		if _, ok := known[key]; !ok {
			return fmt.Errorf("unknown setting key: %s", key)
		}
	}

	if err := validateSettingValues(updates); err != nil {
		return err
	}

	err := sm.db.Transaction(func(tx *gorm.DB) error {
		for key, value := range updates {
			res := tx.Model(&models.SystemSetting{}).
				Where("setting_key = ?", key).
				Update("setting_value", fmt.Sprint(value))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				if err := tx.Create(&models.SystemSetting{
					SettingKey:   key,
					SettingValue: fmt.Sprint(value),
				}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := sm.loadFromDB(); err != nil {
		return err
	}

	if sm.storage != nil {
		if err := sm.storage.Publish(settingsUpdateChannel, []byte(time.Now().Format(time.RFC3339))); err != nil {
			logrus.WithError(err).Warn("Failed to publish settings update notification")
		}
	}
	return nil
}

// Stop terminates the update watcher.
func (sm *SystemSettingsManager) Stop(ctx context.Context) {
	close(sm.stopCh)
	if sm.sub != nil {
		_ = sm.sub.Close()
	}

	done := make(chan struct{})
	go func() {
		sm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logrus.Info("SystemSettingsManager stopped gracefully.")
	case <-ctx.Done():
		logrus.Warn("SystemSettingsManager stop timed out.")
	}
}

func (sm *SystemSettingsManager) watchUpdates() {
	defer sm.wg.Done()
	for {
		select {
		case _, ok := <-sm.sub.Channel():
			if !ok {
				return
			}
			if err := sm.loadFromDB(); err != nil {
				logrus.WithError(err).Warn("Failed to reload system settings after update notification")
			} else {
				logrus.Debug("System settings reloaded after update notification")
			}
		case <-sm.stopCh:
			return
		}
	}
}

// loadFromDB refreshes the cached settings from the system_settings table.
func (sm *SystemSettingsManager) loadFromDB() error {
	if sm.db == nil {
		return fmt.Errorf("settings manager is not initialized")
	}

	var rows []models.SystemSetting
	if err := sm.db.Find(&rows).Error; err != nil {
		return err
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.SettingKey] = row.SettingValue
	}

	settings := DefaultSystemSettings()
	v := reflect.ValueOf(&settings).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		raw, ok := values[key]
		if !ok {
			continue
		}
		switch v.Field(i).Kind() {
		case reflect.Int:
			if n, err := strconv.Atoi(raw); err == nil {
				v.Field(i).SetInt(int64(n))
			}
		case reflect.Bool:
			v.Field(i).SetBool(raw == "true")
		case reflect.String:
			v.Field(i).SetString(raw)
		}
	}

	sm.mu.Lock()
	sm.settings = settings
	sm.mu.Unlock()
	return nil
}

// knownSettingKeys returns the set of valid setting keys derived from
// SystemSettings struct tags.
func knownSettingKeys() map[string]reflect.Kind {
	keys := make(map[string]reflect.Kind)
	t := reflect.TypeOf(types.SystemSettings{})
	for i := 0; i < t.NumField(); i++ {
		key := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		if key != "" && key != "-" {
			keys[key] = t.Field(i).Type.Kind()
		}
	}
	return keys
}

// validateSettingValues enforces min/max struct tag bounds on updates.
func validateSettingValues(updates map[string]any) error {
	t := reflect.TypeOf(types.SystemSettings{})
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := strings.Split(field.Tag.Get("json"), ",")[0]
		raw, ok := updates[key]
		if !ok {
			continue
		}
		if field.Type.Kind() != reflect.Int {
			continue
		}

		n, err := toInt(raw)
		if err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
		for _, rule := range strings.Split(field.Tag.Get("validate"), ",") {
			if after, found := strings.CutPrefix(rule, "min="); found {
				if min, err := strconv.Atoi(after); err == nil && n < min {
					return fmt.Errorf("setting %s: value %d below minimum %d", key, n, min)
				}
			}
			if after, found := strings.CutPrefix(rule, "max="); found {
				if max, err := strconv.Atoi(after); err == nil && n > max {
					return fmt.Errorf("setting %s: value %d above maximum %d", key, n, max)
				}
			}
		}
	}
	return nil
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("not a number: %v", value)
	}
}
