package handler

import (
	"strings"
	"testing"

	"locsync/internal/i18n"
	"locsync/internal/i18n/locales"
	"locsync/internal/types"
	"locsync/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// handlerMessages lists every message id the endpoint handlers send, with
// template data matching the call sites. Keeping the list here guards the
// catalogs against drifting away from the handlers.
var handlerMessages = []struct {
	id   string
	data map[string]any
}{
	{id: "common.success"},
	{id: "sync.completed", data: map[string]any{"Inserted": 4}},
	{id: "translate.fill_completed", data: map[string]any{"Translated": 3, "Failed": 1}},
	{id: "translate.refine_completed", data: map[string]any{"Refined": 2, "Failed": 1}},
	{id: "translate.quota_exceeded"},
	{id: "eval.started", data: map[string]any{"Language": "de"}},
	{id: "eval.run_started"},
	{id: "eval.run_in_progress"},
	{id: "eval.already_active"},
	{id: "eval.paused"},
	{id: "eval.reset"},
	{id: "approval.completed", data: map[string]any{"Count": 5}},
	{id: "approval.blocked", data: map[string]any{"Count": 2}},
	{id: "approval.auto_applied", data: map[string]any{"Approved": 3, "Flagged": 1}},
	{id: "visibility.synced"},
	{id: "settings.update_success"},
}

// TestHandlerMessagesExistInAllCatalogs tests that every id the handlers
// emit is defined in every locale catalog
func TestHandlerMessagesExistInAllCatalogs(t *testing.T) {
	t.Parallel()

	catalogs := map[string]map[string]string{
		"en-US": locales.MessagesEnUS,
		"de-DE": locales.MessagesDeDE,
	}

	for locale, catalog := range catalogs {
		for _, msg := range handlerMessages {
			_, ok := catalog[msg.id]
			assert.True(t, ok, "id %q missing from %s catalog", msg.id, locale)
		}
	}
}

// TestHandlerMessagesRenderWithoutGaps tests that localizing each id with
// the handler's template data yields a complete message in both locales
func TestHandlerMessagesRenderWithoutGaps(t *testing.T) {
	t.Parallel()

	for _, locale := range []string{"en-US", "de-DE"} {
		localizer := i18n.GetLocalizer(locale)
		require.NotNil(t, localizer)

		for _, msg := range handlerMessages {
			var rendered string
			if msg.data != nil {
				rendered = i18n.T(localizer, msg.id, msg.data)
			} else {
				rendered = i18n.T(localizer, msg.id)
			}

			assert.NotEmpty(t, rendered, "%s: %s", locale, msg.id)
			assert.NotEqual(t, msg.id, rendered, "%s: %s fell back to its id", locale, msg.id)
			assert.NotContains(t, rendered, "<no value>", "%s: %s has unfilled template data", locale, msg.id)
		}
	}
}

// TestSettingsMetadataMessagesExist tests that the name, description, and
// category ids carried in the settings struct tags resolve in both catalogs
func TestSettingsMetadataMessagesExist(t *testing.T) {
	t.Parallel()

	defaults := types.SystemSettings{}
	infos := utils.GenerateSettingsMetadata(&defaults)
	require.NotEmpty(t, infos)

	catalogs := map[string]map[string]string{
		"en-US": locales.MessagesEnUS,
		"de-DE": locales.MessagesDeDE,
	}

	for locale, catalog := range catalogs {
		for _, info := range infos {
			for _, id := range []string{info.Name, info.Description, info.Category} {
				if !strings.HasPrefix(id, "config.") {
					continue
				}
				_, ok := catalog[id]
				assert.True(t, ok, "id %q missing from %s catalog", id, locale)
			}
		}
	}
}
