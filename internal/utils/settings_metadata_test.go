package utils

import (
	"testing"

	"locsync/internal/models"
	"locsync/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGenerateSettingsMetadata tests metadata generation from struct tags
func TestGenerateSettingsMetadata(t *testing.T) {
	settings := types.SystemSettings{
		RefineBatchSize:      5,
		AutoApproveThreshold: 90,
	}

	infos := GenerateSettingsMetadata(&settings)
	require.NotEmpty(t, infos)

	byKey := make(map[string]models.SystemSettingInfo, len(infos))
	for _, info := range infos {
		byKey[info.Key] = info
	}

	batch, ok := byKey["refine_batch_size"]
	require.True(t, ok)
	assert.Equal(t, "int", batch.Type)
	assert.Equal(t, 5, batch.Value)
	assert.Equal(t, 5, batch.DefaultValue)
	assert.True(t, batch.Required)
	require.NotNil(t, batch.MinValue)
	assert.Equal(t, 1, *batch.MinValue)
	assert.NotEmpty(t, batch.Category)

	threshold, ok := byKey["auto_approve_threshold"]
	require.True(t, ok)
	assert.Equal(t, 90, threshold.Value)
	assert.Equal(t, 85, threshold.DefaultValue)

	pause, ok := byKey["batch_pause_seconds"]
	require.True(t, ok)
	assert.False(t, pause.Required)
	require.NotNil(t, pause.MinValue)
	assert.Equal(t, 0, *pause.MinValue)
}
