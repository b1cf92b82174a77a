package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	if err := Init(); err != nil {
		panic(err)
	}
}

// TestNormalizeLanguageCode tests language tag normalization
func TestNormalizeLanguageCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en-US"},
		{"en-US", "en-US"},
		{"en-GB", "en-US"},
		{"de", "de-DE"},
		{"de-AT", "de-DE"},
		{"de-CH-1901", "de-DE"},
		{"fr", "en-US"},
		{"", "en-US"},
		{"  DE-de  ", "de-DE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeLanguageCode(tt.input))
		})
	}
}

// TestParseAcceptLanguage tests Accept-Language header parsing
func TestParseAcceptLanguage(t *testing.T) {
	assert.Nil(t, parseAcceptLanguage(""))
	assert.Equal(t, []string{"de-DE"}, parseAcceptLanguage("de-DE,de;q=0.9,en;q=0.8"))
	assert.Equal(t, []string{"en-US"}, parseAcceptLanguage("en-GB;q=0.7"))
}

// TestT tests message translation with fallback
func TestT(t *testing.T) {
	localizer := GetLocalizer("en-US")
	require.NotNil(t, localizer)

	msg := T(localizer, "success")
	assert.Equal(t, "Operation successful", msg)

	// Unknown ids fall back to the id itself
	assert.Equal(t, "no.such.message", T(localizer, "no.such.message"))
}

// TestTGermanLocale tests locale selection
func TestTGermanLocale(t *testing.T) {
	en := T(GetLocalizer("en-US"), "eval.paused")
	de := T(GetLocalizer("de-DE"), "eval.paused")
	assert.NotEmpty(t, en)
	assert.NotEmpty(t, de)
	assert.NotEqual(t, en, de)
}
