// internal/i18n/i18n_test.go
package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalogs(t *testing.T) {
	require.NoError(t, Initialize())

	assert.Equal(t, "Campaign not found", T("en", KeyCampaignNotFound))
	assert.Equal(t, "找不到活動", T("zh_TW", KeyCampaignNotFound))
	assert.Equal(t, "Invalid request", T("en", KeyValidationInvalid, "request"))
	assert.ElementsMatch(t, []string{"en", "zh_TW"}, GetSupportedLanguages())
}

func TestFallbacks(t *testing.T) {
	require.NoError(t, Initialize())

	// Unknown language falls back to English
	assert.Equal(t, "Access denied", T("fr", KeyAccessDenied))
	// Unknown key is returned as-is
	assert.Equal(t, "no.such.key", T("en", "no.such.key"))
}
