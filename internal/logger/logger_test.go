// internal/logger/logger_test.go
package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/imi-campaigns/internal/config"
)

func TestInitWritesRotatedFile(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)

	path := filepath.Join(t.TempDir(), "logs", "server.log")
	require.NoError(t, Init(config.LogConfig{Level: "debug", Format: "json", Output: "file", File: path, MaxSize: 1}))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	logrus.WithField("campaign_id", "c1").Info("Campaign completed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"Campaign completed"`)
	assert.Contains(t, string(data), `"campaign_id":"c1"`)
}

func TestInitFallsBackToInfo(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)

	require.NoError(t, Init(config.LogConfig{Level: "chatty"}))
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())

	assert.Error(t, Init(config.LogConfig{Output: "syslog"}))
}
