package startup

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurricanerix/icecarve/internal/config"
	"github.com/hurricanerix/icecarve/internal/logging"
	"github.com/hurricanerix/icecarve/internal/sculpture"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Host:           "127.0.0.1",
		Port:           0,
		APIKey:         "sk-test",
		BaseURL:        "http://127.0.0.1:1/v1",
		RequestTimeout: 5 * time.Second,
		UploadDir:      filepath.Join(t.TempDir(), "uploads"),
		SessionScope:   config.SessionScopeGlobal,
		StateUpdates:   config.StateUpdatesOff,
		LogLevel:       "debug",
	}
}

func TestCreateLogger(t *testing.T) {
	cfg := testConfig(t)
	cfg.LogLevel = "warn"

	logger := CreateLogger(cfg)
	require.NotNil(t, logger)
	assert.Equal(t, logging.LevelWarn, logger.GetLevel())
}

func TestCreateLLMClient(t *testing.T) {
	cfg := testConfig(t)
	cfg.ChatModel = "gpt-4o-mini"

	c := CreateLLMClient(cfg)
	assert.Equal(t, "gpt-4o-mini", c.ChatModel())
	assert.Equal(t, "dall-e-3", c.ImageModel())
}

func TestCreateUpdater(t *testing.T) {
	cfg := testConfig(t)
	assert.IsType(t, sculpture.NopUpdater{}, CreateUpdater(cfg))

	cfg.StateUpdates = config.StateUpdatesMetadata
	assert.IsType(t, sculpture.MetadataUpdater{}, CreateUpdater(cfg))
}

func TestCreateMetrics_SessionGauge(t *testing.T) {
	sm := CreateSessionManager(nil)
	defer sm.Shutdown()
	m := CreateMetrics(sm)

	sm.GetOrCreate("a")
	sm.GetOrCreate("b")

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var got float64
	for _, mf := range families {
		if mf.GetName() == "icecarve_sessions" {
			got = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, 2.0, got)
}

func TestInitializeAll(t *testing.T) {
	cfg := testConfig(t)
	logger := logging.New(logging.LevelDebug, &bytes.Buffer{})

	components, err := InitializeAll(cfg, logger)
	require.NoError(t, err)
	defer Cleanup(components, logger)

	assert.NotNil(t, components.LLMClient)
	assert.NotNil(t, components.SessionManager)
	assert.NotNil(t, components.Uploads)
	assert.NotNil(t, components.Metrics)
	assert.NotNil(t, components.Chat)
	assert.NotNil(t, components.Images)
	assert.NotNil(t, components.WebServer)
	assert.Equal(t, "127.0.0.1:0", components.WebServer.Addr())
	assert.DirExists(t, cfg.UploadDir)
}

func TestInitializeAll_InvalidBaseURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.BaseURL = "ftp://example.com"

	components, err := InitializeAll(cfg, logging.Nop())
	assert.ErrorIs(t, err, ErrInvalidBaseURL)
	assert.Nil(t, components)
}

func TestCleanup_Nil(t *testing.T) {
	assert.NotPanics(t, func() { Cleanup(nil, logging.Nop()) })
}
