package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gradientharvest/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		API: config.APIConfig{
			BaseURL: "https://api.example.com",
			Token:   "secret",
			Timeout: 5 * time.Second,
		},
		Crawler: config.CrawlerConfig{Workers: 2, MinInterval: 0, CourseLimit: 10},
		DB: config.DBConfig{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "harvest.db"),
		},
	}
}

func TestNewBuildsAllServices(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Logger)
	require.NotNil(t, a.Store)
	require.NotNil(t, a.Client)
	require.NotNil(t, a.Tracker)
	require.NotNil(t, a.Registry)
	require.NotEmpty(t, a.RunID)
	require.Nil(t, a.metricsSrv)
}

func TestNewRunIDsAreUnique(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	b, err := New(testConfig(t))
	require.NoError(t, err)
	defer b.Close()

	require.NotEqual(t, a.RunID, b.RunID)
}

func TestNewStartsMetricsServerWhenEnabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 0

	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.metricsSrv)
}
