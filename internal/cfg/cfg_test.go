package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanscore/internal/common"
)

var allKeys = []string{
	common.EnvConfigFile,
	common.EnvModelPath,
	common.EnvPreprocessingPath,
	common.EnvBundleDir,
	common.EnvDataPath,
	common.EnvListenAddr,
	common.EnvServerURL,
	common.EnvRequestTimeout,
	common.EnvMetricsEnabled,
	common.EnvLogLevel,
	common.EnvLogFormat,
	common.EnvValidateFormDomains,
	common.EnvHistoryLimit,
	common.EnvDriftWindow,
	common.EnvDriftAlertThreshold,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, common.DefaultModelPath, s.ModelPath)
	assert.Equal(t, common.DefaultPreprocessingPath, s.PreprocessingPath)
	assert.Empty(t, s.BundleDir)
	assert.Equal(t, common.DefaultDataPath, s.DataPath)
	assert.Equal(t, common.DefaultListenAddr, s.ListenAddr)
	assert.Equal(t, common.DefaultRequestTimeout, s.RequestTimeout)
	assert.True(t, s.MetricsEnabled)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, common.LogFormatConsole, s.LogFormat)
	assert.False(t, s.ValidateFormDomains)
	assert.Equal(t, common.DefaultHistoryLimit, s.HistoryLimit)
	assert.Equal(t, common.DefaultDriftWindow, s.DriftWindow)
	assert.InDelta(t, common.DefaultDriftAlertThreshold, s.DriftAlertThreshold, 1e-12)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(common.EnvModelPath, "/srv/m.json.gz")
	t.Setenv(common.EnvRequestTimeout, "2s")
	t.Setenv(common.EnvMetricsEnabled, "false")
	t.Setenv(common.EnvLogLevel, "debug")
	t.Setenv(common.EnvLogFormat, "json")
	t.Setenv(common.EnvValidateFormDomains, "true")
	t.Setenv(common.EnvHistoryLimit, "50")
	t.Setenv(common.EnvDriftAlertThreshold, "0.25")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/m.json.gz", s.ModelPath)
	assert.Equal(t, 2*time.Second, s.RequestTimeout)
	assert.False(t, s.MetricsEnabled)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, common.LogFormatJSON, s.LogFormat)
	assert.True(t, s.ValidateFormDomains)
	assert.Equal(t, 50, s.HistoryLimit)
	assert.InDelta(t, 0.25, s.DriftAlertThreshold, 1e-12)
}

func TestLoadIgnoresUnparsableNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv(common.EnvHistoryLimit, "lots")
	t.Setenv(common.EnvRequestTimeout, "soon")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, common.DefaultHistoryLimit, s.HistoryLimit)
	assert.Equal(t, common.DefaultRequestTimeout, s.RequestTimeout)
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "loanscore.yaml")
	content := `
artifacts:
  bundleDir: /var/lib/loanscore/bundles
server:
  listenAddr: ":9090"
  requestTimeout: 750ms
  metricsEnabled: false
storage:
  dataPath: /var/lib/loanscore/data
  historyLimit: 100
logging:
  level: warn
  format: json
validation:
  formDomains: true
drift:
  windowSize: 500
  alertThreshold: 0.2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(common.EnvConfigFile, path)
	t.Setenv(common.EnvHistoryLimit, "7")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/loanscore/bundles", s.BundleDir)
	assert.Equal(t, common.DefaultModelPath, s.ModelPath)
	assert.Equal(t, ":9090", s.ListenAddr)
	assert.Equal(t, 750*time.Millisecond, s.RequestTimeout)
	assert.False(t, s.MetricsEnabled)
	assert.Equal(t, "/var/lib/loanscore/data", s.DataPath)
	assert.Equal(t, 7, s.HistoryLimit, "environment overrides the file")
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, common.LogFormatJSON, s.LogFormat)
	assert.True(t, s.ValidateFormDomains)
	assert.Equal(t, 500, s.DriftWindow)
	assert.InDelta(t, 0.2, s.DriftAlertThreshold, 1e-12)
}

func TestLoadFromYAMLErrors(t *testing.T) {
	clearEnv(t)

	t.Run("missing file", func(t *testing.T) {
		t.Setenv(common.EnvConfigFile, filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))
		t.Setenv(common.EnvConfigFile, path)
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("logging:\n  format: xml\n"), 0o600))
		t.Setenv(common.EnvConfigFile, path)
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
	})
}
