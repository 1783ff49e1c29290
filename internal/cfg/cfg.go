package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"loanscore/internal/common"
)

type Settings struct {
	ModelPath           string
	PreprocessingPath   string
	BundleDir           string
	DataPath            string
	ListenAddr          string
	ServerURL           string
	RequestTimeout      time.Duration
	MetricsEnabled      bool
	LogLevel            string
	LogFormat           string
	ValidateFormDomains bool
	HistoryLimit        int
	DriftWindow         int
	DriftAlertThreshold float64
}

type ConfigFile struct {
	Artifacts struct {
		ModelPath         string `yaml:"modelPath"`
		PreprocessingPath string `yaml:"preprocessingPath"`
		BundleDir         string `yaml:"bundleDir"`
	} `yaml:"artifacts"`

	Server struct {
		ListenAddr     string `yaml:"listenAddr"`
		URL            string `yaml:"url"`
		RequestTimeout string `yaml:"requestTimeout"`
		MetricsEnabled *bool  `yaml:"metricsEnabled"`
	} `yaml:"server"`

	Storage struct {
		DataPath     string `yaml:"dataPath"`
		HistoryLimit int    `yaml:"historyLimit"`
	} `yaml:"storage"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Validation struct {
		FormDomains bool `yaml:"formDomains"`
	} `yaml:"validation"`

	Drift struct {
		WindowSize     int     `yaml:"windowSize"`
		AlertThreshold float64 `yaml:"alertThreshold"`
	} `yaml:"drift"`
}

// Load reads settings from the YAML file named by CONFIG_FILE, or from the
// environment alone. A .env file in the working directory is loaded first;
// it never overrides variables that are already set.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("failed to load .env: %w", err)
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	requestTimeout, err := time.ParseDuration(config.Server.RequestTimeout)
	if err != nil {
		requestTimeout = common.DefaultRequestTimeout
	}
	metricsEnabled := true
	if config.Server.MetricsEnabled != nil {
		metricsEnabled = *config.Server.MetricsEnabled
	}

	// Environment variables override the file
	settings := Settings{
		ModelPath:           getEnvOrDefault(common.EnvModelPath, orDefault(config.Artifacts.ModelPath, common.DefaultModelPath)),
		PreprocessingPath:   getEnvOrDefault(common.EnvPreprocessingPath, orDefault(config.Artifacts.PreprocessingPath, common.DefaultPreprocessingPath)),
		BundleDir:           getEnvOrDefault(common.EnvBundleDir, config.Artifacts.BundleDir),
		DataPath:            getEnvOrDefault(common.EnvDataPath, orDefault(config.Storage.DataPath, common.DefaultDataPath)),
		ListenAddr:          getEnvOrDefault(common.EnvListenAddr, orDefault(config.Server.ListenAddr, common.DefaultListenAddr)),
		ServerURL:           getEnvOrDefault(common.EnvServerURL, orDefault(config.Server.URL, common.DefaultServerURL)),
		RequestTimeout:      getDurationOrDefault(common.EnvRequestTimeout, requestTimeout),
		MetricsEnabled:      getBoolOrDefault(common.EnvMetricsEnabled, metricsEnabled),
		LogLevel:            getEnvOrDefault(common.EnvLogLevel, orDefault(config.Logging.Level, common.DefaultLogLevel)),
		LogFormat:           getEnvOrDefault(common.EnvLogFormat, orDefault(config.Logging.Format, common.DefaultLogFormat)),
		ValidateFormDomains: getBoolOrDefault(common.EnvValidateFormDomains, config.Validation.FormDomains),
		HistoryLimit:        getIntFromEnvOrConfig(common.EnvHistoryLimit, config.Storage.HistoryLimit, common.DefaultHistoryLimit),
		DriftWindow:         getIntFromEnvOrConfig(common.EnvDriftWindow, config.Drift.WindowSize, common.DefaultDriftWindow),
		DriftAlertThreshold: getFloatFromEnvOrConfig(common.EnvDriftAlertThreshold, config.Drift.AlertThreshold, common.DefaultDriftAlertThreshold),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ModelPath:           getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		PreprocessingPath:   getEnvOrDefault(common.EnvPreprocessingPath, common.DefaultPreprocessingPath),
		BundleDir:           os.Getenv(common.EnvBundleDir), // optional
		DataPath:            getEnvOrDefault(common.EnvDataPath, common.DefaultDataPath),
		ListenAddr:          getEnvOrDefault(common.EnvListenAddr, common.DefaultListenAddr),
		ServerURL:           getEnvOrDefault(common.EnvServerURL, common.DefaultServerURL),
		RequestTimeout:      getDurationOrDefault(common.EnvRequestTimeout, common.DefaultRequestTimeout),
		MetricsEnabled:      getBoolOrDefault(common.EnvMetricsEnabled, true),
		LogLevel:            getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:           getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
		ValidateFormDomains: getBoolOrDefault(common.EnvValidateFormDomains, false),
		HistoryLimit:        getIntOrDefault(common.EnvHistoryLimit, common.DefaultHistoryLimit),
		DriftWindow:         getIntOrDefault(common.EnvDriftWindow, common.DefaultDriftWindow),
		DriftAlertThreshold: getFloatOrDefault(common.EnvDriftAlertThreshold, common.DefaultDriftAlertThreshold),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if configValue != 0 {
		defaultValue = configValue
	}
	return getIntOrDefault(key, defaultValue)
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if configValue != 0 {
		defaultValue = configValue
	}
	return getFloatOrDefault(key, defaultValue)
}

// validateSettings performs range checks on the loaded configuration
func validateSettings(settings *Settings) error {
	if settings.BundleDir == "" {
		if settings.ModelPath == "" || settings.PreprocessingPath == "" {
			return fmt.Errorf("model and preprocessing paths are required when no bundle dir is set")
		}
	}
	if settings.DataPath == "" {
		return fmt.Errorf("data path cannot be empty")
	}
	if settings.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}

	if settings.RequestTimeout < 100*time.Millisecond || settings.RequestTimeout > 5*time.Minute {
		return fmt.Errorf("request timeout must be between 100ms and 5m, got %v", settings.RequestTimeout)
	}

	if _, err := zerolog.ParseLevel(settings.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", settings.LogLevel, err)
	}
	switch settings.LogFormat {
	case common.LogFormatConsole, common.LogFormatJSON:
	default:
		return fmt.Errorf("log format must be %q or %q, got %q", common.LogFormatConsole, common.LogFormatJSON, settings.LogFormat)
	}

	if settings.HistoryLimit <= 0 || settings.HistoryLimit > 10000 {
		return fmt.Errorf("history limit must be between 1 and 10000, got %d", settings.HistoryLimit)
	}
	if settings.DriftWindow < 10 || settings.DriftWindow > 100000 {
		return fmt.Errorf("drift window must be between 10 and 100000, got %d", settings.DriftWindow)
	}
	if settings.DriftAlertThreshold <= 0 || settings.DriftAlertThreshold > 1 {
		return fmt.Errorf("drift alert threshold must be between 0 and 1, got %f", settings.DriftAlertThreshold)
	}

	return nil
}
