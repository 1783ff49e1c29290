// Package common holds the environment keys and defaults shared by the
// configuration layer and the command line.
package common

import "time"

// Environment variable keys
const (
	EnvConfigFile          = "CONFIG_FILE"
	EnvModelPath           = "MODEL_PATH"
	EnvPreprocessingPath   = "PREPROCESSING_PATH"
	EnvBundleDir           = "BUNDLE_DIR"
	EnvDataPath            = "DATA_PATH"
	EnvListenAddr          = "LISTEN_ADDR"
	EnvServerURL           = "SERVER_URL"
	EnvRequestTimeout      = "REQUEST_TIMEOUT"
	EnvMetricsEnabled      = "METRICS_ENABLED"
	EnvLogLevel            = "LOG_LEVEL"
	EnvLogFormat           = "LOG_FORMAT"
	EnvValidateFormDomains = "VALIDATE_FORM_DOMAINS"
	EnvHistoryLimit        = "HISTORY_LIMIT"
	EnvDriftWindow         = "DRIFT_WINDOW"
	EnvDriftAlertThreshold = "DRIFT_ALERT_THRESHOLD"
)

// Configuration defaults
const (
	DefaultModelPath           = "models/best_model.json"
	DefaultPreprocessingPath   = "models/preprocessing_objects.json"
	DefaultDataPath            = "data"
	DefaultListenAddr          = ":8080"
	DefaultServerURL           = "http://localhost:8080"
	DefaultRequestTimeout      = 5 * time.Second
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "console"
	DefaultHistoryLimit        = 20
	DefaultDriftWindow         = 1000
	DefaultDriftAlertThreshold = 0.1
)

// Log formats
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)
