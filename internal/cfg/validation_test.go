package cfg

import (
	"strings"
	"testing"
	"time"
)

func validSettings() Settings {
	return Settings{
		ModelPath:           "models/best_model.json",
		PreprocessingPath:   "models/preprocessing_objects.json",
		DataPath:            "data",
		ListenAddr:          ":8080",
		RequestTimeout:      5 * time.Second,
		LogLevel:            "info",
		LogFormat:           "console",
		HistoryLimit:        20,
		DriftWindow:         1000,
		DriftAlertThreshold: 0.1,
	}
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"valid", func(*Settings) {}, ""},
		{"bundle dir replaces paths", func(s *Settings) {
			s.ModelPath, s.PreprocessingPath, s.BundleDir = "", "", "bundles"
		}, ""},
		{"missing model path", func(s *Settings) { s.ModelPath = "" }, "paths are required"},
		{"missing data path", func(s *Settings) { s.DataPath = "" }, "data path"},
		{"missing listen addr", func(s *Settings) { s.ListenAddr = "" }, "listen address"},
		{"timeout too short", func(s *Settings) { s.RequestTimeout = 10 * time.Millisecond }, "request timeout"},
		{"timeout too long", func(s *Settings) { s.RequestTimeout = time.Hour }, "request timeout"},
		{"bad log level", func(s *Settings) { s.LogLevel = "loud" }, "invalid log level"},
		{"bad log format", func(s *Settings) { s.LogFormat = "xml" }, "log format"},
		{"zero history", func(s *Settings) { s.HistoryLimit = 0 }, "history limit"},
		{"tiny drift window", func(s *Settings) { s.DriftWindow = 5 }, "drift window"},
		{"zero drift threshold", func(s *Settings) { s.DriftAlertThreshold = 0 }, "drift alert threshold"},
		{"drift threshold above one", func(s *Settings) { s.DriftAlertThreshold = 1.5 }, "drift alert threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)
			err := validateSettings(&s)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
