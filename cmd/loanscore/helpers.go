package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"loanscore/internal/artifact"
	"loanscore/internal/cfg"
	"loanscore/internal/loan"
	"loanscore/internal/ml"
)

// loadBundle resolves the active registry bundle when a bundle dir is set,
// and the configured artifact paths otherwise.
func loadBundle(s cfg.Settings) (*artifact.Bundle, error) {
	if s.BundleDir != "" {
		reg, err := artifact.NewRegistry(s.BundleDir)
		if err != nil {
			return nil, err
		}
		if v, ok := reg.Active(); ok {
			log.Debug().Str("version", v.Version).Msg("Using active registry bundle")
			return reg.LoadActive()
		}
		log.Warn().Str("bundle_dir", s.BundleDir).Msg("No active bundle in registry, using model paths")
	}
	return artifact.Load(s.ModelPath, s.PreprocessingPath)
}

func newPredictor(b *artifact.Bundle, s cfg.Settings, opts ...ml.Option) (*ml.Predictor, error) {
	if s.ValidateFormDomains {
		v, err := loan.NewFormValidator()
		if err != nil {
			return nil, fmt.Errorf("build form validator: %w", err)
		}
		opts = append(opts, ml.WithFormValidator(v))
	}
	return ml.New(b, opts...)
}

func openRegistry(s cfg.Settings) (*artifact.Registry, error) {
	if s.BundleDir == "" {
		return nil, fmt.Errorf("no bundle dir configured (use --bundle-dir or BUNDLE_DIR)")
	}
	return artifact.NewRegistry(s.BundleDir)
}
