package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"facestage/internal/config"
)

// ConfigOption adjusts a test config after its directories are assigned.
type ConfigOption func(t testing.TB, cfg *config.Config)

// NewConfig returns the default config rooted in a fresh temp dir, with
// asset retries shortened so load failures surface in milliseconds.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.AssetDir = filepath.Join(root, "assets")
	cfg.Paths.StateDir = filepath.Join(root, "state")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Share.Dir = filepath.Join(root, "share")
	cfg.Assets.RetryBackoffMS = 1
	cfg.Assets.RetryMaxBackoffMS = 2

	for _, opt := range opts {
		opt(t, &cfg)
	}
	return &cfg
}

// WithSyntheticCapture switches capture to the synthetic source completing
// after frames ticks.
func WithSyntheticCapture(frames int) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) {
		cfg.Capture.Source = config.CaptureSourceSynthetic
		cfg.Capture.SynthFrames = frames
	}
}

// WithFixtureAssets writes a keyframe fixture and a placeholder soundtrack
// into the asset directory.
func WithFixtureAssets(frames, vertices int) ConfigOption {
	return func(t testing.TB, cfg *config.Config) {
		WriteFixtureAssets(t, cfg.Paths.AssetDir, frames, vertices)
		cfg.Capture.SynthLandmarks = vertices
	}
}

// WithStubbedBinaries puts no-op executables with the given names first on
// PATH for the rest of the test.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, cfg *config.Config) {
		bin := filepath.Join(BaseDir(cfg), "bin")
		if err := os.MkdirAll(bin, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(bin, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the temp root backing a config built by NewConfig.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.AssetDir)
}
