package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if c.Clock.FPS <= 0 || c.Clock.FPS > 240 {
		return fmt.Errorf("clock.fps must be between 1 and 240, got %d", c.Clock.FPS)
	}
	if err := c.validateAssets(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if c.Face.ScaleMultiplier <= 0 {
		return errors.New("face.scale_multiplier must be positive")
	}
	if c.Audio.DurationSeconds < 0 {
		return errors.New("audio.duration_seconds must not be negative")
	}
	if err := c.validateShare(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRender() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render.width and render.height must be positive, got %dx%d", c.Render.Width, c.Render.Height)
	}
	return nil
}

func (c *Config) validateAssets() error {
	seen := make(map[string]struct{}, len(c.Assets.Manifest))
	for i, entry := range c.Assets.Manifest {
		if entry.ID == "" || entry.Src == "" {
			return fmt.Errorf("assets.manifest[%d]: id and src are required", i)
		}
		if _, dup := seen[entry.ID]; dup {
			return fmt.Errorf("assets.manifest: duplicate id %q", entry.ID)
		}
		seen[entry.ID] = struct{}{}
	}
	for _, required := range []string{AssetKeyframes, AssetMusic} {
		entry, ok := c.ManifestEntry(required)
		if !ok {
			return fmt.Errorf("assets.manifest must contain %q", required)
		}
		if entry.Optional {
			return fmt.Errorf("assets.manifest entry %q cannot be optional", required)
		}
	}
	if c.Assets.RetryMaxBackoffMS < c.Assets.RetryBackoffMS {
		return errors.New("assets.retry_max_backoff_ms must be >= assets.retry_backoff_ms")
	}
	return nil
}

func (c *Config) validateCapture() error {
	switch c.Capture.Source {
	case CaptureSourceReplay, CaptureSourceSynthetic:
	default:
		return fmt.Errorf("capture.source: unsupported value %q (want replay or synthetic)", c.Capture.Source)
	}
	if c.Capture.MonitorHotplug && c.Capture.Device == "" {
		return errors.New("capture.device is required when capture.monitor_hotplug is enabled")
	}
	return nil
}

func (c *Config) validateShare() error {
	switch c.Share.Backend {
	case ShareBackendLocal, ShareBackendS3:
	default:
		return fmt.Errorf("share.backend: unsupported value %q (want local or s3)", c.Share.Backend)
	}
	if c.Share.Enabled && c.Share.Backend == ShareBackendS3 && c.Share.S3Bucket == "" {
		return errors.New("share.s3_bucket is required for the s3 backend (or set FACESTAGE_S3_BUCKET)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
