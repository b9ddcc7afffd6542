package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAssets()
	c.normalizeCapture()
	c.normalizeShare()
	c.normalizeLogging()
	c.Metrics.Bind = strings.TrimSpace(c.Metrics.Bind)
	c.Audio.Player = strings.TrimSpace(c.Audio.Player)
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.AssetDir, err = ExpandPath(c.Paths.AssetDir); err != nil {
		return fmt.Errorf("paths.asset_dir: %w", err)
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Share.Dir) == "" {
		c.Share.Dir = defaultShareDir
	}
	if c.Share.Dir, err = ExpandPath(c.Share.Dir); err != nil {
		return fmt.Errorf("share.dir: %w", err)
	}
	if c.Render.FramesDir, err = ExpandPath(strings.TrimSpace(c.Render.FramesDir)); err != nil {
		return fmt.Errorf("render.frames_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAssets() {
	if len(c.Assets.Manifest) == 0 {
		c.Assets.Manifest = DefaultManifest()
	}
	for i := range c.Assets.Manifest {
		c.Assets.Manifest[i].ID = strings.TrimSpace(c.Assets.Manifest[i].ID)
		c.Assets.Manifest[i].Src = strings.TrimSpace(c.Assets.Manifest[i].Src)
	}
	if c.Assets.RetryAttempts <= 0 {
		c.Assets.RetryAttempts = defaultRetryAttempts
	}
	if c.Assets.RetryBackoffMS <= 0 {
		c.Assets.RetryBackoffMS = defaultRetryBackoffMS
	}
	if c.Assets.RetryMaxBackoffMS <= 0 {
		c.Assets.RetryMaxBackoffMS = defaultRetryMaxBackoffMS
	}
}

func (c *Config) normalizeCapture() {
	c.Capture.Source = strings.ToLower(strings.TrimSpace(c.Capture.Source))
	if c.Capture.Source == "" {
		c.Capture.Source = defaultCaptureSource
	}
	c.Capture.Device = strings.TrimSpace(c.Capture.Device)
	if c.Capture.SynthFrames <= 0 {
		c.Capture.SynthFrames = defaultSynthFrames
	}
	if c.Capture.SynthLandmarks <= 0 {
		c.Capture.SynthLandmarks = defaultSynthLandmarks
	}
}

func (c *Config) normalizeShare() {
	c.Share.Backend = strings.ToLower(strings.TrimSpace(c.Share.Backend))
	if c.Share.Backend == "" {
		c.Share.Backend = defaultShareBackend
	}
	if c.Share.S3Bucket == "" {
		if value, ok := os.LookupEnv("FACESTAGE_S3_BUCKET"); ok {
			c.Share.S3Bucket = strings.TrimSpace(value)
		}
	}
	c.Share.S3Prefix = strings.Trim(strings.TrimSpace(c.Share.S3Prefix), "/")
	if c.Share.DwellSeconds <= 0 {
		c.Share.DwellSeconds = defaultDwellSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
