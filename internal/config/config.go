package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	AssetDir string `toml:"asset_dir"`
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Render contains output surface configuration.
type Render struct {
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	FramesDir string `toml:"frames_dir"`
}

// Clock contains tick timing configuration.
type Clock struct {
	FPS int `toml:"fps"`
}

// ManifestEntry names one asset to load before the experience starts.
type ManifestEntry struct {
	ID       string `toml:"id"`
	Src      string `toml:"src"`
	Optional bool   `toml:"optional"`
}

// Assets contains the load manifest and its retry policy.
type Assets struct {
	Manifest          []ManifestEntry `toml:"manifest"`
	RetryAttempts     int             `toml:"retry_attempts"`
	RetryBackoffMS    int             `toml:"retry_backoff_ms"`
	RetryMaxBackoffMS int             `toml:"retry_max_backoff_ms"`
}

// Capture contains face capture configuration.
type Capture struct {
	// Source selects the capture collaborator: "replay" or "synthetic".
	Source string `toml:"source"`
	// Device is the video4linux node watched for hotplug events.
	Device         string `toml:"device"`
	MonitorHotplug bool   `toml:"monitor_hotplug"`
	// SynthFrames is how many ticks the synthetic source tracks before completing.
	SynthFrames    int `toml:"synth_frames"`
	SynthLandmarks int `toml:"synth_landmarks"`
}

// Audio contains soundtrack playback configuration.
type Audio struct {
	// Player is an optional external command used to make the soundtrack audible.
	Player     string   `toml:"player"`
	PlayerArgs []string `toml:"player_args"`
	// DurationSeconds overrides the soundtrack length; zero derives it from
	// the keyframe document.
	DurationSeconds float64 `toml:"duration_seconds"`
}

// Face contains deformation target configuration.
type Face struct {
	ScaleMultiplier float64 `toml:"scale_multiplier"`
}

// Share contains snapshot storage configuration.
type Share struct {
	Enabled      bool   `toml:"enabled"`
	Backend      string `toml:"backend"`
	Dir          string `toml:"dir"`
	DwellSeconds int    `toml:"dwell_seconds"`
	S3Bucket     string `toml:"s3_bucket"`
	S3Prefix     string `toml:"s3_prefix"`
	S3Region     string `toml:"s3_region"`
	S3Endpoint   string `toml:"s3_endpoint"`
}

// Metrics contains Prometheus exposition configuration.
type Metrics struct {
	Bind string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Debug contains developer aids.
type Debug struct {
	DevMode bool `toml:"dev_mode"`
}

// Config encapsulates all configuration values for facestage.
//
// Configuration sections by subsystem:
//   - Paths: asset, state and log directories
//   - Render: surface size and optional PNG frame dumps
//   - Clock: target frame rate
//   - Assets: load manifest and retry policy
//   - Capture: capture source and webcam hotplug monitoring
//   - Audio: soundtrack player and duration
//   - Face: unit conversion for authored face transforms
//   - Share: snapshot storage (local directory or S3)
//   - Metrics: Prometheus listener
//   - Logging: log format and level
//   - Debug: DEV overlay and reference grid
type Config struct {
	Paths   Paths   `toml:"paths"`
	Render  Render  `toml:"render"`
	Clock   Clock   `toml:"clock"`
	Assets  Assets  `toml:"assets"`
	Capture Capture `toml:"capture"`
	Audio   Audio   `toml:"audio"`
	Face    Face    `toml:"face"`
	Share   Share   `toml:"share"`
	Metrics Metrics `toml:"metrics"`
	Logging Logging `toml:"logging"`
	Debug   Debug   `toml:"debug"`
}

// ErrConfigExists is returned by WriteSample when the target exists and
// overwriting was not requested.
var ErrConfigExists = errors.New("config file already exists")

const (
	userConfigPath    = "~/.config/facestage/config.toml"
	projectConfigName = "facestage.toml"
)

// DefaultConfigPath returns the per-user config location.
func DefaultConfigPath() (string, error) {
	return ExpandPath(userConfigPath)
}

// Load reads the config at path, or the first existing of the user and
// project files when path is empty, then normalizes and validates it.
// It also returns the path it settled on and whether that file existed;
// a missing file leaves the defaults in place.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: %s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// locate picks the config file. An explicit path is used even when missing.
func locate(path string) (string, bool, error) {
	var candidates []string
	if path != "" {
		candidates = []string{path}
	} else {
		candidates = []string{userConfigPath, projectConfigName}
	}
	var first string
	for _, c := range candidates {
		abs, err := ExpandPath(c)
		if err != nil {
			return "", false, err
		}
		if first == "" {
			first = abs
		}
		info, err := os.Stat(abs)
		switch {
		case err == nil && !info.IsDir():
			return abs, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}
	return first, false, nil
}

// EnsureDirectories creates the writable directories the kiosk needs.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Paths.LogDir}
	if c.Share.Enabled && c.Share.Backend == ShareBackendLocal {
		dirs = append(dirs, c.Share.Dir)
	}
	if c.Render.FramesDir != "" {
		dirs = append(dirs, c.Render.FramesDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SessionDBPath returns the SQLite session store location.
func (c *Config) SessionDBPath() string {
	return filepath.Join(c.Paths.StateDir, "sessions.db")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "facestage.lock")
}

// AssetPath resolves a manifest src against the asset directory.
func (c *Config) AssetPath(src string) string {
	if filepath.IsAbs(src) {
		return src
	}
	return filepath.Join(c.Paths.AssetDir, src)
}

// ManifestEntry returns the manifest entry with the given id.
func (c *Config) ManifestEntry(id string) (ManifestEntry, bool) {
	for _, entry := range c.Assets.Manifest {
		if entry.ID == id {
			return entry, true
		}
	}
	return ManifestEntry{}, false
}

// ExpandPath resolves a leading ~ against the home directory and returns
// a clean absolute path. Empty input stays empty.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the embedded sample to path, creating parent
// directories. An existing file is kept unless overwrite is set.
func WriteSample(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		_ = f.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return f.Close()
}
