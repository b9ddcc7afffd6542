package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"facestage/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantAssets := filepath.Join(tempHome, ".local", "share", "facestage", "assets")
	if cfg.Paths.AssetDir != wantAssets {
		t.Fatalf("unexpected asset dir: got %q want %q", cfg.Paths.AssetDir, wantAssets)
	}
	if cfg.Clock.FPS != 30 {
		t.Fatalf("unexpected fps: %d", cfg.Clock.FPS)
	}
	if cfg.Face.ScaleMultiplier != 100 {
		t.Fatalf("unexpected scale multiplier: %v", cfg.Face.ScaleMultiplier)
	}
	if cfg.Share.DwellSeconds != 10 {
		t.Fatalf("unexpected dwell: %d", cfg.Share.DwellSeconds)
	}
	if cfg.Assets.RetryAttempts != 3 || cfg.Assets.RetryBackoffMS != 250 {
		t.Fatalf("unexpected retry policy: %+v", cfg.Assets)
	}
	if got := cfg.SessionDBPath(); got != filepath.Join(tempHome, ".local", "share", "facestage", "sessions.db") {
		t.Fatalf("unexpected session db path: %q", got)
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg := config.Default()
	cfg.Paths.AssetDir = "~/kiosk/assets"
	cfg.Clock.FPS = 60
	cfg.Capture.Source = " Synthetic "
	cfg.Logging.Format = "JSON"

	path := filepath.Join(t.TempDir(), "config.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %q, got %q exists=%v", path, resolved, exists)
	}
	if loaded.Paths.AssetDir != filepath.Join(tempHome, "kiosk", "assets") {
		t.Fatalf("unexpected asset dir: %q", loaded.Paths.AssetDir)
	}
	if loaded.Clock.FPS != 60 {
		t.Fatalf("unexpected fps: %d", loaded.Clock.FPS)
	}
	if loaded.Capture.Source != config.CaptureSourceSynthetic {
		t.Fatalf("capture source not normalized: %q", loaded.Capture.Source)
	}
	if loaded.Logging.Format != "json" {
		t.Fatalf("log format not normalized: %q", loaded.Logging.Format)
	}
}

func TestS3BucketFallsBackToEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FACESTAGE_S3_BUCKET", "kiosk-shares")

	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[share]\nenabled = true\nbackend = \"s3\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Share.S3Bucket != "kiosk-shares" {
		t.Fatalf("expected bucket from env, got %q", cfg.Share.S3Bucket)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"fps":           func(c *config.Config) { c.Clock.FPS = 0 },
		"render":        func(c *config.Config) { c.Render.Width = 0 },
		"capture":       func(c *config.Config) { c.Capture.Source = "webcam" },
		"scale":         func(c *config.Config) { c.Face.ScaleMultiplier = 0 },
		"share backend": func(c *config.Config) { c.Share.Backend = "ftp" },
		"s3 bucket": func(c *config.Config) {
			c.Share.Enabled = true
			c.Share.Backend = config.ShareBackendS3
		},
		"missing keyframes": func(c *config.Config) {
			c.Assets.Manifest = []config.ManifestEntry{{ID: config.AssetMusic, Src: "main.mp3"}}
		},
		"duplicate id": func(c *config.Config) {
			c.Assets.Manifest = append(c.Assets.Manifest, config.ManifestEntry{ID: config.AssetMusic, Src: "b.mp3"})
		},
		"optional music": func(c *config.Config) {
			c.Assets.Manifest = []config.ManifestEntry{
				{ID: config.AssetKeyframes, Src: "keyframes.json"},
				{ID: config.AssetMusic, Src: "main.mp3", Optional: true},
			}
		},
		"log level": func(c *config.Config) { c.Logging.Level = "verbose" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSampleConfigParses(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.WriteSample(path, false); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path, false); !errors.Is(err, config.ErrConfigExists) {
		t.Fatalf("expected ErrConfigExists, got %v", err)
	}
	if err := config.WriteSample(path, true); err != nil {
		t.Fatalf("WriteSample overwrite: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if len(cfg.Assets.Manifest) != 3 {
		t.Fatalf("expected 3 manifest entries, got %d", len(cfg.Assets.Manifest))
	}
	if !strings.Contains(config.SampleConfig(), "[share]") {
		t.Fatal("sample missing share section")
	}
}

func TestAssetPathResolvesRelativeToAssetDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.AssetDir = "/srv/kiosk"
	if got := cfg.AssetPath("keyframes.json"); got != "/srv/kiosk/keyframes.json" {
		t.Fatalf("AssetPath = %q", got)
	}
	if got := cfg.AssetPath("/abs/a.mp3"); got != "/abs/a.mp3" {
		t.Fatalf("AssetPath(abs) = %q", got)
	}
}
