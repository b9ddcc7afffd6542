package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"facestage/internal/config"
	"facestage/internal/services"
	"facestage/internal/session"
	"facestage/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithFixtureAssets(12, 3))
	t.Setenv("HOME", filepath.Join(testsupport.BaseDir(cfg), "home"))
	cfg.Clock.FPS = 240

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, "--config", env.configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err = runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, "--config", env.configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "asset_dir")
	requireContains(t, out, env.cfg.Paths.AssetDir)
	requireContains(t, out, "fps = 240")
}

func TestInvalidConfigExitsWithConfigurationCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[clock]\nfps = 0\nunknown = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := runCLI(t, "--config", path, "config", "validate")
	if err == nil {
		t.Fatal("expected config error")
	}
	if code := services.ExitCode(err); code != services.ExitConfiguration {
		t.Fatalf("exit code = %d, want %d", code, services.ExitConfiguration)
	}
}

func TestTracksSummarizesFixture(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, "--config", env.configPath, "tracks")
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	requireContains(t, out, "Last frame: 11")
	requireContains(t, out, "camera")
	requireContains(t, out, "i_extra")
	requireContains(t, out, "face_vertices")
}

func TestSessionsListsRecordedVisitors(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, "--config", env.configPath, "sessions")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	requireContains(t, out, "No sessions recorded")

	store, err := session.Open(env.cfg)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	if _, err := store.Begin(context.Background(), "visitor-1", start); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkCaptured(context.Background(), "visitor-1", start.Add(3*time.Second)); err != nil {
		t.Fatal(err)
	}
	store.Close()

	out, err = runCLI(t, "--config", env.configPath, "sessions", "--limit", "5")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	requireContains(t, out, "visitor-1")
	requireContains(t, out, "captured")
	requireContains(t, out, "3s")
	requireContains(t, out, "captured=1")
}

func TestPreflightReportsChecks(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, "--config", env.configPath, "preflight")
	if err != nil {
		t.Fatalf("preflight: %v\n%s", err, out)
	}
	requireContains(t, out, "Asset keyframes")
	requireContains(t, out, "WARN")
	requireContains(t, out, "All required checks passed")
}

func TestHeadlessRunCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	frames := filepath.Join(t.TempDir(), "frames")

	if _, err := runCLI(t, "--config", env.configPath, "run", "--headless", "--max-ticks", "5", "--frames-dir", frames); err != nil {
		t.Fatalf("run: %v", err)
	}
	entries, err := os.ReadDir(frames)
	if err != nil {
		t.Fatalf("read frames: %v", err)
	}
	if len(entries) < 5 {
		t.Fatalf("expected at least 5 frames, got %d", len(entries))
	}
}
