package assets_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"facestage/internal/assets"
	"facestage/internal/audio"
	"facestage/internal/config"
	"facestage/internal/logging"
	"facestage/internal/services"
	"facestage/internal/testsupport"
)

func TestLoadFixtureManifest(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFixtureAssets(30, 4))

	loader := assets.NewLoader(cfg, logging.NewNop())
	bundle, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if bundle.Keyframes == nil || bundle.Audio == nil {
		t.Fatalf("bundle missing document or audio: %+v", bundle)
	}
	if bundle.Recording != nil {
		t.Fatalf("optional capture recording should be skipped when absent")
	}
	want := time.Second
	if bundle.Audio.Duration != want {
		t.Fatalf("derived duration = %v, want %v", bundle.Audio.Duration, want)
	}
	if len(bundle.Loaded) != 2 {
		t.Fatalf("loaded = %v, want keyframes and music", bundle.Loaded)
	}
}

func TestConfiguredDurationWins(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFixtureAssets(30, 4))
	cfg.Audio.DurationSeconds = 12.5

	bundle, err := assets.NewLoader(cfg, logging.NewNop()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if bundle.Audio.Duration != 12500*time.Millisecond {
		t.Fatalf("duration = %v", bundle.Audio.Duration)
	}
}

func TestRetryStopsAfterConfiguredAttempts(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFixtureAssets(10, 2))
	cfg.Assets.RetryAttempts = 3

	calls := 0
	observed := 0
	flaky := func(context.Context, string, *assets.Bundle) error {
		calls++
		return errors.New("disk busy")
	}
	loader := assets.NewLoader(cfg, logging.NewNop(),
		assets.WithDecoder(config.AssetKeyframes, flaky),
		assets.WithAttemptObserver(func(string, int, error) { observed++ }),
	)

	_, err := loader.Load(context.Background())
	if !errors.Is(err, services.ErrAssetLoad) {
		t.Fatalf("expected asset load error, got %v", err)
	}
	if calls != 3 || observed != 3 {
		t.Fatalf("calls=%d observed=%d, want 3", calls, observed)
	}
	if services.ExitCode(err) != services.ExitAssetLoad {
		t.Fatalf("exit code = %d", services.ExitCode(err))
	}
}

func TestRetryRecoversFromTransientFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFixtureAssets(10, 2))
	cfg.Assets.RetryAttempts = 3

	calls := 0
	loader := assets.NewLoader(cfg, logging.NewNop(),
		assets.WithDecoder(config.AssetMusic, func(_ context.Context, path string, b *assets.Bundle) error {
			calls++
			if calls < 2 {
				return errors.New("not yet")
			}
			asset, err := audio.Open(path, time.Second)
			if err != nil {
				return err
			}
			b.Audio = asset
			return nil
		}),
	)
	bundle, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if calls != 2 || bundle.Audio == nil {
		t.Fatalf("calls=%d audio=%v", calls, bundle.Audio)
	}
}

func TestMalformedKeyframesAreNotRetried(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFixtureAssets(10, 2))
	cfg.Assets.RetryAttempts = 5
	path := filepath.Join(cfg.Paths.AssetDir, "keyframes.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	attempts := 0
	loader := assets.NewLoader(cfg, logging.NewNop(),
		assets.WithAttemptObserver(func(string, int, error) { attempts++ }),
	)
	_, err := loader.Load(context.Background())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestStartDeliversOnceAndRejectsRestart(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFixtureAssets(10, 2))
	loader := assets.NewLoader(cfg, logging.NewNop())

	res := <-loader.Start(context.Background())
	if res.Err != nil || res.Bundle == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	again := <-loader.Start(context.Background())
	if !errors.Is(again.Err, assets.ErrAlreadyStarted) {
		t.Fatalf("second start err = %v", again.Err)
	}
}

func TestCancelledContextAbortsBackoff(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFixtureAssets(10, 2))
	cfg.Assets.RetryAttempts = 10
	cfg.Assets.RetryBackoffMS = 10_000
	cfg.Assets.RetryMaxBackoffMS = 10_000

	ctx, cancel := context.WithCancel(context.Background())
	loader := assets.NewLoader(cfg, logging.NewNop(),
		assets.WithDecoder(config.AssetKeyframes, func(context.Context, string, *assets.Bundle) error {
			cancel()
			return errors.New("busy")
		}),
	)
	_, err := loader.Load(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
