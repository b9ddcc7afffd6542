package config

const (
	defaultAssetDir          = "~/.local/share/facestage/assets"
	defaultStateDir          = "~/.local/share/facestage"
	defaultLogDir            = "~/.local/share/facestage/logs"
	defaultShareDir          = "~/.local/share/facestage/share"
	defaultRenderWidth       = 1280
	defaultRenderHeight      = 720
	defaultFPS               = 30
	defaultRetryAttempts     = 3
	defaultRetryBackoffMS    = 250
	defaultRetryMaxBackoffMS = 2000
	defaultCaptureSource     = CaptureSourceReplay
	defaultCaptureDevice     = "/dev/video0"
	defaultSynthFrames       = 90
	defaultSynthLandmarks    = 68
	defaultScaleMultiplier   = 100
	defaultShareBackend      = ShareBackendLocal
	defaultDwellSeconds      = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Capture sources.
const (
	CaptureSourceReplay    = "replay"
	CaptureSourceSynthetic = "synthetic"
)

// Share backends.
const (
	ShareBackendLocal = "local"
	ShareBackendS3    = "s3"
)

// Manifest ids the kiosk looks up.
const (
	AssetKeyframes = "keyframes"
	AssetMusic     = "music-main"
	AssetCapture   = "capture"
)

// DefaultManifest returns the stock asset list.
func DefaultManifest() []ManifestEntry {
	return []ManifestEntry{
		{ID: AssetKeyframes, Src: "keyframes.json"},
		{ID: AssetMusic, Src: "main.mp3"},
		{ID: AssetCapture, Src: "capture.json", Optional: true},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AssetDir: defaultAssetDir,
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Render: Render{
			Width:  defaultRenderWidth,
			Height: defaultRenderHeight,
		},
		Clock: Clock{FPS: defaultFPS},
		Assets: Assets{
			Manifest:          DefaultManifest(),
			RetryAttempts:     defaultRetryAttempts,
			RetryBackoffMS:    defaultRetryBackoffMS,
			RetryMaxBackoffMS: defaultRetryMaxBackoffMS,
		},
		Capture: Capture{
			Source:         defaultCaptureSource,
			Device:         defaultCaptureDevice,
			SynthFrames:    defaultSynthFrames,
			SynthLandmarks: defaultSynthLandmarks,
		},
		Face: Face{ScaleMultiplier: defaultScaleMultiplier},
		Share: Share{
			Backend:      defaultShareBackend,
			Dir:          defaultShareDir,
			DwellSeconds: defaultDwellSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
