package preflight

import (
	"context"

	"facestage/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryReadable("Asset directory", cfg.Paths.AssetDir))
	for _, entry := range cfg.Assets.Manifest {
		res := CheckFileReadable("Asset "+entry.ID, cfg.AssetPath(entry.Src))
		res.Optional = entry.Optional
		results = append(results, res)
	}

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if cfg.Render.FramesDir != "" {
		results = append(results, CheckDirectoryAccess("Frames directory", cfg.Render.FramesDir))
	}

	if cfg.Share.Enabled {
		switch cfg.Share.Backend {
		case config.ShareBackendLocal:
			results = append(results, CheckDirectoryAccess("Share directory", cfg.Share.Dir))
		case config.ShareBackendS3:
			results = append(results, CheckS3Config(cfg.Share))
		}
	}

	if cfg.Capture.MonitorHotplug {
		results = append(results, CheckDevice("Capture device", cfg.Capture.Device))
	}

	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Optional: status.Optional,
			Detail:   statusDetail(status),
		})
	}

	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}

func statusDetail(s BinaryStatus) string {
	if s.Available {
		return s.Command + " (" + s.Description + ")"
	}
	return s.Detail
}
