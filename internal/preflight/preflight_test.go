package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"facestage/internal/config"
	"facestage/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFileReadable(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "keyframes.json")
	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(full, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if r := CheckFileReadable("full", full); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	if r := CheckFileReadable("empty", empty); r.Passed {
		t.Fatal("expected empty file to fail")
	}
	if r := CheckFileReadable("dir", dir); r.Passed {
		t.Fatal("expected directory to fail")
	}
}

func TestCheckDevice_RegularFileRejected(t *testing.T) {
	f := filepath.Join(t.TempDir(), "video0")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckDevice("cam", f); r.Passed {
		t.Fatal("regular file is not a capture device")
	}
	if r := CheckDevice("cam", ""); r.Passed || r.Detail != "device not configured" {
		t.Fatalf("unexpected result %#v", r)
	}
}

func TestCheckBinaries(t *testing.T) {
	testsupport.NewConfig(t, testsupport.WithStubbedBinaries("present-player"))

	results := CheckBinaries([]Requirement{
		{Name: "Present", Command: "present-player"},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Available || !filepath.IsAbs(results[0].Command) {
		t.Fatalf("expected resolved path, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary detail, got %#v", results[1])
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank detail %q", results[2].Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil, got %v", results)
	}
}

func TestRunAll_FixtureConfigPasses(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFixtureAssets(5, 2))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %#v", failed)
	}

	var sawCapture bool
	for _, r := range results {
		if r.Name == "Asset capture" {
			sawCapture = true
			if r.Passed || !r.Optional {
				t.Fatalf("missing optional capture should fail softly: %#v", r)
			}
		}
	}
	if !sawCapture {
		t.Fatal("expected a result for the optional capture asset")
	}
}

func TestRunAll_MissingKeyframesFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	failed := Failed(RunAll(context.Background(), cfg))
	if len(failed) == 0 {
		t.Fatal("expected missing asset directory and keyframes to fail")
	}
}

func TestRunAll_S3RequiresBucket(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFixtureAssets(5, 2))
	cfg.Share.Enabled = true
	cfg.Share.Backend = config.ShareBackendS3
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	failed := Failed(RunAll(context.Background(), cfg))
	if len(failed) != 1 || failed[0].Name != "S3 share bucket" {
		t.Fatalf("expected only the bucket check to fail, got %#v", failed)
	}
}
