package sdkgen

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeRunner stands in for the generator subprocess.
type fakeRunner struct {
	stderr string
	err    error

	gotSpecPath string
	gotLanguage string
	gotOutput   string
}

func (r *fakeRunner) Run(ctx context.Context, specPath, language, outputDir string) (string, string, error) {
	r.gotSpecPath = specPath
	r.gotLanguage = language
	r.gotOutput = outputDir
	if r.err != nil {
		return "", r.stderr, r.err
	}
	// Emulate the generator dropping files into the output directory
	os.WriteFile(filepath.Join(outputDir, "client.go"), []byte("package client"), 0644)
	return "done", "", nil
}

func newBridge(t *testing.T, runner Runner) (*Bridge, string, string) {
	t.Helper()
	uploadsDir := t.TempDir()
	sdksDir := t.TempDir()
	return NewBridge(uploadsDir, sdksDir, 0, runner), uploadsDir, sdksDir
}

func TestFindArtifact(t *testing.T) {
	bridge, uploadsDir, _ := newBridge(t, &fakeRunner{})

	if err := os.WriteFile(filepath.Join(uploadsDir, "api-1.yaml"), []byte("spec"), 0644); err != nil {
		t.Fatal(err)
	}

	path, err := bridge.FindArtifact("api-1")
	if err != nil {
		t.Fatalf("FindArtifact failed: %v", err)
	}
	if filepath.Base(path) != "api-1.yaml" {
		t.Errorf("Expected api-1.yaml, got %s", path)
	}

	_, err = bridge.FindArtifact("api-2")
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("Expected ErrArtifactNotFound, got %v", err)
	}
}

func TestGenerate_Success(t *testing.T) {
	runner := &fakeRunner{}
	bridge, uploadsDir, sdksDir := newBridge(t, runner)

	os.WriteFile(filepath.Join(uploadsDir, "api-1.json"), []byte("{}"), 0644)

	outputDir, err := bridge.Generate(context.Background(), "api-1", "go")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if outputDir != filepath.Join(sdksDir, "api-1-go") {
		t.Errorf("Unexpected output directory: %s", outputDir)
	}
	if runner.gotLanguage != "go" {
		t.Errorf("Expected language go, got %s", runner.gotLanguage)
	}
	if filepath.Base(runner.gotSpecPath) != "api-1.json" {
		t.Errorf("Expected artifact path, got %s", runner.gotSpecPath)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "client.go")); err != nil {
		t.Errorf("Expected generated file in output directory: %v", err)
	}
}

func TestGenerate_MissingArtifact(t *testing.T) {
	bridge, _, _ := newBridge(t, &fakeRunner{})

	_, err := bridge.Generate(context.Background(), "api-1", "go")
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("Expected ErrArtifactNotFound, got %v", err)
	}
}

func TestGenerate_SubprocessFailure(t *testing.T) {
	runner := &fakeRunner{stderr: "unsupported language: cobol", err: errors.New("exit status 1")}
	bridge, uploadsDir, _ := newBridge(t, runner)

	os.WriteFile(filepath.Join(uploadsDir, "api-1.json"), []byte("{}"), 0644)

	_, err := bridge.Generate(context.Background(), "api-1", "cobol")
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Expected GenerationError, got %v", err)
	}
	if genErr.Stderr != "unsupported language: cobol" {
		t.Errorf("Expected captured stderr, got %q", genErr.Stderr)
	}
}

func TestOutputDir(t *testing.T) {
	bridge, _, sdksDir := newBridge(t, &fakeRunner{})

	_, err := bridge.OutputDir("api-1", "go")
	if !errors.Is(err, ErrOutputNotFound) {
		t.Errorf("Expected ErrOutputNotFound before generation, got %v", err)
	}

	os.MkdirAll(filepath.Join(sdksDir, "api-1-go"), 0755)

	dir, err := bridge.OutputDir("api-1", "go")
	if err != nil {
		t.Fatalf("OutputDir failed: %v", err)
	}
	if dir != filepath.Join(sdksDir, "api-1-go") {
		t.Errorf("Unexpected output directory: %s", dir)
	}
}

func TestArchive(t *testing.T) {
	bridge, _, _ := newBridge(t, &fakeRunner{})

	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "src"), 0755)
	os.WriteFile(filepath.Join(dir, "README.md"), []byte("readme"), 0644)
	os.WriteFile(filepath.Join(dir, "src", "client.go"), []byte("package client"), 0644)

	data, err := bridge.Archive(dir)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Archive is not a valid zip: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["README.md"] || !names["src/client.go"] {
		t.Errorf("Archive missing expected entries: %v", names)
	}
}

func TestArchive_MissingDirectory(t *testing.T) {
	bridge, _, _ := newBridge(t, &fakeRunner{})

	if _, err := bridge.Archive(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected error for missing directory")
	}
}
