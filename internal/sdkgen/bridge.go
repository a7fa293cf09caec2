// Package sdkgen shells out to an external code generator to produce client
// SDKs from stored spec artifacts, and packages the results for download.
package sdkgen

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrArtifactNotFound indicates no uploaded spec file exists for the record,
// so there is nothing to generate from.
var ErrArtifactNotFound = errors.New("spec artifact not found")

// ErrOutputNotFound indicates generation has not been run for the requested
// (record, language) pair.
var ErrOutputNotFound = errors.New("sdk output not found, generate it first")

// GenerationError reports a generator subprocess that exited non-zero,
// carrying its captured error stream.
type GenerationError struct {
	Stderr string
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("sdk generation failed: %v: %s", e.Err, strings.TrimSpace(e.Stderr))
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Runner invokes the external generator. It is an interface so tests can
// substitute the subprocess.
type Runner interface {
	Run(ctx context.Context, specPath, language, outputDir string) (stdout, stderr string, err error)
}

// ExecRunner runs the generator binary via os/exec.
type ExecRunner struct {
	// Bin is the generator executable, e.g. "openapi-generator-cli".
	Bin string
}

// Run invokes the generator with the conventional generate arguments,
// capturing both output streams in full.
func (r *ExecRunner) Run(ctx context.Context, specPath, language, outputDir string) (string, string, error) {
	cmd := exec.CommandContext(ctx, r.Bin, "generate", "-i", specPath, "-g", language, "-o", outputDir)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Bridge locates spec artifacts, runs the generator, and archives output.
type Bridge struct {
	uploadsDir string
	sdksDir    string
	timeout    time.Duration
	runner     Runner
}

// NewBridge creates a bridge. A zero timeout defaults to five minutes; a
// hung generator is killed when it expires.
func NewBridge(uploadsDir, sdksDir string, timeout time.Duration, runner Runner) *Bridge {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Bridge{
		uploadsDir: uploadsDir,
		sdksDir:    sdksDir,
		timeout:    timeout,
		runner:     runner,
	}
}

// FindArtifact returns the path of the uploaded spec file whose name begins
// with the record identifier.
func (b *Bridge) FindArtifact(apiID string) (string, error) {
	entries, err := os.ReadDir(b.uploadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrArtifactNotFound
		}
		return "", err
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), apiID) {
			return filepath.Join(b.uploadsDir, entry.Name()), nil
		}
	}
	return "", ErrArtifactNotFound
}

// Generate runs the external generator for the record's artifact and target
// language. Returns the output directory on success. The subprocess runs
// under the bridge timeout; non-zero exit yields a GenerationError carrying
// the captured stderr.
func (b *Bridge) Generate(ctx context.Context, apiID, language string) (string, error) {
	specPath, err := b.FindArtifact(apiID)
	if err != nil {
		return "", err
	}

	outputDir := b.outputDir(apiID, language)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	_, stderr, err := b.runner.Run(ctx, specPath, language, outputDir)
	if err != nil {
		return "", &GenerationError{Stderr: stderr, Err: err}
	}

	return outputDir, nil
}

// OutputDir returns the generated output directory for the pair, or
// ErrOutputNotFound if generation has not produced one.
func (b *Bridge) OutputDir(apiID, language string) (string, error) {
	dir := b.outputDir(apiID, language)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", ErrOutputNotFound
	}
	return dir, nil
}

// ArchivePath returns the conventional location of a pre-built archive for a
// record, used by the legacy download-by-id route.
func (b *Bridge) ArchivePath(apiID string) string {
	return filepath.Join(b.sdksDir, apiID+".zip")
}

// Archive zips the directory's contents into memory with maximum compression.
// Building the full archive before any byte reaches the client keeps a
// mid-archive failure from being presented as a successful download.
func (b *Bridge) Archive(dir string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		zw.Close()
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *Bridge) outputDir(apiID, language string) string {
	return filepath.Join(b.sdksDir, apiID+"-"+language)
}
