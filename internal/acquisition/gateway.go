// Package acquisition drives the external data acquisition executable and
// collects the files it produces.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Clonexy700/DAS-auto-experiment-app/internal/fsutil"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/monitoring"
)

// ErrNoFiles is returned when the acquisition process exits cleanly but
// leaves the staging directory empty.
var ErrNoFiles = errors.New("acquisition produced no files")

// ProcessError reports a nonzero exit from the acquisition executable.
type ProcessError struct {
	Code   int
	Output string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("acquisition process exited with code %d", e.Code)
}

// Runner executes an external command and returns its combined output.
// The production implementation shells out; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

// Run executes the command and folds a nonzero exit into a *ProcessError.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(output), &ProcessError{
				Code:   exitErr.ExitCode(),
				Output: string(output),
			}
		}
		return string(output), err
	}
	return string(output), nil
}

// Gateway wraps one acquisition executable and its staging directory.
type Gateway struct {
	Exe    string
	Dir    string
	NFiles int
	NRefls int

	FS     fsutil.FileSystem
	Runner Runner
}

// NewGateway builds a gateway with production filesystem and runner.
func NewGateway(exe, dir string, nfiles, nrefls int) *Gateway {
	return &Gateway{
		Exe:    exe,
		Dir:    dir,
		NFiles: nfiles,
		NRefls: nrefls,
		FS:     fsutil.OSFileSystem{},
		Runner: ExecRunner{},
	}
}

// Acquire clears the staging directory, runs the acquisition executable and
// returns the full paths of the files it produced. A nonzero exit surfaces
// as *ProcessError; a clean exit with an empty directory as ErrNoFiles.
func (g *Gateway) Acquire(ctx context.Context) ([]string, error) {
	if err := g.FS.RemoveAll(g.Dir); err != nil {
		return nil, fmt.Errorf("clearing staging dir: %w", err)
	}
	if err := g.FS.MkdirAll(g.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}

	args := []string{
		"--dir", g.Dir,
		"--nfiles", strconv.Itoa(g.NFiles),
		"--nrefls", strconv.Itoa(g.NRefls),
	}

	monitoring.Logf("[acquisition] running %s %s", g.Exe, strings.Join(args, " "))

	output, err := g.Runner.Run(ctx, g.Exe, args...)
	if err != nil {
		var procErr *ProcessError
		if errors.As(err, &procErr) && procErr.Output != "" {
			monitoring.Logf("[acquisition] process output: %s", strings.TrimSpace(procErr.Output))
		}
		return nil, err
	}
	if output != "" {
		monitoring.Logf("[acquisition] process output: %s", strings.TrimSpace(output))
	}

	names, err := g.FS.ReadDir(g.Dir)
	if err != nil {
		return nil, fmt.Errorf("listing staging dir: %w", err)
	}
	if len(names) == 0 {
		return nil, ErrNoFiles
	}

	files := make([]string, len(names))
	for i, name := range names {
		files[i] = filepath.Join(g.Dir, name)
	}
	return files, nil
}

// Relocate moves acquired files into dst, creating it if necessary.
func (g *Gateway) Relocate(files []string, dst string) error {
	if err := g.FS.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("creating destination dir: %w", err)
	}

	for _, src := range files {
		target := filepath.Join(dst, filepath.Base(src))
		if err := g.FS.Rename(src, target); err != nil {
			return fmt.Errorf("moving %s: %w", src, err)
		}
	}

	monitoring.Logf("[acquisition] moved %d files to %s", len(files), dst)
	return nil
}
