// Package build runs source builds through the strategy declared by a
// package's recipe.
package build

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"

	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
	"go.trai.ch/zerr"
)

// logExcerptLimit bounds the tool output carried in a build failure.
const logExcerptLimit = 4096

// strategy produces the command sequence for one build system. Commands run
// in order inside the source directory; workDir is a scoped scratch
// directory removed after the build.
type strategy interface {
	commands(srcDir, workDir, prefix string) [][]string
}

type autotools struct{}

func (autotools) commands(srcDir, _, prefix string) [][]string {
	return [][]string{
		{filepath.Join(srcDir, "configure"), "--prefix=" + prefix},
		{"make"},
		{"make", "install"},
	}
}

type cmake struct{}

func (cmake) commands(srcDir, workDir, prefix string) [][]string {
	buildDir := filepath.Join(workDir, "build")
	return [][]string{
		{"cmake", "-S", srcDir, "-B", buildDir, "-DCMAKE_INSTALL_PREFIX=" + prefix},
		{"cmake", "--build", buildDir},
		{"cmake", "--install", buildDir},
	}
}

type meson struct{}

func (meson) commands(srcDir, workDir, prefix string) [][]string {
	buildDir := filepath.Join(workDir, "build")
	return [][]string{
		{"meson", "setup", buildDir, srcDir, "--prefix=" + prefix},
		{"meson", "compile", "-C", buildDir},
		{"meson", "install", "-C", buildDir},
	}
}

// Dispatcher implements ports.Builder by selecting the strategy declared in
// the package spec and running it in a sanitized environment.
type Dispatcher struct {
	logger     ports.Logger
	strategies map[domain.BuildSystem]strategy
}

// NewDispatcher creates a Dispatcher with the built-in strategies.
func NewDispatcher(logger ports.Logger) *Dispatcher {
	return &Dispatcher{
		logger: logger,
		strategies: map[domain.BuildSystem]strategy{
			domain.BuildAutotools: autotools{},
			domain.BuildCMake:     cmake{},
			domain.BuildMeson:     meson{},
		},
	}
}

// Build compiles srcDir with the spec's declared build system and installs
// the result into stageDir. Failures carry the tool's exit code and a
// bounded excerpt of its output; builds are never retried.
func (d *Dispatcher) Build(ctx context.Context, spec *domain.PackageSpec, srcDir, stageDir string) error {
	strat, ok := d.strategies[spec.BuildSystem]
	if !ok {
		err := zerr.With(zerr.New("no build strategy for build system"), "package", spec.Name.String())
		return zerr.With(err, "build", string(spec.BuildSystem))
	}

	workDir, err := os.MkdirTemp("", "hops-build-"+spec.Name.String()+"-")
	if err != nil {
		return zerr.Wrap(err, "failed to create build directory")
	}
	defer os.RemoveAll(workDir) //nolint:errcheck // Scoped cleanup on every exit path

	srcDir = resolveSourceRoot(srcDir)
	env := sanitizedEnv()
	tail := newTailBuffer(logExcerptLimit)

	for _, argv := range strat.commands(srcDir, workDir, stageDir) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.runCommand(ctx, argv, srcDir, env, tail); err != nil {
			buildErr := zerr.With(errors.Join(domain.ErrBuildFailed, err), "package", spec.Name.String())
			buildErr = zerr.With(buildErr, "command", argv[0])
			return zerr.With(buildErr, "log_excerpt", tail.String())
		}
	}
	return nil
}

func (d *Dispatcher) runCommand(ctx context.Context, argv []string, dir string, env []string, tail *tailBuffer) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // Commands come from the fixed strategy tables
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = tail
	cmd.Stderr = tail

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
	}
	return nil
}

// resolveSourceRoot descends into a single top-level directory, the usual
// shape of an unpacked source tarball.
func resolveSourceRoot(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 || !entries[0].IsDir() {
		return dir
	}
	return filepath.Join(dir, entries[0].Name())
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
