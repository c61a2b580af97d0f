package sandbox

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/isdmx/querybox/config"
	"github.com/isdmx/querybox/faults"
)

// LocalRunner implements Runner by invoking python3 directly on the host.
// It offers no isolation and is intended only for development; NewRunner
// refuses it unless explicitly enabled in configuration.
type LocalRunner struct {
	logger    *zap.Logger
	cfg       config.SandboxConfig
	cmdRunner CommandRunner
	fs        FileSystem
}

// LocalRunnerOption defines a functional option for LocalRunner
type LocalRunnerOption func(*LocalRunner)

// WithLocalCommandRunner sets the CommandRunner for LocalRunner
func WithLocalCommandRunner(cmdRunner CommandRunner) LocalRunnerOption {
	return func(l *LocalRunner) {
		l.cmdRunner = cmdRunner
	}
}

// WithLocalFileSystem sets the FileSystem for LocalRunner
func WithLocalFileSystem(fs FileSystem) LocalRunnerOption {
	return func(l *LocalRunner) {
		l.fs = fs
	}
}

// NewLocalRunner creates a LocalRunner with default implementations and optional interfaces
func NewLocalRunner(logger *zap.Logger, cfg config.SandboxConfig, opts ...LocalRunnerOption) *LocalRunner {
	runner := &LocalRunner{
		logger:    logger,
		cfg:       cfg,
		cmdRunner: &RealCommandRunner{},
		fs:        &RealFileSystem{},
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// Run executes the analysis script with the host python3 interpreter
func (l *LocalRunner) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	l.logger.Warn("running code without isolation, local backend is for development only")

	tempDir, err := l.fs.MkdirTemp("", "querybox-exec-*")
	if err != nil {
		return RunResult{}, faults.Wrap(faults.SandboxError, "failed to create scratch dir", err)
	}
	defer func() {
		if rmErr := l.fs.RemoveAll(tempDir); rmErr != nil {
			l.logger.Error("failed to remove scratch directory", zap.String("path", tempDir), zap.Error(rmErr))
		}
	}()

	workdirPath := filepath.Join(tempDir, "workdir")
	if mkdirErr := l.fs.MkdirAll(workdirPath, DirPermission); mkdirErr != nil {
		return RunResult{}, faults.Wrap(faults.SandboxError, "failed to create workdir", mkdirErr)
	}

	if err := writeScript(l.fs, workdirPath, l.cfg, req); err != nil {
		return RunResult{}, err
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, time.Duration(l.cfg.TimeoutSec)*time.Second)
	defer cancel()

	// The script resolves data.json relative to its working directory.
	shellCmd := fmt.Sprintf("cd '%s' && python3 %s", workdirPath, ScriptFileName)
	stdout, stderr, exitCode, err := l.cmdRunner.RunCommand(ctxWithTimeout, []string{"sh", "-c", shellCmd})

	if ctxWithTimeout.Err() == context.DeadlineExceeded {
		return RunResult{}, faults.Newf(faults.SandboxError,
			"execution timed out after %ds", l.cfg.TimeoutSec)
	}

	if err != nil {
		return RunResult{}, faults.Wrap(faults.SandboxError, "failed to run python3", err)
	}
	if exitCode != 0 {
		return RunResult{}, scriptFailure(exitCode, stderr, l.cfg.OutputCapBytes)
	}

	stdout, value := extractValue(stdout)
	result := RunResult{Stdout: stdout, Stderr: stderr, Value: value}
	return capOutput(result, l.cfg.OutputCapBytes), nil
}
