package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/isdmx/querybox/config"
	"github.com/isdmx/querybox/faults"
	"github.com/isdmx/querybox/toon"
)

// ContainerRunner implements Runner using a container engine CLI. The same
// runner serves Docker and Podman since their run syntax is compatible.
type ContainerRunner struct {
	logger    *zap.Logger
	cfg       config.SandboxConfig
	binary    string
	cmdRunner CommandRunner
	fs        FileSystem
}

// ContainerRunnerOption defines a functional option for ContainerRunner
type ContainerRunnerOption func(*ContainerRunner)

// WithCommandRunner sets the CommandRunner for ContainerRunner
func WithCommandRunner(cmdRunner CommandRunner) ContainerRunnerOption {
	return func(c *ContainerRunner) {
		c.cmdRunner = cmdRunner
	}
}

// WithFileSystem sets the FileSystem for ContainerRunner
func WithFileSystem(fs FileSystem) ContainerRunnerOption {
	return func(c *ContainerRunner) {
		c.fs = fs
	}
}

// NewContainerRunner creates a runner that shells out to the given container
// binary, "docker" or "podman".
func NewContainerRunner(logger *zap.Logger, cfg config.SandboxConfig, binary string, opts ...ContainerRunnerOption) *ContainerRunner {
	runner := &ContainerRunner{
		logger:    logger,
		cfg:       cfg,
		binary:    binary,
		cmdRunner: &RealCommandRunner{},
		fs:        &RealFileSystem{},
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// Run executes the analysis script in a fresh container
func (c *ContainerRunner) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	tempDir, err := c.fs.MkdirTemp("", "querybox-exec-*")
	if err != nil {
		return RunResult{}, faults.Wrap(faults.SandboxError, "failed to create scratch dir", err)
	}
	defer func() {
		if rmErr := c.fs.RemoveAll(tempDir); rmErr != nil {
			c.logger.Error("failed to remove scratch directory", zap.String("path", tempDir), zap.Error(rmErr))
		}
	}()

	workdirPath := filepath.Join(tempDir, "workdir")
	if mkdirErr := c.fs.MkdirAll(workdirPath, DirPermission); mkdirErr != nil {
		return RunResult{}, faults.Wrap(faults.SandboxError, "failed to create workdir", mkdirErr)
	}

	if err := writeScript(c.fs, workdirPath, c.cfg, req); err != nil {
		return RunResult{}, err
	}

	containerName := fmt.Sprintf("querybox-exec-%d", time.Now().UnixNano())
	cmdArgs := []string{
		c.binary, "run",
		"--name", containerName,
		"--rm",
		"-v", fmt.Sprintf("%s:/workdir", workdirPath),
		"--workdir", "/workdir",
		"--memory", fmt.Sprintf("%dm", c.cfg.MemoryMB),
		"--ulimit", "fsize=100000000",
		"--ulimit", fmt.Sprintf("cpu=%d", c.cfg.TimeoutSec),
		"--security-opt", "no-new-privileges:true",
		"--user", "nobody",
		"--cap-drop", "ALL",
	}
	if c.cfg.NetworkEnabled {
		cmdArgs = append(cmdArgs, "--network", "bridge")
	} else {
		cmdArgs = append(cmdArgs, "--network", "none")
	}
	cmdArgs = append(cmdArgs, c.cfg.Image, "python", ScriptFileName)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutSec)*time.Second)
	defer cancel()

	start := time.Now()
	stdout, stderr, exitCode, err := c.cmdRunner.RunCommand(ctxWithTimeout, cmdArgs)

	if ctxWithTimeout.Err() == context.DeadlineExceeded {
		// --rm has not fired yet; the container is still running.
		if _, _, _, stopErr := c.cmdRunner.RunCommand(ctx, []string{c.binary, "stop", containerName}); stopErr != nil {
			c.logger.Warn("failed to stop container after timeout", zap.String("container", containerName), zap.Error(stopErr))
		}
		return RunResult{}, faults.Newf(faults.SandboxError,
			"execution timed out after %ds", c.cfg.TimeoutSec)
	}

	if err != nil {
		return RunResult{}, faults.Wrap(faults.SandboxError, "failed to run container", err)
	}
	if exitCode == oomExitCode {
		return RunResult{}, faults.Newf(faults.SandboxError,
			"execution killed after exceeding the %dm memory limit", c.cfg.MemoryMB)
	}
	if exitCode != 0 {
		return RunResult{}, scriptFailure(exitCode, stderr, c.cfg.OutputCapBytes)
	}

	c.logger.Info("sandboxed run finished",
		zap.Duration("elapsed", time.Since(start)))

	stdout, value := extractValue(stdout)
	result := RunResult{Stdout: stdout, Stderr: stderr, Value: value}
	return capOutput(result, c.cfg.OutputCapBytes), nil
}

// 128 + SIGKILL, the exit code a container engine reports when the cgroup
// memory limit kills the interpreter.
const oomExitCode = 137

// scriptFailure maps a nonzero interpreter exit to a typed fault carrying
// the captured stderr.
func scriptFailure(exitCode int, stderr string, capBytes int) error {
	detail, _ := toon.Text(strings.TrimSpace(stderr), capBytes)
	if detail == "" {
		return faults.Newf(faults.SandboxError, "execution failed with exit code %d", exitCode)
	}
	return faults.Newf(faults.SandboxError, "execution failed with exit code %d: %s", exitCode, detail)
}

// extractValue splits the serialized final value off the captured stdout.
// The postfix emits it as the last sentinel-prefixed line, so the last
// occurrence wins even when the analysis code printed the sentinel itself.
func extractValue(stdout string) (string, any) {
	idx := strings.LastIndex(stdout, "\n"+config.ResultSentinel)
	if idx < 0 {
		return stdout, nil
	}
	payload := stdout[idx+1+len(config.ResultSentinel):]
	if nl := strings.IndexByte(payload, '\n'); nl >= 0 {
		payload = payload[:nl]
	}
	var value any
	if jsonErr := json.Unmarshal([]byte(payload), &value); jsonErr != nil {
		return stdout, nil
	}
	return stdout[:idx], value
}

// writeScript lays out the scratch directory: the dataset as data.json when
// one is bound, and the script with the configured prefix and postfix
// wrapped around the user code.
func writeScript(fs FileSystem, workdirPath string, cfg config.SandboxConfig, req RunRequest) error {
	code := req.Code
	if req.Rows != nil {
		data, err := json.Marshal(req.Rows)
		if err != nil {
			return faults.Wrap(faults.SandboxError, "failed to encode bound rows", err)
		}
		if err := fs.WriteFile(filepath.Join(workdirPath, DataFileName), data, FilePermission); err != nil {
			return faults.Wrap(faults.SandboxError, "failed to write bound rows", err)
		}
		code = cfg.PrefixCode + code
	}
	code += "\n" + config.ScriptEndMarker + "\n" + cfg.PostfixCode

	if err := fs.WriteFile(filepath.Join(workdirPath, ScriptFileName), []byte(code), FilePermission); err != nil {
		return faults.Wrap(faults.SandboxError, "failed to write script", err)
	}
	return nil
}

// capOutput enforces the output byte limit. Stderr gets the same limit but
// only stdout truncation is reported.
func capOutput(result RunResult, capBytes int) RunResult {
	result.Stdout, result.StdoutTruncated = toon.Text(result.Stdout, capBytes)
	result.Stderr, _ = toon.Text(result.Stderr, capBytes)
	return result
}
