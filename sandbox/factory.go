package sandbox

import (
	"go.uber.org/zap"

	"github.com/isdmx/querybox/config"
	"github.com/isdmx/querybox/faults"
)

// NewRunner creates the runner selected by sandbox.backend. The local
// backend is refused unless sandbox.enable_local_backend is set.
func NewRunner(cfg *config.Config, logger *zap.Logger) (Runner, error) {
	switch cfg.Sandbox.Backend {
	case "docker", "podman":
		return NewContainerRunner(logger, cfg.Sandbox, cfg.Sandbox.Backend), nil
	case "local":
		if !cfg.Sandbox.EnableLocalBackend {
			return nil, faults.New(faults.SandboxError,
				"local backend is disabled; set sandbox.enable_local_backend to use it")
		}
		return NewLocalRunner(logger, cfg.Sandbox), nil
	default:
		return nil, faults.Newf(faults.SandboxError, "unsupported backend: %s", cfg.Sandbox.Backend)
	}
}
