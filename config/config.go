package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration. It is loaded once at
// process start and treated as immutable afterwards.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Response ResponseConfig `mapstructure:"response"`
	Sandbox  SandboxConfig  `mapstructure:"sandbox"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds MCP transport configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// DatabaseConfig holds connection pool and query limit configuration.
// URL must point at a credential restricted to read-only privileges; the
// statement validator is defense in depth on top of that.
type DatabaseConfig struct {
	URL                 string   `mapstructure:"url"`
	MinConns            int      `mapstructure:"min_conns"`
	MaxConns            int      `mapstructure:"max_conns"`
	StatementTimeoutSec int      `mapstructure:"statement_timeout_sec"`
	RowCap              int      `mapstructure:"row_cap"`
	Schemas             []string `mapstructure:"schemas"`
}

// ResponseConfig holds the compaction limits applied to every tool response
type ResponseConfig struct {
	MaxBytes         int `mapstructure:"max_bytes"`
	MaxCellChars     int `mapstructure:"max_cell_chars"`
	CellPreviewChars int `mapstructure:"cell_preview_chars"`
}

// SandboxConfig holds code-execution isolation configuration
type SandboxConfig struct {
	Backend            string `mapstructure:"backend"`
	Image              string `mapstructure:"image"`
	TimeoutSec         int    `mapstructure:"timeout_sec"`
	MemoryMB           int    `mapstructure:"memory_mb"`
	OutputCapBytes     int    `mapstructure:"output_cap_bytes"`
	NetworkEnabled     bool   `mapstructure:"network_enabled"`
	EnableLocalBackend bool   `mapstructure:"enable_local_backend"`
	PrefixCode         string `mapstructure:"prefix_code"`
	PostfixCode        string `mapstructure:"postfix_code"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// ScriptEndMarker is written between the analysis code and the postfix in
// the generated script. The default postfix splits on it to locate the last
// expression of the analysis code.
const ScriptEndMarker = "# --- end of analysis code ---"

// ResultSentinel prefixes the JSON-serialized final value on the script's
// stdout. The sandbox runner strips the sentinel line from the captured
// output and decodes the value.
const ResultSentinel = "__QUERYBOX_RESULT__"

// defaultPrefixCode makes a bound dataset visible to analysis code as
// `rows` (list of dicts) and `columns` without leaving loader names behind.
const defaultPrefixCode = `import json as _json, os as _os
rows, columns = [], []
if _os.path.exists("data.json"):
    with open("data.json") as _f:
        _d = _json.load(_f)
    columns = _d.get("columns", [])
    rows = [dict(zip(columns, _r)) for _r in _d.get("rows", [])]
    del _d, _f
del _json, _os
`

// defaultPostfixCode evaluates the final expression of the analysis code,
// if it has one, and emits it JSON-serialized on a sentinel-prefixed stdout
// line. Assignments, statements, and unserializable values degrade to no
// result rather than an error.
const defaultPostfixCode = `try:
    import json as _json
    _src = open("main.py").read().split("\n` + ScriptEndMarker + `\n", 1)[0]
    _lines = [_l for _l in _src.splitlines() if _l.strip()]
    _last = _lines[-1].strip() if _lines else ""
    _skip = ("#", "import", "from", "def", "class", "if", "for", "while",
             "try", "with", "return", "raise", "assert", "pass", "break",
             "continue")
    _value = None
    if _last and not _last.startswith(_skip):
        if "=" not in _last or _last.count("=") == _last.count("=="):
            try:
                _value = eval(_last)
            except Exception:
                _value = None
    if _value is not None:
        if hasattr(_value, "isoformat"):
            _value = _value.isoformat()
        elif isinstance(_value, (set, frozenset)):
            _value = sorted(_value, key=str)
        try:
            _json.dumps(_value)
        except Exception:
            _value = str(_value)
        print("\n` + ResultSentinel + `" + _json.dumps(_value))
except Exception:
    pass
`

// New loads and validates the application configuration
func New() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// The database URL carries a credential, so it is usually supplied via
	// the environment rather than the config file.
	_ = viper.BindEnv("database.url", "QUERYBOX_DATABASE_URL", "DATABASE_URL")

	// Set default values
	viper.SetDefault("server.transport", "stdio")
	viper.SetDefault("server.http_port", 8080)

	viper.SetDefault("database.min_conns", 1)
	viper.SetDefault("database.max_conns", 5)
	viper.SetDefault("database.statement_timeout_sec", 30)
	viper.SetDefault("database.row_cap", 1000)
	viper.SetDefault("database.schemas", []string{"public", "teamwork", "missive"})

	viper.SetDefault("response.max_bytes", 8000)
	viper.SetDefault("response.max_cell_chars", 200)
	viper.SetDefault("response.cell_preview_chars", 80)

	viper.SetDefault("sandbox.backend", "docker")
	viper.SetDefault("sandbox.image", "python:3.11-slim")
	viper.SetDefault("sandbox.timeout_sec", 10)
	viper.SetDefault("sandbox.memory_mb", 512)
	viper.SetDefault("sandbox.output_cap_bytes", 16384)
	viper.SetDefault("sandbox.network_enabled", false)
	viper.SetDefault("sandbox.enable_local_backend", false)
	viper.SetDefault("sandbox.prefix_code", defaultPrefixCode)
	viper.SetDefault("sandbox.postfix_code", defaultPostfixCode)

	viper.SetDefault("logging.mode", "production")
	viper.SetDefault("logging.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio' or 'http'", c.Server.Transport)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required (set QUERYBOX_DATABASE_URL or DATABASE_URL)")
	}

	if c.Database.MinConns < 0 || c.Database.MaxConns <= 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("invalid database pool bounds: min=%d max=%d", c.Database.MinConns, c.Database.MaxConns)
	}

	if c.Database.StatementTimeoutSec <= 0 {
		return fmt.Errorf("database.statement_timeout_sec must be positive, got: %d", c.Database.StatementTimeoutSec)
	}

	if c.Database.RowCap <= 0 {
		return fmt.Errorf("database.row_cap must be positive, got: %d", c.Database.RowCap)
	}

	if c.Response.MaxBytes <= 0 {
		return fmt.Errorf("response.max_bytes must be positive, got: %d", c.Response.MaxBytes)
	}

	if c.Response.MaxCellChars <= 0 || c.Response.CellPreviewChars <= 0 {
		return fmt.Errorf("response cell limits must be positive, got: max_cell_chars=%d cell_preview_chars=%d",
			c.Response.MaxCellChars, c.Response.CellPreviewChars)
	}

	if c.Sandbox.TimeoutSec <= 0 {
		return fmt.Errorf("sandbox.timeout_sec must be positive, got: %d", c.Sandbox.TimeoutSec)
	}

	if c.Sandbox.MemoryMB <= 0 {
		return fmt.Errorf("sandbox.memory_mb must be positive, got: %d", c.Sandbox.MemoryMB)
	}

	if c.Sandbox.OutputCapBytes <= 0 {
		return fmt.Errorf("sandbox.output_cap_bytes must be positive, got: %d", c.Sandbox.OutputCapBytes)
	}

	supportedBackends := map[string]bool{
		"docker": true,
		"podman": true,
		"local":  c.Sandbox.EnableLocalBackend, // local only enabled if specifically allowed
	}

	if !supportedBackends[c.Sandbox.Backend] {
		return fmt.Errorf("unsupported sandbox.backend: %s", c.Sandbox.Backend)
	}

	return nil
}

// StatementTimeout returns the query execution timeout as a duration
func (c *Config) StatementTimeout() time.Duration {
	return time.Duration(c.Database.StatementTimeoutSec) * time.Second
}

// SandboxTimeout returns the code execution timeout as a duration
func (c *Config) SandboxTimeout() time.Duration {
	return time.Duration(c.Sandbox.TimeoutSec) * time.Second
}
