package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/Hysas/procside/internal/app"
)

const FileName = ".procside.toml"

type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

type Config struct {
	Environment   Environment  `toml:"environment"`
	ArtifactDir   string       `toml:"artifact_dir"`
	LogLevel      string       `toml:"log_level"`
	Silent        bool         `toml:"silent"`
	DefaultFormat string       `toml:"default_format"`
	AutoEvidence  bool         `toml:"auto_evidence"`
	QualityGates  GatesConfig  `toml:"quality_gates"`
	Server        ServerConfig `toml:"server"`
}

type GatesConfig struct {
	Enabled       bool         `toml:"enabled"`
	FailOnWarning bool         `toml:"fail_on_warning"`
	Gates         []GateConfig `toml:"gates"`
}

type GateConfig struct {
	ID       string `toml:"id"`
	Enabled  bool   `toml:"enabled"`
	Severity string `toml:"severity,omitempty"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

func Default() Config {
	return Config{
		Environment:   EnvDevelopment,
		ArtifactDir:   ".ai",
		LogLevel:      "info",
		Silent:        false,
		DefaultFormat: "all",
		AutoEvidence:  true,
		QualityGates: GatesConfig{
			Enabled:       true,
			FailOnWarning: false,
			Gates: []GateConfig{
				{ID: "has_steps", Enabled: true},
				{ID: "all_steps_completed", Enabled: false},
				{ID: "has_evidence", Enabled: true},
				{ID: "has_decisions", Enabled: false},
				{ID: "no_pending_missing", Enabled: true},
				{ID: "has_rollback", Enabled: false},
				{ID: "has_validation", Enabled: false},
			},
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:7458",
		},
	}
}

// Load reads the project config file when present and applies
// environment overrides on top. Precedence: env vars over file over
// defaults.
func Load(projectPath string) (Config, error) {
	cfg := Default()

	content, err := os.ReadFile(Path(projectPath))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	case len(content) > 0:
		if err := toml.Unmarshal(content, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode toml: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("PROCSIDE_ENV"); ok {
		if env := Environment(v); env == EnvDevelopment || env == EnvProduction {
			cfg.Environment = env
		}
	}
	if v, ok := os.LookupEnv("PROCSIDE_ARTIFACT_DIR"); ok && strings.TrimSpace(v) != "" {
		cfg.ArtifactDir = v
	}
	if v, ok := os.LookupEnv("PROCSIDE_LOG_LEVEL"); ok {
		if slices.Contains([]string{"debug", "info", "warn", "error"}, v) {
			cfg.LogLevel = v
		}
	}
	if v, ok := os.LookupEnv("PROCSIDE_SILENT"); ok {
		cfg.Silent = v == "true"
	}
	if v, ok := os.LookupEnv("PROCSIDE_DEFAULT_FORMAT"); ok {
		if slices.Contains([]string{"md", "mermaid", "checklist", "all"}, v) {
			cfg.DefaultFormat = v
		}
	}
	if v, ok := os.LookupEnv("PROCSIDE_AUTO_EVIDENCE"); ok {
		cfg.AutoEvidence = v == "true"
	}
	if v, ok := os.LookupEnv("PROCSIDE_SERVER_ADDR"); ok && strings.TrimSpace(v) != "" {
		cfg.Server.Addr = v
	}
}

func (c Config) Validate() error {
	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if strings.TrimSpace(c.ArtifactDir) == "" {
		return errors.New("artifact dir is required")
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if !slices.Contains([]string{"md", "mermaid", "checklist", "all"}, c.DefaultFormat) {
		return fmt.Errorf("unknown default format %q", c.DefaultFormat)
	}
	for _, g := range c.QualityGates.Gates {
		if g.Severity != "" && g.Severity != "error" && g.Severity != "warning" {
			return fmt.Errorf("gate %s: unknown severity %q", g.ID, g.Severity)
		}
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server addr is required")
	}
	return nil
}

// Gates converts the file representation into the runtime gate
// configuration.
func (c Config) Gates() app.GatesConfig {
	out := app.GatesConfig{
		Enabled:       c.QualityGates.Enabled,
		FailOnWarning: c.QualityGates.FailOnWarning,
	}
	for _, g := range c.QualityGates.Gates {
		out.Gates = append(out.Gates, app.GateToggle{
			ID:       g.ID,
			Enabled:  g.Enabled,
			Severity: app.GateSeverity(g.Severity),
		})
	}
	return out
}

func Path(projectPath string) string {
	return filepath.Join(projectPath, FileName)
}

func Exists(projectPath string) bool {
	_, err := os.Stat(Path(projectPath))
	return err == nil
}

// Write persists the config to the project directory and returns the
// file path.
func Write(cfg Config, projectPath string) (string, error) {
	content, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode toml: %w", err)
	}
	path := Path(projectPath)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}
