package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// GlobalModuleName is the reserved module name whose connection hosts the action ledger.
	GlobalModuleName = "bio2bel"

	// DefaultDatabaseName is the SQLite file used by the hardcoded default connection.
	DefaultDatabaseName = "bio2bel.db"

	// LogFileName is the rotating log file kept in the data root.
	LogFileName = "bio2bel.log"
)

// Paths holds the filesystem locations used by bio2bel.
// Values come from the environment; empty values fall back to locations under the user's home.
type Paths struct {
	// DataDir is the root under which every module gets its own data directory.
	DataDir string `env:"BIO2BEL_DIRECTORY" env-default:""`

	// ConfigPath is the global INI configuration file.
	ConfigPath string `env:"BIO2BEL_CONFIG_PATH" env-default:""`

	// LogLevel optionally overrides the log level (trace, debug, info).
	LogLevel string `env:"BIO2BEL_LOG_LEVEL" env-default:""`
}

// LoadPaths reads Paths from the environment and fills in defaults.
func LoadPaths() (*Paths, error) {
	p := &Paths{}
	if err := cleanenv.ReadEnv(p); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := p.applyDefaults(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Paths) applyDefaults() error {
	if p.DataDir != "" && p.ConfigPath != "" {
		p.DataDir = expandHome(p.DataDir)
		p.ConfigPath = expandHome(p.ConfigPath)
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to determine home directory: %w", err)
	}

	if p.DataDir == "" {
		p.DataDir = filepath.Join(home, ".bio2bel")
	}
	if p.ConfigPath == "" {
		p.ConfigPath = filepath.Join(home, ".config", "bio2bel", "config.ini")
	}

	p.DataDir = expandHome(p.DataDir)
	p.ConfigPath = expandHome(p.ConfigPath)
	return nil
}

// DefaultConnection returns the hardcoded fallback connection string.
// An absolute data root yields four slashes after the scheme, e.g. sqlite:////home/me/.bio2bel/bio2bel.db.
func (p *Paths) DefaultConnection() string {
	return "sqlite:///" + filepath.ToSlash(filepath.Join(p.DataDir, DefaultDatabaseName))
}

// ModuleDir returns the data directory of a module without creating it.
func (p *Paths) ModuleDir(moduleName string) string {
	return filepath.Join(p.DataDir, strings.ToLower(moduleName))
}

// ModuleConfigPath returns the per-module configuration file path.
func (p *Paths) ModuleConfigPath(moduleName string) string {
	return filepath.Join(p.ModuleDir(moduleName), "config.ini")
}

// LogFilePath returns the log file location inside the data root.
func (p *Paths) LogFilePath() string {
	return filepath.Join(p.DataDir, LogFileName)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
