package connection

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidModuleName is returned for empty module names or names that cannot form a directory.
	ErrInvalidModuleName = errors.New("invalid module name")
	// ErrConfigParse is returned when a configuration file exists but cannot be parsed.
	ErrConfigParse = errors.New("configuration parse error")
	// ErrConfigWrite is returned when the global configuration file cannot be created.
	ErrConfigWrite = errors.New("configuration write error")
)

// ConfigError describes a failure reading or writing a configuration file.
// It unwraps to both its kind (ErrConfigParse or ErrConfigWrite) and the underlying cause.
type ConfigError struct {
	Kind error
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ConfigError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func parseError(path string, err error) error {
	return &ConfigError{Kind: ErrConfigParse, Path: path, Err: err}
}

func writeError(path string, err error) error {
	return &ConfigError{Kind: ErrConfigWrite, Path: path, Err: err}
}
