package config

import (
	"strconv"
	"strings"
	"time"
)

// SettingsGetter is an interface for retrieving settings from storage.
// Keys are of the form "section.key".
type SettingsGetter interface {
	GetSetting(key string) (string, error)
}

// Loader provides typed access to settings with default values
type Loader struct {
	src SettingsGetter
}

// NewLoader creates a new settings loader. A nil getter yields defaults for every key.
func NewLoader(src SettingsGetter) *Loader {
	return &Loader{src: src}
}

func (l *Loader) lookup(key string) string {
	if l == nil || l.src == nil {
		return ""
	}
	val, _ := l.src.GetSetting(key)
	return strings.TrimSpace(val)
}

// Int retrieves an integer setting, returning defaultVal if not found or invalid
func (l *Loader) Int(key string, defaultVal int) int {
	if val := l.lookup(key); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			return v
		}
	}
	return defaultVal
}

// Bool retrieves a boolean setting, returning defaultVal if not found or invalid.
// Accepts the spellings understood by strconv.ParseBool plus yes/no and on/off.
func (l *Loader) Bool(key string, defaultVal bool) bool {
	val := strings.ToLower(l.lookup(key))
	switch val {
	case "":
		return defaultVal
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	if v, err := strconv.ParseBool(val); err == nil {
		return v
	}
	return defaultVal
}

// String retrieves a string setting, returning defaultVal if not found or empty
func (l *Loader) String(key, defaultVal string) string {
	if val := l.lookup(key); val != "" {
		return val
	}
	return defaultVal
}

// Duration retrieves a duration setting, returning defaultVal if not found or invalid
// Expects the value to be in Go duration format (e.g., "1h30m", "5s")
func (l *Loader) Duration(key string, defaultVal time.Duration) time.Duration {
	if val := l.lookup(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
