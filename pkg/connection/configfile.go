package connection

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	// ConnectionKey is the key holding a connection string in any section.
	ConnectionKey = "connection"

	// defaultSection matches ini.DefaultSection, which the library declares as a variable.
	defaultSection = "DEFAULT"
)

// loadOptions keep values verbatim (" #" and " ;" are part of a value, not a comment) and
// track repeated keys so they can be rejected.
var loadOptions = ini.LoadOptions{
	InsensitiveKeys:            true,
	IgnoreInlineComment:        true,
	AllowShadows:               true,
	AllowDuplicateShadowValues: true,
}

// loadFile parses the INI file at path. A path that cannot be stat'ed is reported as missing
// with exists=false and no error.
func loadFile(path string) (f *ini.File, exists bool, err error) {
	if _, err := os.Stat(path); err != nil {
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, parseError(path, err)
	}

	f, err = ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, true, parseError(path, err)
	}
	if err := checkDuplicateKeys(f); err != nil {
		return nil, true, parseError(path, err)
	}
	return f, true, nil
}

// checkDuplicateKeys rejects a key set more than once within one section.
func checkDuplicateKeys(f *ini.File) error {
	for _, sec := range f.Sections() {
		for _, key := range sec.Keys() {
			if len(key.ValueWithShadows()) > 1 {
				return fmt.Errorf("duplicate key %q in section [%s]", key.Name(), sec.Name())
			}
		}
	}
	return nil
}

// sectionValue returns key from the section's own keys. Values from the default section
// are not inherited so that each precedence tier only sees what it owns.
func sectionValue(f *ini.File, section, key string) (string, bool) {
	if f == nil {
		return "", false
	}
	sec, err := f.GetSection(section)
	if err != nil {
		return "", false
	}
	if !slices.Contains(sec.KeyStrings(), key) {
		return "", false
	}
	return sec.Key(key).String(), true
}

// seedContent renders a config file holding only the default connection under an explicit
// [DEFAULT] header, since other INI readers sharing the file reject keys before any header.
func seedContent(defaultConnection string) ([]byte, error) {
	f := ini.Empty(ini.LoadOptions{IgnoreInlineComment: true})
	if _, err := f.Section(defaultSection).NewKey(ConnectionKey, defaultConnection); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if !ini.DefaultHeader {
		buf.WriteString("[" + defaultSection + "]\n")
	}
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// createIfAbsent atomically creates path with content unless it already exists.
// The content is staged in a temporary file in the same directory and hard-linked into place,
// so concurrent creators never observe a partially written file and exactly one of them wins.
func createIfAbsent(path string, content []byte) (created bool, err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, writeError(path, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return false, writeError(path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return false, writeError(path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return false, writeError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return false, writeError(path, err)
	}

	err = os.Link(tmpName, path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrExist):
		return false, nil
	}

	// Filesystems without hard links: fall back to exclusive creation.
	return createExclusive(path, content)
}

func createExclusive(path string, content []byte) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, writeError(path, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return false, writeError(path, err)
	}
	if err := f.Close(); err != nil {
		return false, writeError(path, err)
	}
	return true, nil
}

// Settings exposes the global configuration file as a config.SettingsGetter.
// Keys have the form "section.key"; a missing file or key yields an empty value.
type Settings struct {
	path string
}

// NewSettings returns a settings view over the INI file at path.
func NewSettings(path string) *Settings {
	return &Settings{path: path}
}

// GetSetting implements config.SettingsGetter.
func (s *Settings) GetSetting(key string) (string, error) {
	section, name, ok := strings.Cut(key, ".")
	if !ok {
		section, name = defaultSection, key
	}
	f, exists, err := loadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	if !exists {
		return "", nil
	}
	val, _ := sectionValue(f, section, strings.ToLower(name))
	return val, nil
}
