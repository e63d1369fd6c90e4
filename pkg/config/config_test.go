package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type mapGetter map[string]string

func (m mapGetter) GetSetting(key string) (string, error) {
	return m[key], nil
}

type failingGetter struct{}

func (failingGetter) GetSetting(string) (string, error) {
	return "", errors.New("unreadable")
}

func TestLoader(t *testing.T) {
	l := NewLoader(mapGetter{
		"log.max_backups": " 7 ",
		"log.bad_int":     "seven",
		"log.compress":    "no",
		"log.on":          "On",
		"log.odd":         "maybe",
		"log.level":       "debug",
		"bio2bel.timeout": "1m30s",
		"bio2bel.bad":     "soon",
	})

	if got := l.Int("log.max_backups", 3); got != 7 {
		t.Errorf("Int() = %d, want 7", got)
	}
	if got := l.Int("log.bad_int", 3); got != 3 {
		t.Errorf("Int() invalid = %d, want default 3", got)
	}
	if got := l.Bool("log.compress", true); got {
		t.Error("Bool(no) = true, want false")
	}
	if got := l.Bool("log.on", false); !got {
		t.Error("Bool(On) = false, want true")
	}
	if got := l.Bool("log.odd", true); !got {
		t.Error("Bool(maybe) should fall back to default")
	}
	if got := l.String("log.level", "info"); got != "debug" {
		t.Errorf("String() = %q, want debug", got)
	}
	if got := l.String("log.missing", "info"); got != "info" {
		t.Errorf("String() missing = %q, want info", got)
	}
	if got := l.Duration("bio2bel.timeout", time.Second); got != 90*time.Second {
		t.Errorf("Duration() = %v, want 1m30s", got)
	}
	if got := l.Duration("bio2bel.bad", time.Second); got != time.Second {
		t.Errorf("Duration() invalid = %v, want default", got)
	}
}

func TestLoader_NilAndFailingSources(t *testing.T) {
	for name, l := range map[string]*Loader{
		"nil loader": nil,
		"nil getter": NewLoader(nil),
		"failing":    NewLoader(failingGetter{}),
	} {
		t.Run(name, func(t *testing.T) {
			if got := l.Int("a.b", 4); got != 4 {
				t.Errorf("Int() = %d, want 4", got)
			}
			if got := l.String("a.b", "x"); got != "x" {
				t.Errorf("String() = %q, want x", got)
			}
		})
	}
}

func TestLoadTimeouts(t *testing.T) {
	cfg := LoadTimeouts(NewLoader(mapGetter{"bio2bel.statement_timeout": "5s"}))
	if cfg.Statement != 5*time.Second {
		t.Errorf("Statement = %v, want 5s", cfg.Statement)
	}
	if cfg.Connect != DefaultTimeoutConfig().Connect {
		t.Errorf("Connect = %v, want default", cfg.Connect)
	}

	prev := GetTimeouts()
	t.Cleanup(func() { SetGlobalTimeouts(prev) })
	SetGlobalTimeouts(cfg)
	if GetTimeouts() != cfg {
		t.Error("GetTimeouts() did not return the configured timeouts")
	}
}

func TestLoadPaths_FromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BIO2BEL_DIRECTORY", filepath.Join(dir, "data"))
	t.Setenv("BIO2BEL_CONFIG_PATH", filepath.Join(dir, "bio2bel.ini"))
	t.Setenv("BIO2BEL_LOG_LEVEL", "trace")

	p, err := LoadPaths()
	if err != nil {
		t.Fatalf("LoadPaths() error = %v", err)
	}
	if p.DataDir != filepath.Join(dir, "data") {
		t.Errorf("DataDir = %q", p.DataDir)
	}
	if p.ConfigPath != filepath.Join(dir, "bio2bel.ini") {
		t.Errorf("ConfigPath = %q", p.ConfigPath)
	}
	if p.LogLevel != "trace" {
		t.Errorf("LogLevel = %q, want trace", p.LogLevel)
	}
}

func TestLoadPaths_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("BIO2BEL_DIRECTORY", "")
	t.Setenv("BIO2BEL_CONFIG_PATH", "")
	os.Unsetenv("BIO2BEL_DIRECTORY")
	os.Unsetenv("BIO2BEL_CONFIG_PATH")

	p, err := LoadPaths()
	if err != nil {
		t.Fatalf("LoadPaths() error = %v", err)
	}
	if want := filepath.Join(home, ".bio2bel"); p.DataDir != want {
		t.Errorf("DataDir = %q, want %q", p.DataDir, want)
	}
	if want := filepath.Join(home, ".config", "bio2bel", "config.ini"); p.ConfigPath != want {
		t.Errorf("ConfigPath = %q, want %q", p.ConfigPath, want)
	}
}

func TestLoadPaths_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("BIO2BEL_DIRECTORY", "~/bio")
	t.Setenv("BIO2BEL_CONFIG_PATH", "~/bio/config.ini")

	p, err := LoadPaths()
	if err != nil {
		t.Fatalf("LoadPaths() error = %v", err)
	}
	if want := filepath.Join(home, "bio"); p.DataDir != want {
		t.Errorf("DataDir = %q, want %q", p.DataDir, want)
	}
}

func TestPaths_Derived(t *testing.T) {
	p := &Paths{DataDir: "/srv/bio2bel"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"default connection", p.DefaultConnection(), "sqlite:////srv/bio2bel/bio2bel.db"},
		{"module dir", p.ModuleDir("HGNC"), filepath.Join("/srv/bio2bel", "hgnc")},
		{"module config", p.ModuleConfigPath("hgnc"), filepath.Join("/srv/bio2bel", "hgnc", "config.ini")},
		{"log file", p.LogFilePath(), filepath.Join("/srv/bio2bel", "bio2bel.log")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
