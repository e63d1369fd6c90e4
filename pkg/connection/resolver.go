package connection

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bio2bel/bio2bel/pkg/config"
)

const (
	// GlobalEnvVar is the module-agnostic connection override.
	GlobalEnvVar = "BIO2BEL_CONNECTION"
)

// Tier identifies which source produced a resolved connection.
type Tier int

const (
	TierExplicit Tier = iota
	TierModuleEnv
	TierGlobalFileModule
	TierModuleFile
	TierGlobalEnv
	TierGlobalFileDefault
	TierHardcoded
)

var tierNames = map[Tier]string{
	TierExplicit:          "explicit",
	TierModuleEnv:         "module environment",
	TierGlobalFileModule:  "global config (module section)",
	TierModuleFile:        "module config",
	TierGlobalEnv:         "global environment",
	TierGlobalFileDefault: "global config (default section)",
	TierHardcoded:         "hardcoded default",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Resolution is a resolved connection together with where it came from.
type Resolution struct {
	Connection string
	Tier       Tier
	// Source names the environment variable or file that supplied the value, if any.
	Source string
}

// strategy is one precedence tier. It reports ok=false to pass to the next tier.
type strategy struct {
	tier Tier
	try  func(r *Resolver, module string) (value, source string, ok bool, err error)
}

// strategies are consulted in order; the first to yield a value wins.
var strategies = []strategy{
	{TierModuleEnv, (*Resolver).fromModuleEnv},
	{TierGlobalFileModule, (*Resolver).fromGlobalFileModule},
	{TierModuleFile, (*Resolver).fromModuleFile},
	{TierGlobalEnv, (*Resolver).fromGlobalEnv},
	{TierGlobalFileDefault, (*Resolver).fromGlobalFileDefault},
}

// Resolver determines the connection string for a module.
// It holds no state between calls beyond what lives in the configuration files.
type Resolver struct {
	paths     *config.Paths
	lookupEnv func(string) (string, bool)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLookupEnv replaces the environment lookup, os.LookupEnv by default.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(r *Resolver) {
		r.lookupEnv = fn
	}
}

// NewResolver creates a resolver rooted at the given paths.
func NewResolver(paths *config.Paths, opts ...Option) *Resolver {
	r := &Resolver{
		paths:     paths,
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Paths returns the paths the resolver reads from.
func (r *Resolver) Paths() *config.Paths {
	return r.paths
}

// Resolve returns the connection string for moduleName. A non-nil explicit connection is returned
// unchanged. Otherwise sources are consulted in this order:
//
//  1. BIO2BEL_<MODULE>_CONNECTION
//  2. the [<module>] section of the global config file
//  3. the default section of <data_root>/<module>/config.ini
//  4. BIO2BEL_CONNECTION
//  5. the default section of the global config file, created with the hardcoded default if absent
//  6. the hardcoded default
func (r *Resolver) Resolve(moduleName string, explicit *string) (string, error) {
	res, err := r.ResolveDetailed(moduleName, explicit)
	if err != nil {
		return "", err
	}
	return res.Connection, nil
}

// GetConnection is an alias of Resolve.
func (r *Resolver) GetConnection(moduleName string, explicit *string) (string, error) {
	return r.Resolve(moduleName, explicit)
}

// ResolveDetailed is Resolve but also reports the tier that produced the value.
// Only an empty name is rejected when explicit is set; other sources also require a name that
// can form a path (see NormalizeModuleName).
func (r *Resolver) ResolveDetailed(moduleName string, explicit *string) (Resolution, error) {
	if moduleName == "" {
		return Resolution{}, fmt.Errorf("%w: empty", ErrInvalidModuleName)
	}
	if explicit != nil {
		return Resolution{Connection: *explicit, Tier: TierExplicit}, nil
	}

	module, err := NormalizeModuleName(moduleName)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{Connection: r.paths.DefaultConnection(), Tier: TierHardcoded}
	for _, s := range strategies {
		value, source, ok, err := s.try(r, module)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			res = Resolution{Connection: value, Tier: s.tier, Source: source}
			break
		}
	}

	log.Debug().
		Str("module", module).
		Str("tier", res.Tier.String()).
		Str("source", res.Source).
		Str("connection", Redact(res.Connection)).
		Msg("Resolved connection")
	return res, nil
}

// ModuleEnvVar returns the per-module override variable, e.g. BIO2BEL_HGNC_CONNECTION.
func ModuleEnvVar(moduleName string) string {
	return "BIO2BEL_" + strings.ToUpper(moduleName) + "_CONNECTION"
}

func (r *Resolver) fromModuleEnv(module string) (string, string, bool, error) {
	name := ModuleEnvVar(module)
	if v, ok := r.lookupEnv(name); ok {
		return v, name, true, nil
	}
	return "", "", false, nil
}

func (r *Resolver) fromGlobalFileModule(module string) (string, string, bool, error) {
	path := r.paths.ConfigPath
	f, exists, err := loadFile(path)
	if err != nil || !exists {
		return "", "", false, err
	}
	v, ok := sectionValue(f, module, ConnectionKey)
	return v, path, ok, nil
}

func (r *Resolver) fromModuleFile(module string) (string, string, bool, error) {
	path := r.paths.ModuleConfigPath(module)
	f, exists, err := loadFile(path)
	if err != nil || !exists {
		return "", "", false, err
	}
	v, ok := sectionValue(f, defaultSection, ConnectionKey)
	return v, path, ok, nil
}

func (r *Resolver) fromGlobalEnv(string) (string, string, bool, error) {
	if v, ok := r.lookupEnv(GlobalEnvVar); ok {
		return v, GlobalEnvVar, true, nil
	}
	return "", "", false, nil
}

func (r *Resolver) fromGlobalFileDefault(string) (string, string, bool, error) {
	path := r.paths.ConfigPath
	if _, err := r.InitGlobalConfig(); err != nil {
		return "", "", false, err
	}
	f, exists, err := loadFile(path)
	if err != nil || !exists {
		return "", "", false, err
	}
	v, ok := sectionValue(f, defaultSection, ConnectionKey)
	return v, path, ok, nil
}

// InitGlobalConfig creates the global config file seeded with the hardcoded default connection
// unless it already exists. It reports whether this call created the file.
func (r *Resolver) InitGlobalConfig() (bool, error) {
	path := r.paths.ConfigPath
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	content, err := seedContent(r.paths.DefaultConnection())
	if err != nil {
		return false, writeError(path, err)
	}
	created, err := createIfAbsent(path, content)
	if err != nil {
		return false, err
	}
	if created {
		log.Info().Str("path", path).Msg("Created global configuration file")
	}
	return created, nil
}

// DataDir ensures the module's data directory exists and returns it.
func (r *Resolver) DataDir(moduleName string) (string, error) {
	module, err := NormalizeModuleName(moduleName)
	if err != nil {
		return "", err
	}
	dir := r.paths.ModuleDir(module)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return dir, nil
}

// NormalizeModuleName lowercases a module name after checking it can name a directory.
func NormalizeModuleName(moduleName string) (string, error) {
	name := strings.TrimSpace(moduleName)
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidModuleName)
	}
	if name != moduleName || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidModuleName, moduleName)
	}
	return strings.ToLower(name), nil
}

// Redact hides any password in a URL-shaped connection string.
func Redact(connection string) string {
	u, err := url.Parse(connection)
	if err != nil || u.User == nil {
		return connection
	}
	return u.Redacted()
}
