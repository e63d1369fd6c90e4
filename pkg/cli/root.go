package cli

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bio2bel/bio2bel/internal/logging"
	"github.com/bio2bel/bio2bel/pkg/config"
	"github.com/bio2bel/bio2bel/pkg/connection"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// RootOptions holds global flags and the state built from them before any subcommand runs.
type RootOptions struct {
	DataDir    string
	ConfigPath string
	Verbosity  int
	Format     string // "text" | "json"

	paths    *config.Paths
	settings *config.Loader
	resolver *connection.Resolver
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the bio2bel command tree.
func NewRootCommand(build BuildInfo) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "bio2bel",
		Short: "Bio2BEL - database connection and lifecycle manager for biological data modules",
		Long: `Bio2BEL resolves where each data module stores its data and keeps an
append-only ledger of every populate and drop performed on a module.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "Data root directory (or set BIO2BEL_DIRECTORY env var)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Global config file (or set BIO2BEL_CONFIG_PATH env var)")
	cmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "Output format (text|json)")

	cmd.AddCommand(NewConnectionCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewModulesCommand(opts))
	cmd.AddCommand(NewPopulateCommand(opts))
	cmd.AddCommand(NewDropCommand(opts))
	cmd.AddCommand(NewSummarizeCommand(opts))
	cmd.AddCommand(NewActionsCommand(opts))
	cmd.AddCommand(NewVersionCommand(build))

	return cmd
}

// setup resolves paths (flag, else env var, else default), configures logging and timeouts,
// and builds the connection resolver.
func (o *RootOptions) setup() error {
	if !slices.Contains(ValidFormats, o.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats)
	}

	paths, err := config.LoadPaths()
	if err != nil {
		return err
	}
	if o.DataDir != "" {
		paths.DataDir = o.DataDir
	}
	if o.ConfigPath != "" {
		paths.ConfigPath = o.ConfigPath
	}

	settings := config.NewLoader(connection.NewSettings(paths.ConfigPath))

	level := paths.LogLevel
	if level == "" {
		level = settings.String("log.level", "")
	}
	if o.Verbosity > 0 || level == "" {
		level = logging.LevelFromVerbosity(o.Verbosity)
	}

	logFile := ""
	if settings.Bool("log.file", false) {
		logFile = paths.LogFilePath()
	}
	logging.Apply(level, settings, logFile)

	config.SetGlobalTimeouts(config.LoadTimeouts(settings))

	o.paths = paths
	o.settings = settings
	o.resolver = connection.NewResolver(paths)

	log.Trace().
		Str("data_dir", paths.DataDir).
		Str("config", paths.ConfigPath).
		Str("level", level).
		Msg("Configured bio2bel")
	return nil
}
