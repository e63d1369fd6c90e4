package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bio2bel/bio2bel/internal/configwatch"
)

// ConnectionOptions holds flags for the connection command.
type ConnectionOptions struct {
	*RootOptions
	Connection string
	Watch      bool
}

type connectionResult struct {
	Module     string `json:"module"`
	Connection string `json:"connection"`
	Tier       string `json:"tier"`
	Source     string `json:"source,omitempty"`
}

// NewConnectionCommand creates the connection command.
func NewConnectionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConnectionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "connection <module>",
		Short: "Show the connection string a module resolves to",
		Long: `Show the connection string a module resolves to and which source supplied it.

Sources are checked in order: --connection, BIO2BEL_<MODULE>_CONNECTION,
the [<module>] section of the global config, <data-dir>/<module>/config.ini,
BIO2BEL_CONNECTION, the global config default section, the built-in default.

Examples:
  bio2bel connection hgnc
  bio2bel connection hgnc --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnection(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Connection, "connection", "", "Explicit connection string")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Re-resolve whenever the global config file changes")

	return cmd
}

func runConnection(cmd *cobra.Command, opts *ConnectionOptions, module string) error {
	var explicit *string
	if cmd.Flags().Changed("connection") {
		explicit = &opts.Connection
	}

	p := newPrinter(opts.RootOptions, cmd.OutOrStdout())
	show := func() error {
		res, err := opts.resolver.ResolveDetailed(module, explicit)
		if err != nil {
			return err
		}
		out := connectionResult{
			Module:     module,
			Connection: res.Connection,
			Tier:       res.Tier.String(),
			Source:     res.Source,
		}
		if p.json() {
			return p.encode(out)
		}
		return p.table([]string{"MODULE", "TIER", "CONNECTION"}, [][]string{{out.Module, out.Tier, out.Connection}})
	}

	if err := show(); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}

	watcher, err := configwatch.New(opts.paths.ConfigPath, 0, func(path string) {
		if err := show(); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to resolve connection after config change")
		}
	})
	if err != nil {
		return err
	}
	if _, err := opts.resolver.InitGlobalConfig(); err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Str("module", module).Msg("Stopped watching config")
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
