package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bio2bel/bio2bel/pkg/config"
	"github.com/bio2bel/bio2bel/pkg/database"
	"github.com/bio2bel/bio2bel/pkg/ledger"
	"github.com/bio2bel/bio2bel/pkg/manager"
)

// ledgerModule is the reserved name whose resolved connection hosts the action ledger.
const ledgerModule = config.GlobalModuleName

// openLedger opens and migrates the database resolved for the reserved ledger module.
func openLedger(ctx context.Context, opts *RootOptions) (*ledger.Ledger, func(), error) {
	conn, err := opts.resolver.Resolve(ledgerModule, nil)
	if err != nil {
		return nil, nil, err
	}

	openCtx, cancel := context.WithTimeout(ctx, config.GetTimeouts().Connect)
	defer cancel()

	db, err := database.Open(openCtx, conn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate ledger database: %w", err)
	}
	return ledger.New(db), func() { db.Close() }, nil
}

// openManager looks up a registered module and builds its manager together with the ledger.
func openManager(ctx context.Context, opts *RootOptions, name string, explicit *string) (*manager.Manager, func(), error) {
	module, err := manager.Lookup(strings.ToLower(name))
	if err != nil {
		return nil, nil, err
	}

	l, closeLedger, err := openLedger(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	var mopts []manager.Option
	if explicit != nil {
		mopts = append(mopts, manager.WithConnection(*explicit))
	}

	openCtx, cancel := context.WithTimeout(ctx, config.GetTimeouts().Connect)
	defer cancel()

	m, err := manager.New(openCtx, module, opts.resolver, l, mopts...)
	if err != nil {
		closeLedger()
		return nil, nil, err
	}

	return m, func() {
		m.Close()
		closeLedger()
	}, nil
}

// PopulateOptions holds flags for the populate command.
type PopulateOptions struct {
	*RootOptions
	Connection string
	Session    string
}

// NewPopulateCommand creates the populate command.
func NewPopulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PopulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "populate <module>",
		Short: "Record a populate action and load the module's data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			var explicit *string
			if cmd.Flags().Changed("connection") {
				explicit = &opts.Connection
			}
			m, closeAll, err := openManager(ctx, opts.RootOptions, args[0], explicit)
			if err != nil {
				return err
			}
			defer closeAll()

			session := opts.Session
			if session == "" {
				session = uuid.NewString()
			}
			log.Info().Str("module", m.Name()).Str("session", session).Str("manager", m.String()).Msg("Populating")

			if err := m.Populate(ctx, &session); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Populated %s (session %s)\n", m.Name(), session)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Connection, "connection", "", "Explicit connection string")
	cmd.Flags().StringVar(&opts.Session, "session", "", "Session identity stored with the action (default: random UUID)")

	return cmd
}

// DropOptions holds flags for the drop command.
type DropOptions struct {
	*RootOptions
	Connection string
	Yes        bool
	Vacuum     bool
}

// NewDropCommand creates the drop command.
func NewDropCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DropOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "drop <module>",
		Short: "Record a drop action and drop all of the module's tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			var explicit *string
			if cmd.Flags().Changed("connection") {
				explicit = &opts.Connection
			}
			m, closeAll, err := openManager(ctx, opts.RootOptions, args[0], explicit)
			if err != nil {
				return err
			}
			defer closeAll()

			if !opts.Yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Drop all tables of %s? [y/N] ", m)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}

			if err := m.DropAll(ctx, true); err != nil {
				return err
			}
			if opts.Vacuum {
				if err := m.DB().Vacuum(ctx); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dropped %s\n", m.Name())
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Connection, "connection", "", "Explicit connection string")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().BoolVar(&opts.Vacuum, "vacuum", false, "Reclaim database space after dropping")

	return cmd
}

// NewSummarizeCommand creates the summarize command.
func NewSummarizeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <module>",
		Short: "Count the rows in each of the module's tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			m, closeAll, err := openManager(ctx, rootOpts, args[0], nil)
			if err != nil {
				return err
			}
			defer closeAll()

			counts, err := m.Summarize(ctx)
			if err != nil {
				return err
			}

			p := newPrinter(rootOpts, cmd.OutOrStdout())
			if p.json() {
				out := make(map[string]int64, len(counts))
				for _, c := range counts {
					out[c.Table] = c.Rows
				}
				return p.encode(out)
			}
			rows := make([][]string, 0, len(counts))
			for _, c := range counts {
				rows = append(rows, []string{c.Table, strconv.FormatInt(c.Rows, 10)})
			}
			return p.table([]string{"TABLE", "ROWS"}, rows)
		},
	}
}
