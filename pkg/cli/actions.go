package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/bio2bel/bio2bel/pkg/ledger"
)

// ActionsOptions holds flags for the actions command.
type ActionsOptions struct {
	*RootOptions
	Module string
	Kind   string
	Limit  int
}

type actionOutput struct {
	ID      int64     `json:"id"`
	Module  string    `json:"module"`
	Action  string    `json:"action"`
	Created time.Time `json:"created"`
	Session *string   `json:"session"`
}

// NewActionsCommand creates the actions command.
func NewActionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ActionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List recorded populate and drop actions",
		Long: `List recorded populate and drop actions, oldest first.

Examples:
  bio2bel actions
  bio2bel actions --module hgnc --kind drop
  bio2bel actions --limit 10 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActions(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Module, "module", "", "Only show actions for this module")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "Only show actions of this kind (populate|drop)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Only show the most recent N actions")

	return cmd
}

func runActions(cmd *cobra.Command, opts *ActionsOptions) error {
	kind := ledger.Kind(opts.Kind)
	switch kind {
	case "", ledger.KindPopulate, ledger.KindDrop:
	default:
		return fmt.Errorf("invalid kind %q: must be %s or %s", opts.Kind, ledger.KindPopulate, ledger.KindDrop)
	}

	ctx := commandContext(cmd)
	l, closeLedger, err := openLedger(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeLedger()

	actions, err := l.List(ctx, ledger.Filter{Module: opts.Module, Kind: kind, Limit: opts.Limit})
	if err != nil {
		return err
	}

	p := newPrinter(opts.RootOptions, cmd.OutOrStdout())
	if p.json() {
		out := make([]actionOutput, 0, len(actions))
		for _, a := range actions {
			out = append(out, actionOutput{
				ID:      a.ID,
				Module:  a.ModuleName,
				Action:  string(a.Kind),
				Created: a.CreatedAt,
				Session: a.Session,
			})
		}
		return p.encode(out)
	}

	rows := make([][]string, 0, len(actions))
	for _, a := range actions {
		session := "-"
		if a.Session != nil {
			session = *a.Session
		}
		rows = append(rows, []string{
			strconv.FormatInt(a.ID, 10),
			a.ModuleName,
			string(a.Kind),
			a.CreatedAt.UTC().Format(time.RFC3339),
			session,
		})
	}
	return p.table([]string{"ID", "MODULE", "ACTION", "CREATED", "SESSION"}, rows)
}
