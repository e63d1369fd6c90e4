package cli

import (
	"github.com/spf13/cobra"

	"github.com/bio2bel/bio2bel/pkg/connection"
	"github.com/bio2bel/bio2bel/pkg/manager"
)

type moduleInfo struct {
	Name       string `json:"name"`
	Connection string `json:"connection"`
	Tier       string `json:"tier"`
}

// NewModulesCommand creates the modules command.
func NewModulesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List registered modules and their resolved connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var infos []moduleInfo
			for _, name := range manager.Modules() {
				res, err := rootOpts.resolver.ResolveDetailed(name, nil)
				if err != nil {
					return err
				}
				infos = append(infos, moduleInfo{
					Name:       name,
					Connection: connection.Redact(res.Connection),
					Tier:       res.Tier.String(),
				})
			}

			p := newPrinter(rootOpts, cmd.OutOrStdout())
			if p.json() {
				if infos == nil {
					infos = []moduleInfo{}
				}
				return p.encode(infos)
			}
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{info.Name, info.Tier, info.Connection})
			}
			return p.table([]string{"MODULE", "TIER", "CONNECTION"}, rows)
		},
	}
}
