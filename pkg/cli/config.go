package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize the global config file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the global config file if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := rootOpts.resolver.InitGlobalConfig()
			if err != nil {
				return err
			}
			p := newPrinter(rootOpts, cmd.OutOrStdout())
			if p.json() {
				return p.encode(map[string]any{"path": rootOpts.paths.ConfigPath, "created": created})
			}
			if created {
				fmt.Fprintf(p.w, "Created %s\n", rootOpts.paths.ConfigPath)
			} else {
				fmt.Fprintf(p.w, "%s already exists\n", rootOpts.paths.ConfigPath)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the data root, config file and log file locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := rootOpts.paths
			p := newPrinter(rootOpts, cmd.OutOrStdout())
			if p.json() {
				return p.encode(map[string]string{
					"data_dir":           paths.DataDir,
					"config":             paths.ConfigPath,
					"log":                paths.LogFilePath(),
					"default_connection": paths.DefaultConnection(),
				})
			}
			return p.table([]string{"NAME", "PATH"}, [][]string{
				{"data_dir", paths.DataDir},
				{"config", paths.ConfigPath},
				{"log", paths.LogFilePath()},
				{"default_connection", paths.DefaultConnection()},
			})
		},
	})

	return cmd
}
