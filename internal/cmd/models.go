package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	var settingsPath string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the registered forward model adapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(settingsPath, "", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			reg, err := newRegistry(settings)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range reg.Names() {
				ms, _ := reg.Settings(name)
				if _, err := fmt.Fprintf(out, "%-20s %s\n", name, ms.AdapterKind()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&settingsPath, "settings", "s", "", "YAML settings file")
	return cmd
}
