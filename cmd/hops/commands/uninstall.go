package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newUninstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall <package>",
		Short: "Remove an installed package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			if err := c.app.Uninstall(cmd.Context(), args[0], force); err != nil {
				return err
			}
			cmd.Printf("uninstalled %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Remove even when other packages still depend on it")
	return cmd
}
