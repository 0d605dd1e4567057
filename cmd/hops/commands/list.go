package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			receipts, err := c.app.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, receipt := range receipts {
				cmd.Printf("%s %s\n", receipt.Name, receipt.Version)
			}
			return nil
		},
	}
}
