package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

func (c *CLI) newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <package>",
		Short: "Show catalog and install details for a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := c.app.Info(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			spec := info.Spec
			cmd.Printf("%s %s\n", spec.Name, spec.Version)
			if len(spec.Dependencies) > 0 {
				var deps []string
				for _, dep := range spec.Dependencies {
					deps = append(deps, dep.Name.String()+" ("+string(dep.Kind)+")")
				}
				cmd.Printf("dependencies: %s\n", strings.Join(deps, ", "))
			}
			switch {
			case spec.Bottle != nil && spec.Source != nil:
				cmd.Println("artifacts: bottle, source")
			case spec.Bottle != nil:
				cmd.Println("artifacts: bottle")
			case spec.Source != nil:
				cmd.Println("artifacts: source")
			}

			if info.Receipt == nil {
				cmd.Println("not installed")
				return nil
			}
			cmd.Printf("installed: %s (%d files, %s)\n",
				info.Receipt.Version,
				len(info.Receipt.Files),
				info.Receipt.InstalledAt.Format("2006-01-02 15:04"),
			)
			return nil
		},
	}
}
