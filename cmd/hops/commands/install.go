package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install [packages...]",
		Short: "Install packages and their dependencies",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}

			flags := domain.InstallFlags{}
			flags.BuildFromSource, _ = cmd.Flags().GetBool("build-from-source")
			flags.DryRun, _ = cmd.Flags().GetBool("dry-run")
			flags.Force, _ = cmd.Flags().GetBool("force")
			flags.IncludeOptional, _ = cmd.Flags().GetBool("include-optional")
			flags.SkipRecommended, _ = cmd.Flags().GetBool("skip-recommended")

			report, err := c.app.Install(cmd.Context(), args, flags)
			if report != nil {
				printReport(cmd, report, flags.DryRun)
			}
			if err != nil {
				return err
			}
			if !report.AllSucceeded() {
				return zerr.With(domain.ErrInstallFailed, "failed", len(report.Failed()))
			}
			return nil
		},
	}
	cmd.Flags().BoolP("build-from-source", "s", false, "Compile from source even when a bottle exists")
	cmd.Flags().Bool("dry-run", false, "Resolve and print the plan without installing")
	cmd.Flags().BoolP("force", "f", false, "Reinstall even when already installed")
	cmd.Flags().Bool("include-optional", false, "Also install optional dependencies")
	cmd.Flags().Bool("skip-recommended", false, "Skip recommended dependencies")
	return cmd
}

func printReport(cmd *cobra.Command, report *domain.Report, dryRun bool) {
	for _, entry := range report.Entries {
		line := fmt.Sprintf("%-12s %s %s (%s)", entry.Status, entry.Name, entry.Version, entry.Action)
		if dryRun {
			line = fmt.Sprintf("would install %s %s (%s)", entry.Name, entry.Version, entry.Action)
		}
		cmd.Println(line)
		if entry.Err != nil {
			cmd.PrintErrf("  %v\n", entry.Err)
		}
	}
}
