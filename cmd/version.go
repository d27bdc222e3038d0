package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/linkboard/internal/buildinfo"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version, commit and branch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			info, _, err := buildinfo.Load(e.cfg.Build.VersionFile, e.cfg.Build.InfoFile)
			if err != nil {
				return fmt.Errorf("load build info: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (commit %s, branch %s)\n", info.Version, info.CommitHash, info.Branch)
			return err //nolint:wrapcheck // terminal write
		},
	}
}
