package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/icdump-build/internal/usecases"
)

func newVersionCmd(deps *Dependencies) *cobra.Command {
	var sourceDir, packageDir, vcs string

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version the next build would be labelled with",
		Long: `version resolves the package version without building anything and prints
it on stdout.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, deps)
			if err != nil {
				return err
			}

			version, err := s.resolveVersion(sourceDir, packageDir, vcs)
			if err != nil {
				return err
			}

			if err := deps.OutputWriterFactory().WriteLine(version.Version); err != nil {
				s.log.Error(s.ctx, "failed to write output", err, nil)
				return fmt.Errorf("output error: %w", err)
			}

			s.log.Info(s.ctx, "version resolved", map[string]interface{}{
				"version": version.Version,
				"source":  string(version.Source),
			})
			return nil
		},
	}

	versionCmd.Flags().StringVar(&sourceDir, "source-dir", usecases.DefaultSourceDir, "Repository to derive the version from")
	versionCmd.Flags().StringVar(&packageDir, "package-dir", "", "Directory holding installed package metadata (default --source-dir)")
	versionCmd.Flags().StringVar(&vcs, "vcs", "", "Repository backend: go-git or git (default $ICDUMP_VCS or go-git)")

	return versionCmd
}
