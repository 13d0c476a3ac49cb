package main

import (
	"github.com/spf13/cobra"
	"gitlab.com/katello-tools/errata-tracker/importer"
)

var pulpCmd = &cobra.Command{
	Use:   "import-pulp",
	Short: "Import errata of pulp repositories",
	RunE:  runImportPulp,
}

var pulpFlags = struct {
	repositories []string
}{}

func runImportPulp(cmd *cobra.Command, args []string) error {
	config := App().Config
	repositories := importer.OptionalNonEmpty(pulpFlags.repositories).TakeOr(config.Pulp.Repositories)

	return importer.PulpFeed(
		cmd.Context(),
		App().Store,
		importer.NewPulpClient(config.Pulp, nil),
		config,
		repositories,
	)
}

func init() {
	pulpCmd.Flags().StringSliceVarP(&pulpFlags.repositories, "repo", "r", nil, "Pulp repository to import, defaults to the configured repositories")
	rootCmd.AddCommand(pulpCmd)
}
