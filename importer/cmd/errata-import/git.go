package main

import (
	"github.com/spf13/cobra"
	"gitlab.com/katello-tools/errata-tracker/importer"
)

var gitCmd = &cobra.Command{
	Use:   "import-git [repository]",
	Short: "Import advisories published in a git repository",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runImportGit,
}

func runImportGit(cmd *cobra.Command, args []string) error {
	config := App().Config
	repository := importer.OptionalFirst(args).TakeOr(config.Importers.Git.Repository)

	return importer.GitFeed(cmd.Context(), App().Store, config, repository)
}

func init() {
	rootCmd.AddCommand(gitCmd)
}
