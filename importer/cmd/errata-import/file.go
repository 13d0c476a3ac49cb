package main

import (
	"github.com/spf13/cobra"
	"gitlab.com/katello-tools/errata-tracker/importer"
)

var fileCmd = &cobra.Command{
	Use:   "import-file <path>",
	Short: "Import advisories from a json file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportFile,
}

var fileFlags = struct {
	repository string
}{}

func runImportFile(cmd *cobra.Command, args []string) error {
	return importer.ImportFile(cmd.Context(), App().Store, App().Config, args[0], fileFlags.repository)
}

func init() {
	fileCmd.Flags().StringVarP(&fileFlags.repository, "repo", "r", "", "Repository carrying the advisories")
	fileCmd.MarkFlagRequired("repo")
	rootCmd.AddCommand(fileCmd)
}
