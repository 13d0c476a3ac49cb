package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gitlab.com/katello-tools/errata-tracker/errata"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Commands to work with the database",
}

var dbCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Commands to cleanup the database",
}

var dbCleanRepoCmd = &cobra.Command{
	Use:   "repo <repository-id>",
	Short: "Remove a repository and the errata only it carries",
	Args:  cobra.ExactArgs(1),
	RunE:  runDBCleanRepo,
}

var gcFlags = struct {
	dryRun bool
}{}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE:  runDBMigrate,
}

func runDBCleanRepo(cmd *cobra.Command, args []string) error {
	repositoryID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid repository id %q: %w", args[0], err)
	}

	res, err := errata.CleanupRepository(App().DB, uint(repositoryID), gcFlags.dryRun)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d repository errata\n", res.Memberships)
	fmt.Printf("Found %d bound content facets\n", res.Bindings)
	fmt.Printf("Found %d errata only carried by this repository\n", len(res.Errata))
	if !gcFlags.dryRun {
		fmt.Printf("Deleted records for repository %d\n", repositoryID)
	}
	return nil
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	return errata.Migrate(App().DB)
}

func init() {
	dbCmd.PersistentFlags().BoolVarP(&gcFlags.dryRun, "dry-run", "n", false, "Only show the amount of records found")

	dbCleanCmd.AddCommand(dbCleanRepoCmd)
	dbCmd.AddCommand(dbCleanCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	rootCmd.AddCommand(dbCmd)
}
