package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/moznion/go-optional"
	"github.com/spf13/cobra"
	"gitlab.com/katello-tools/errata-tracker/errata"
)

var errataCmd = &cobra.Command{
	Use:   "errata",
	Short: "Look up errata",
}

var errataShowCmd = &cobra.Command{
	Use:   "show <id|uuid|errata-id>...",
	Short: "Show errata by internal id, uuid or errata id",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runErrataShow,
}

var errataModulesCmd = &cobra.Command{
	Use:   "modules <id|uuid|errata-id>",
	Short: "Show the module streams of an erratum and their packages",
	Args:  cobra.ExactArgs(1),
	RunE:  runErrataModules,
}

var errataHostsCmd = &cobra.Command{
	Use:   "hosts <id|uuid|errata-id>",
	Short: "List hosts an erratum is applicable to",
	Args:  cobra.ExactArgs(1),
	RunE:  runErrataHosts,
}

var errataFlags = struct {
	available      bool
	organizationID uint
}{}

func runErrataShow(cmd *cobra.Command, args []string) error {
	result, err := App().Store.WithIdentifiers(cmd.Context(), args...)
	if err != nil {
		return err
	}
	errata.SortErrata(result)
	printErrata(result)
	return nil
}

func runErrataModules(cmd *cobra.Command, args []string) error {
	erratum, err := lookupOne(cmd, args[0])
	if err != nil {
		return err
	}
	streams, err := App().Store.ModuleStreams(cmd.Context(), erratum.ID)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(streams)
}

func runErrataHosts(cmd *cobra.Command, args []string) error {
	erratum, err := lookupOne(cmd, args[0])
	if err != nil {
		return err
	}

	organizationID := optional.None[uint]()
	if errataFlags.organizationID != 0 {
		organizationID = optional.Some(errataFlags.organizationID)
	}

	var hosts []errata.Host
	if errataFlags.available {
		hosts, err = App().Store.HostsAvailable(cmd.Context(), erratum.ID, organizationID)
	} else {
		hosts, err = App().Store.HostsApplicable(cmd.Context(), erratum.ID, organizationID)
	}
	if err != nil {
		return err
	}
	for _, host := range hosts {
		fmt.Printf("%d\t%s\n", host.ID, host.Name)
	}
	return nil
}

func lookupOne(cmd *cobra.Command, token string) (errata.Erratum, error) {
	result, err := App().Store.WithIdentifiers(cmd.Context(), token)
	if err != nil {
		return errata.Erratum{}, err
	}
	if len(result) == 0 {
		return errata.Erratum{}, fmt.Errorf("erratum %s not found", token)
	}
	return result[0], nil
}

func init() {
	errataHostsCmd.Flags().BoolVar(&errataFlags.available, "available", false, "Only list hosts with a bound repository carrying the erratum")
	errataHostsCmd.Flags().UintVar(&errataFlags.organizationID, "org", 0, "Only list hosts of this organization")

	errataCmd.AddCommand(errataShowCmd)
	errataCmd.AddCommand(errataModulesCmd)
	errataCmd.AddCommand(errataHostsCmd)
	rootCmd.AddCommand(errataCmd)
}
