package main

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/katello-tools/errata-tracker/errata"
)

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "Query errata of hosts",
}

var hostsApplicableCmd = &cobra.Command{
	Use:   "applicable [host-id...]",
	Short: "List errata applicable to the hosts",
	RunE:  runHostsApplicable,
}

var hostsInstallableCmd = &cobra.Command{
	Use:   "installable [host-id...]",
	Short: "List applicable errata installable from repositories bound to the hosts",
	RunE:  runHostsInstallable,
}

var hostsDashboardCmd = &cobra.Command{
	Use:   "dashboard [host-id...]",
	Short: "List the most recently updated applicable errata",
	RunE:  runHostsDashboard,
}

var hostsFlags = struct {
	organizationID uint
	bucket         string
}{}

func runHostsApplicable(cmd *cobra.Command, args []string) error {
	hostIDs, scopes, err := hostQuery(cmd, args)
	if err != nil {
		return err
	}
	result, err := App().Store.ApplicableToHosts(cmd.Context(), hostIDs, scopes...)
	if err != nil {
		return err
	}
	printErrata(result)
	return nil
}

func runHostsInstallable(cmd *cobra.Command, args []string) error {
	hostIDs, scopes, err := hostQuery(cmd, args)
	if err != nil {
		return err
	}
	result, err := App().Store.InstallableForHosts(cmd.Context(), hostIDs, scopes...)
	if err != nil {
		return err
	}
	printErrata(result)
	return nil
}

func runHostsDashboard(cmd *cobra.Command, args []string) error {
	hostIDs, scopes, err := hostQuery(cmd, args)
	if err != nil {
		return err
	}
	result, err := App().Store.ApplicableToHostsDashboard(cmd.Context(), hostIDs, App().Config.Dashboard.Limit, scopes...)
	if err != nil {
		return err
	}
	printErrata(result)
	return nil
}

// hostQuery resolves the host ids given as arguments, or all hosts of the
// organization passed with --org. With both, only the given hosts of that
// organization are used.
func hostQuery(cmd *cobra.Command, args []string) ([]uint, []errata.Scope, error) {
	scopes, err := bucketScopes(hostsFlags.bucket)
	if err != nil {
		return nil, nil, err
	}

	if len(args) == 0 && hostsFlags.organizationID == 0 {
		return nil, nil, fmt.Errorf("either host ids or --org are required")
	}

	var hostIDs []uint
	if len(args) > 0 {
		hostIDs, err = parseIDs(args)
		if err != nil {
			return nil, nil, err
		}
	}
	if hostsFlags.organizationID == 0 {
		return hostIDs, scopes, nil
	}

	orgHostIDs, err := App().Store.HostsInOrganization(cmd.Context(), hostsFlags.organizationID)
	if err != nil {
		return nil, nil, err
	}
	if len(args) == 0 {
		return orgHostIDs, scopes, nil
	}
	return restrictHosts(hostIDs, orgHostIDs), scopes, nil
}

func bucketScopes(bucket string) ([]errata.Scope, error) {
	if bucket == "" {
		return []errata.Scope{}, nil
	}
	types, ok := errata.TypesForBucket(bucket)
	if !ok {
		return nil, fmt.Errorf("unknown errata type bucket %q", bucket)
	}
	return []errata.Scope{errata.OfType(types)}, nil
}

// restrictHosts keeps the ids of hostIDs that are also in allowed, in order.
func restrictHosts(hostIDs, allowed []uint) []uint {
	restricted := []uint{}
	for _, id := range hostIDs {
		if slices.Contains(allowed, id) {
			restricted = append(restricted, id)
		}
	}
	return restricted
}

func parseIDs(args []string) ([]uint, error) {
	ids := make([]uint, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", arg, err)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func printErrata(result []errata.Erratum) {
	for _, erratum := range result {
		updated := ""
		if erratum.Updated != nil {
			updated = erratum.Updated.Format(time.DateTime)
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%s\n", erratum.ErrataID, erratum.ErrataType, erratum.Severity, updated, erratum.Title)
	}
}

func init() {
	hostsCmd.PersistentFlags().UintVar(&hostsFlags.organizationID, "org", 0, "Use all hosts of this organization")
	hostsCmd.PersistentFlags().StringVarP(&hostsFlags.bucket, "type", "t", "", "Only list errata of this type (security, bugfix, enhancement)")

	hostsCmd.AddCommand(hostsApplicableCmd)
	hostsCmd.AddCommand(hostsInstallableCmd)
	hostsCmd.AddCommand(hostsDashboardCmd)
	rootCmd.AddCommand(hostsCmd)
}
