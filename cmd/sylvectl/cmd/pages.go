package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"sylvectl/internal/loader"
	"sylvectl/internal/views"
	"sylvectl/sylve"
)

// pageCmd builds a read-only command over one loader page. show returns
// the value printed with --json and the tables printed otherwise.
func pageCmd[T any](a *app, cmd *cobra.Command, page string,
	load func(*loader.Loader, context.Context) (T, error),
	show func(T) (any, []views.Table),
) *cobra.Command {
	cmd.Args = cobra.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ld, err := a.pageLoader(cmd.Context())
		if err != nil {
			return err
		}
		data, err := load(ld, cmd.Context())
		if err := a.pageResult(page, err); err != nil {
			return err
		}

		value, tables := show(data)
		if a.jsonOutput {
			return writeJSON(a.stdout, value)
		}
		views.RenderAll(a.stdout, tables...)
		return nil
	}
	return cmd
}

func newSummaryCmd(a *app) *cobra.Command {
	return pageCmd(a, &cobra.Command{
		Use:   "summary",
		Short: "Show host information and resource usage",
	}, "summary", (*loader.Loader).Summary, func(s loader.Summary) (any, []views.Table) {
		return s, []views.Table{views.SummaryTable(s)}
	})
}

func newPoolsCmd(a *app) *cobra.Command {
	return pageCmd(a, &cobra.Command{
		Use:   "pools",
		Short: "Show ZFS pools with their vdevs and devices",
	}, "storage", (*loader.Loader).Storage, func(s loader.Storage) (any, []views.Table) {
		return s.Pools, []views.Table{views.PoolsTable(s.Pools)}
	})
}

func newDatasetsCmd(a *app) *cobra.Command {
	return pageCmd(a, &cobra.Command{
		Use:   "datasets",
		Short: "List ZFS filesystems, volumes and snapshots",
	}, "storage", (*loader.Loader).Storage, func(s loader.Storage) (any, []views.Table) {
		return s.Datasets, []views.Table{views.DatasetsTable(s.Datasets)}
	})
}

func newDisksCmd(a *app) *cobra.Command {
	return pageCmd(a, &cobra.Command{
		Use:   "disks",
		Short: "List physical disks and their partitions",
	}, "disks", (*loader.Loader).Disks, func(d loader.Disks) (any, []views.Table) {
		return d.Disks, []views.Table{views.DisksTable(d.Disks)}
	})
}

func newVMsCmd(a *app) *cobra.Command {
	return pageCmd(a, &cobra.Command{
		Use:     "vms",
		Aliases: []string{"vm"},
		Short:   "List virtual machines",
	}, "guests", (*loader.Loader).Guests, func(g loader.Guests) (any, []views.Table) {
		return g.VMs, views.GuestsTables(g.VMs, g.Jails)[:1]
	})
}

func newJailsCmd(a *app) *cobra.Command {
	return pageCmd(a, &cobra.Command{
		Use:     "jails",
		Aliases: []string{"jail"},
		Short:   "List jails",
	}, "guests", (*loader.Loader).Guests, func(g loader.Guests) (any, []views.Table) {
		return g.Jails, views.GuestsTables(g.VMs, g.Jails)[1:]
	})
}

func newSwitchesCmd(a *app) *cobra.Command {
	return pageCmd(a, &cobra.Command{
		Use:     "switches",
		Aliases: []string{"network"},
		Short:   "Show network interfaces and standard switches",
	}, "network", (*loader.Loader).Network, func(n loader.Network) (any, []views.Table) {
		return n, views.NetworkTables(n.Interfaces, n.Switches)
	})
}

func newClusterCmd(a *app) *cobra.Command {
	return pageCmd(a, &cobra.Command{
		Use:     "cluster",
		Aliases: []string{"datacenter"},
		Short:   "Show cluster membership and node status",
	}, "datacenter", (*loader.Loader).Datacenter, func(d loader.Datacenter) (any, []views.Table) {
		return d, views.ClusterTables(d.Details, d.Nodes)
	})
}

func newSharesCmd(a *app) *cobra.Command {
	return pageCmd(a, &cobra.Command{
		Use:   "shares",
		Short: "List Samba shares",
	}, "shares", (*loader.Loader).Shares, func(s []sylve.SambaShare) (any, []views.Table) {
		return s, []views.Table{views.SharesTable(s)}
	})
}
