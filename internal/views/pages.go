package views

import (
	"fmt"
	"strings"

	"sylvectl/sylve"
)

func healthColumn(name string) Column {
	return Column{Name: name, Style: HealthStyle}
}

// PoolTree builds pool, vdev and device rows. Replacing devices show the
// old and new drive beneath them.
func PoolTree(pools []sylve.Zpool) []*TreeNode {
	roots := make([]*TreeNode, 0, len(pools))
	for _, p := range pools {
		root := &TreeNode{Cells: []string{
			p.Name, p.Health, HumanBytes(p.Size), HumanBytes(p.Allocated), HumanBytes(p.Free),
			Percent(Ratio(p.Allocated, p.Size)),
		}}
		for _, v := range p.Vdevs {
			vnode := &TreeNode{Cells: []string{
				v.Name, v.Health, HumanBytes(v.Size), HumanBytes(v.Alloc), HumanBytes(v.Free),
				Percent(Ratio(v.Alloc, v.Size)),
			}}
			for _, d := range v.Devices {
				vnode.Children = append(vnode.Children, &TreeNode{Cells: []string{
					d.Name, d.Health, HumanBytes(d.Size), "", "", "",
				}})
			}
			for _, r := range v.ReplacingDevices {
				vnode.Children = append(vnode.Children, &TreeNode{
					Cells: []string{r.Name, r.Health, "", "", "", ""},
					Children: []*TreeNode{
						{Cells: []string{r.OldDrive.Name + " (old)", r.OldDrive.Health, HumanBytes(r.OldDrive.Size), "", "", ""}},
						{Cells: []string{r.NewDrive.Name + " (new)", r.NewDrive.Health, HumanBytes(r.NewDrive.Size), "", "", ""}},
					},
				})
			}
			root.Children = append(root.Children, vnode)
		}
		roots = append(roots, root)
	}
	return roots
}

// PoolsTable renders pools as a tree-table.
func PoolsTable(pools []sylve.Zpool) Table {
	return Table{
		Title: "Pools",
		Columns: []Column{
			{Name: "NAME"}, healthColumn("HEALTH"),
			{Name: "SIZE", Align: "right"}, {Name: "ALLOC", Align: "right"},
			{Name: "FREE", Align: "right"}, {Name: "USED", Align: "right"},
		},
		Rows: TreeRows(PoolTree(pools)),
	}
}

// DatasetsTable lists datasets and snapshots.
func DatasetsTable(datasets []sylve.Dataset) Table {
	t := Table{
		Title: "Datasets",
		Columns: []Column{
			{Name: "NAME"}, {Name: "TYPE"}, {Name: "USED", Align: "right"},
			{Name: "AVAIL", Align: "right"}, {Name: "REFER", Align: "right"},
			{Name: "MOUNTPOINT", Width: 32, Truncate: true},
		},
	}
	for _, d := range datasets {
		avail := ""
		if d.Type != "snapshot" {
			avail = HumanBytes(d.Avail)
		}
		t.Rows = append(t.Rows, []string{
			d.Name, d.Type, HumanBytes(d.Used), avail, HumanBytes(d.Referenced), d.Mountpoint,
		})
	}
	return t
}

// DisksTable lists disks with their partitions as children.
func DisksTable(disks []sylve.Disk) Table {
	var roots []*TreeNode
	for _, d := range disks {
		wear := "-"
		if d.WearOut != nil {
			wear = Percent(*d.WearOut)
		}
		gpt := "no"
		if d.GPT {
			gpt = "yes"
		}
		node := &TreeNode{Cells: []string{d.Device, d.Type, d.Usage, HumanBytes(d.Size), gpt, d.Model, wear}}
		for _, p := range d.Partitions {
			node.Children = append(node.Children, &TreeNode{Cells: []string{p.Name, "", p.Usage, HumanBytes(p.Size), "", "", ""}})
		}
		roots = append(roots, node)
	}
	return Table{
		Title: "Disks",
		Columns: []Column{
			{Name: "DEVICE"}, {Name: "TYPE"}, {Name: "USAGE"}, {Name: "SIZE", Align: "right"},
			{Name: "GPT"}, {Name: "MODEL", Width: 24, Truncate: true}, {Name: "WEAROUT", Align: "right"},
		},
		Rows: TreeRows(roots),
	}
}

// GuestsTables lists VMs and jails.
func GuestsTables(vms []sylve.SimpleVM, jails []sylve.SimpleJail) []Table {
	vt := Table{
		Title:   "Virtual machines",
		Columns: []Column{{Name: "ID", Align: "right"}, {Name: "NAME"}, healthColumn("STATE")},
	}
	for _, v := range vms {
		vt.Rows = append(vt.Rows, []string{fmt.Sprint(v.VMID), v.Name, v.State})
	}
	jt := Table{
		Title:   "Jails",
		Columns: []Column{{Name: "CTID", Align: "right"}, {Name: "NAME"}, healthColumn("STATE")},
	}
	for _, j := range jails {
		jt.Rows = append(jt.Rows, []string{fmt.Sprint(j.CTID), j.Name, j.State})
	}
	return []Table{vt, jt}
}

// NetworkTables lists interfaces and switches.
func NetworkTables(ifaces []sylve.Iface, switches sylve.SwitchList) []Table {
	it := Table{
		Title:   "Interfaces",
		Columns: []Column{{Name: "NAME"}, {Name: "ETHER"}, {Name: "MTU", Align: "right"}, {Name: "IPV4"}, {Name: "FLAGS", Width: 30, Truncate: true}},
	}
	for _, i := range ifaces {
		var addrs []string
		for _, a := range i.IPv4 {
			addrs = append(addrs, a.IP)
		}
		it.Rows = append(it.Rows, []string{
			i.Name, i.Ether, fmt.Sprint(i.MTU), strings.Join(addrs, ","), strings.Join(i.Flags.Desc, ","),
		})
	}
	st := Table{
		Title:   "Switches",
		Columns: []Column{{Name: "ID", Align: "right"}, {Name: "NAME"}, {Name: "MTU", Align: "right"}, {Name: "VLAN", Align: "right"}, {Name: "ADDRESS"}, {Name: "PORTS"}},
	}
	for _, s := range switches.Standard {
		var ports []string
		for _, p := range s.Ports {
			ports = append(ports, p.Name)
		}
		st.Rows = append(st.Rows, []string{
			fmt.Sprint(s.ID), s.Name, fmt.Sprint(s.MTU), fmt.Sprint(s.VLAN), s.Address, strings.Join(ports, ","),
		})
	}
	return []Table{it, st}
}

// ClusterTables shows raft membership and known nodes.
func ClusterTables(details sylve.ClusterDetails, nodes []sylve.ClusterNode) []Table {
	rt := Table{
		Title:   "Raft",
		Columns: []Column{{Name: "ID"}, {Name: "ADDRESS"}, {Name: "SUFFRAGE"}, {Name: "LEADER"}},
	}
	for _, n := range details.Nodes {
		leader := ""
		if n.IsLeader {
			leader = "*"
		}
		rt.Rows = append(rt.Rows, []string{n.ID, n.Address, n.Suffrage, leader})
	}
	nt := Table{
		Title: "Nodes",
		Columns: []Column{
			{Name: "HOSTNAME"}, {Name: "API"}, {Name: "STATUS"}, {Name: "CPU", Align: "right"},
			{Name: "MEMORY", Align: "right"}, {Name: "DISK", Align: "right"},
		},
	}
	for _, n := range nodes {
		nt.Rows = append(nt.Rows, []string{
			n.Hostname, n.API, n.Status, Percent(n.CPUUsage), Percent(n.MemUsage), Percent(n.DiskUse),
		})
	}
	return []Table{rt, nt}
}

// SharesTable lists Samba shares.
func SharesTable(shares []sylve.SambaShare) Table {
	t := Table{
		Title:   "Samba shares",
		Columns: []Column{{Name: "NAME"}, {Name: "DATASET"}, {Name: "READ-ONLY"}, {Name: "GUEST"}, {Name: "WRITERS"}},
	}
	for _, s := range shares {
		var groups []string
		for _, g := range s.WriteableGroups {
			groups = append(groups, g.Name)
		}
		t.Rows = append(t.Rows, []string{s.Name, s.Dataset, yesNo(s.ReadOnly), yesNo(s.GuestOK), strings.Join(groups, ",")})
	}
	return t
}

// NotesTable lists notes.
func NotesTable(notes []sylve.Note) Table {
	t := Table{
		Title:   "Notes",
		Columns: []Column{{Name: "ID", Align: "right"}, {Name: "TITLE"}, {Name: "CONTENT", Width: 48, Truncate: true}},
	}
	for _, n := range notes {
		t.Rows = append(t.Rows, []string{fmt.Sprint(n.ID), n.Title, strings.ReplaceAll(n.Content, "\n", " ")})
	}
	return t
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
