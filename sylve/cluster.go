package sylve

import (
	"context"

	"sylvectl/internal/api"
	"sylvectl/internal/schema"
)

// Cluster is the raft configuration of the datacenter.
type Cluster struct {
	ID                 int64  `json:"id"`
	Enabled            bool   `json:"enabled"`
	Key                string `json:"key"`
	RaftBootstrap      *bool  `json:"raftBootstrap"`
	RaftIP             string `json:"raftIP"`
	RaftPort           int    `json:"raftPort" validate:"gte=0,lte=65535"`
	RaftBootstrapNodes string `json:"raftBootstrapNodes,omitempty"`
}

// RaftNode is one member of the raft configuration.
type RaftNode struct {
	ID       string `json:"id" validate:"required"`
	Address  string `json:"address"`
	Suffrage string `json:"suffrage"`
	IsLeader bool   `json:"isLeader"`
}

// ClusterDetails describes the cluster and this node's place in it.
type ClusterDetails struct {
	Cluster       Cluster    `json:"cluster"`
	NodeID        string     `json:"nodeId"`
	Nodes         []RaftNode `json:"nodes" validate:"dive"`
	LeaderID      *string    `json:"leaderId,omitempty"`
	LeaderAddress *string    `json:"leaderAddress,omitempty"`
	Partial       bool       `json:"partial"`
}

// Leader returns the leader node, if known.
func (d ClusterDetails) Leader() (RaftNode, bool) {
	for _, n := range d.Nodes {
		if n.IsLeader {
			return n, true
		}
	}
	return RaftNode{}, false
}

// ClusterNode is a host known to the datacenter.
type ClusterNode struct {
	ID       int64   `json:"id"`
	NodeUUID string  `json:"nodeUUID"`
	Hostname string  `json:"hostname" validate:"required"`
	API      string  `json:"api"`
	Status   string  `json:"status"`
	CPU      int     `json:"cpu"`
	CPUUsage float64 `json:"cpuUsage"`
	Memory   uint64  `json:"memory"`
	MemUsage float64 `json:"memoryUsage"`
	Disk     uint64  `json:"disk"`
	DiskUse  float64 `json:"diskUsage"`
}

var clusterDetailsSchema = schema.Object[ClusterDetails]().WithDefaults(func(d *ClusterDetails) {
	if d.Nodes == nil {
		d.Nodes = []RaftNode{}
	}
})

// ClusterDetails fetches /cluster.
func (c *Client) ClusterDetails(ctx context.Context) api.Result[ClusterDetails] {
	return get(ctx, c, "/cluster", clusterDetailsSchema)
}

// ClusterNodes fetches /cluster/nodes.
func (c *Client) ClusterNodes(ctx context.Context) api.Result[[]ClusterNode] {
	return get(ctx, c, "/cluster/nodes", schema.ArrayOf[ClusterNode]())
}
