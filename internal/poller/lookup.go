package poller

import "github.com/gnuowned/intersight-exporter/internal/intersight"

// BuildClusterLookup maps cluster moid to cluster name. It is rebuilt every cycle.
func BuildClusterLookup(clusters []intersight.ClusterSummary) map[string]string {
	lookup := make(map[string]string, len(clusters))
	for _, c := range clusters {
		lookup[c.Moid] = c.ClusterName
	}
	return lookup
}

// ResolveClusterName returns the cluster name for moid, or moid itself when
// the cluster is not in lookup.
func ResolveClusterName(lookup map[string]string, moid string) string {
	if name, ok := lookup[moid]; ok {
		return name
	}
	return moid
}
