package intersight

// ClusterSummary is the subset of a hyperflex.Cluster the exporter publishes.
type ClusterSummary struct {
	Moid               string `json:"Moid"`
	ClusterName        string `json:"ClusterName"`
	ComputeNodeCount   int64  `json:"ComputeNodeCount"`
	ConvergedNodeCount int64  `json:"ConvergedNodeCount"`
}

// HealthRecord is the subset of a hyperflex.Health the exporter publishes.
// State is kept as the raw upstream string.
type HealthRecord struct {
	ClusterMoid string
	State       string
}

// countResponse is returned by any list endpoint queried with $count=true.
type countResponse struct {
	Count int64 `json:"Count"`
}

type clusterListResponse struct {
	Results []ClusterSummary `json:"Results"`
}

type moRef struct {
	Moid       string `json:"Moid"`
	ObjectType string `json:"ObjectType,omitempty"`
}

type healthEntry struct {
	Cluster *moRef `json:"Cluster"`
	State   string `json:"State"`
}

type healthListResponse struct {
	Results []healthEntry `json:"Results"`
}
