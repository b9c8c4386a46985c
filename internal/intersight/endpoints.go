package intersight

import (
	"context"
	"encoding/json"

	exporrors "github.com/gnuowned/intersight-exporter/internal/errors"
)

const (
	endpointPhysicalSummaries = "/compute/PhysicalSummaries?$count=true"
	endpointBlades            = "/compute/Blades?$count=true"
	endpointRackUnits         = "/compute/RackUnits?$count=true"
	endpointHxClusters        = "/hyperflex/Clusters?$select=Moid,ClusterName,ComputeNodeCount,ConvergedNodeCount"
	endpointHxHealths         = "/hyperflex/Healths?$select=Cluster,State"
)

// PhysicalSummaryCount returns the number of compute.PhysicalSummary objects.
func (c *DefaultClient) PhysicalSummaryCount(ctx context.Context) (int64, error) {
	return c.count(ctx, "PhysicalSummaryCount", endpointPhysicalSummaries)
}

// BladeCount returns the number of compute.Blade objects.
func (c *DefaultClient) BladeCount(ctx context.Context) (int64, error) {
	return c.count(ctx, "BladeCount", endpointBlades)
}

// RackUnitCount returns the number of compute.RackUnit objects.
func (c *DefaultClient) RackUnitCount(ctx context.Context) (int64, error) {
	return c.count(ctx, "RackUnitCount", endpointRackUnits)
}

func (c *DefaultClient) count(ctx context.Context, operation, path string) (int64, error) {
	body, err := c.doGet(ctx, operation, path)
	if err != nil {
		return 0, err
	}

	var result countResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, exporrors.Decode(operation, err)
	}
	return result.Count, nil
}

// ListHxClusters fetches every hyperflex.Cluster.
func (c *DefaultClient) ListHxClusters(ctx context.Context) ([]ClusterSummary, error) {
	const operation = "ListHxClusters"
	body, err := c.doGet(ctx, operation, endpointHxClusters)
	if err != nil {
		return nil, err
	}

	var result clusterListResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, exporrors.Decode(operation, err)
	}
	return result.Results, nil
}

// ListHxHealth fetches every hyperflex.Health. A record whose cluster
// reference is absent keeps an empty ClusterMoid.
func (c *DefaultClient) ListHxHealth(ctx context.Context) ([]HealthRecord, error) {
	const operation = "ListHxHealth"
	body, err := c.doGet(ctx, operation, endpointHxHealths)
	if err != nil {
		return nil, err
	}

	var result healthListResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, exporrors.Decode(operation, err)
	}

	records := make([]HealthRecord, 0, len(result.Results))
	for _, entry := range result.Results {
		rec := HealthRecord{State: entry.State}
		if entry.Cluster != nil {
			rec.ClusterMoid = entry.Cluster.Moid
		}
		records = append(records, rec)
	}
	return records, nil
}
