// Package poller runs the fetch-and-publish cycle against the Intersight API.
package poller

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	exporrors "github.com/gnuowned/intersight-exporter/internal/errors"
	"github.com/gnuowned/intersight-exporter/internal/intersight"
	"github.com/gnuowned/intersight-exporter/internal/metrics"
)

// State is the poll loop state.
type State int32

const (
	StateIdle State = iota
	StatePolling
)

func (s State) String() string {
	if s == StatePolling {
		return "polling"
	}
	return "idle"
}

// Step identifies the part of a cycle that was running when it ended.
type Step string

const (
	StepPhysicalSummary Step = "physical_summary"
	StepClusters        Step = "hx_clusters"
	StepHealth          Step = "hx_health"
	StepNodes           Step = "hx_nodes_summary"
	StepDone            Step = "done"
)

// Sink receives the values produced by a cycle. *metrics.Registry implements it.
type Sink interface {
	SetPhysicalSummary(deviceType string, count int64)
	SetClusterCount(count int)
	SetClusterHealth(cluster string, code int)
	SetNodeCount(cluster, nodeType string, count int64)
	RecordCycle(finished time.Time, duration time.Duration, err error)
}

// Reporter is notified after every cycle.
type Reporter interface {
	ReportCycle(result CycleResult)
}

// CycleResult describes one completed cycle. Err is nil on success; otherwise
// Step names the step that failed and later steps were not run.
type CycleResult struct {
	Started  time.Time
	Duration time.Duration
	Step     Step
	Clusters int
	Err      error
}

// OK reports whether the cycle completed every step.
func (r CycleResult) OK() bool {
	return r.Err == nil
}

// Poller owns the poll loop. Cycles never overlap: the next one is scheduled
// only after the previous one has returned.
type Poller struct {
	client    intersight.Client
	sink      Sink
	interval  time.Duration
	logger    *zap.Logger
	reporters []Reporter
	state     atomic.Int32
	now       func() time.Time
}

// Option customizes a Poller.
type Option func(*Poller)

// WithReporter adds a Reporter notified after each cycle.
func WithReporter(r Reporter) Option {
	return func(p *Poller) { p.reporters = append(p.reporters, r) }
}

// NewPoller creates a Poller that publishes client results into sink every interval.
func NewPoller(client intersight.Client, sink Sink, interval time.Duration, logger *zap.Logger, opts ...Option) *Poller {
	p := &Poller{
		client:   client,
		sink:     sink,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current loop state.
func (p *Poller) State() State {
	return State(p.state.Load())
}

// Run executes a cycle immediately and then one cycle per interval until ctx is done.
// A failed cycle is logged and never ends the loop.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poll loop started", zap.Duration("interval", p.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poll loop stopped")
			return nil
		case <-timer.C:
		}

		p.logResult(p.RunCycle(ctx))
		timer.Reset(p.interval)
	}
}

// RunCycle performs one fetch-and-publish cycle. Values written before a
// failure are kept; nothing after the failing step is written.
func (p *Poller) RunCycle(ctx context.Context) CycleResult {
	p.state.Store(int32(StatePolling))
	defer p.state.Store(int32(StateIdle))

	result := CycleResult{Started: p.now()}
	result.Step, result.Clusters, result.Err = p.safeCycle(ctx)
	result.Duration = p.now().Sub(result.Started)

	p.sink.RecordCycle(result.Started.Add(result.Duration), result.Duration, result.Err)
	for _, r := range p.reporters {
		r.ReportCycle(result)
	}
	return result
}

// safeCycle turns a panic inside a cycle into an error so one bad response
// cannot take the process down.
func (p *Poller) safeCycle(ctx context.Context) (step Step, clusters int, err error) {
	step = StepPhysicalSummary
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during %s: %v", step, rec)
		}
	}()
	return p.cycle(ctx, &step)
}

func (p *Poller) cycle(ctx context.Context, step *Step) (Step, int, error) {
	*step = StepPhysicalSummary
	counts := []struct {
		deviceType string
		fetch      func(context.Context) (int64, error)
	}{
		{metrics.DeviceTypeAll, p.client.PhysicalSummaryCount},
		{metrics.DeviceTypeBlades, p.client.BladeCount},
		{metrics.DeviceTypeRackUnits, p.client.RackUnitCount},
	}
	for _, c := range counts {
		n, err := c.fetch(ctx)
		if err != nil {
			return *step, 0, fmt.Errorf("fetch %s count: %w", c.deviceType, err)
		}
		p.sink.SetPhysicalSummary(c.deviceType, n)
	}

	*step = StepClusters
	clusters, err := p.client.ListHxClusters(ctx)
	if err != nil {
		return *step, 0, fmt.Errorf("list hyperflex clusters: %w", err)
	}
	lookup := BuildClusterLookup(clusters)
	p.sink.SetClusterCount(len(clusters))

	*step = StepHealth
	records, err := p.client.ListHxHealth(ctx)
	if err != nil {
		return *step, len(clusters), fmt.Errorf("list hyperflex health: %w", err)
	}
	for _, rec := range records {
		name := ResolveClusterName(lookup, rec.ClusterMoid)
		p.sink.SetClusterHealth(name, int(MapHealthState(rec.State)))
	}

	*step = StepNodes
	for _, c := range clusters {
		p.sink.SetNodeCount(c.ClusterName, metrics.NodeTypeCompute, c.ComputeNodeCount)
		p.sink.SetNodeCount(c.ClusterName, metrics.NodeTypeConverged, c.ConvergedNodeCount)
	}

	*step = StepDone
	return *step, len(clusters), nil
}

func (p *Poller) logResult(result CycleResult) {
	if result.OK() {
		p.logger.Debug("poll cycle completed",
			zap.Duration("duration", result.Duration),
			zap.Int("clusters", result.Clusters),
		)
		return
	}

	p.logger.Error("poll cycle failed",
		zap.String("step", string(result.Step)),
		zap.String("code", exporrors.CodeOf(result.Err).String()),
		zap.Duration("duration", result.Duration),
		zap.Error(result.Err),
	)
}
