package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
)

// Stage names used in logs, metrics and wrapped errors.
const (
	StageFetchCases            = "fetch_cases"
	StageFetchVaccinations     = "fetch_vaccinations"
	StageNormalizeCases        = "normalize_cases"
	StageNormalizeVaccinations = "normalize_vaccinations"
	StageFilter                = "filter"
	StageReconcile             = "reconcile"
	StageJoin                  = "join"
	StageAggregate             = "aggregate"
	StageTrends                = "trends"
)

// CaseSource downloads the raw case table.
type CaseSource interface {
	FetchCases(ctx context.Context) (domain.Table, error)
}

// VaccinationSource downloads the raw vaccination table.
type VaccinationSource interface {
	FetchVaccinations(ctx context.Context) (domain.Table, error)
}

// SnapshotSink persists the table produced by a stage.
type SnapshotSink interface {
	WriteSnapshot(ctx context.Context, t domain.Table) error
}

// Settings selects the analysis window and the case metrics carried through the run.
type Settings struct {
	Window    domain.DateWindow
	MetricSet domain.MetricSet
}

// Result is the output of a successful run.
type Result struct {
	Joined      domain.RecordSet
	Daily       []domain.DailySummary
	Trends      []domain.Trend
	CompletedAt time.Time
}

// Pipeline runs the fetch, normalize, filter, reconcile, join and aggregate
// stages once per Run, publishing a snapshot after each.
type Pipeline struct {
	cases        CaseSource
	vaccinations VaccinationSource
	sink         SnapshotSink
	logger       *slog.Logger
	metrics      *observability.Metrics
	settings     Settings

	mu   sync.RWMutex
	last *Result
}

// New creates a Pipeline. sink may be nil, in which case no snapshots are written.
func New(cases CaseSource, vaccinations VaccinationSource, sink SnapshotSink, logger *slog.Logger, metrics *observability.Metrics, settings Settings) *Pipeline {
	return &Pipeline{
		cases:        cases,
		vaccinations: vaccinations,
		sink:         sink,
		logger:       logger,
		metrics:      metrics,
		settings:     settings,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if _, ok := p.LastResult(); !ok {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastResult returns the result of the most recent successful run.
func (p *Pipeline) LastResult() (Result, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return Result{}, false
	}
	return *p.last, true
}

// Run executes every stage in order. Any fetch, decode, schema or snapshot
// error aborts the run and is returned wrapped with the failing stage.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	p.logger.Info("pipeline started",
		"start_date", p.settings.Window.Start,
		"end_date", p.settings.Window.End,
		"metric_set", p.settings.MetricSet,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	start := time.Now()
	res, err := p.run(ctx)
	if err != nil {
		p.metrics.Runs.WithLabelValues("error").Inc()
		p.logger.Error("pipeline failed", "error", err, "duration", time.Since(start))
		return Result{}, err
	}

	p.metrics.Runs.WithLabelValues("success").Inc()
	p.metrics.LastSuccess.Set(float64(res.CompletedAt.Unix()))
	p.mu.Lock()
	p.last = &res
	p.mu.Unlock()

	p.logger.Info("pipeline completed",
		"joined_rows", res.Joined.Len(),
		"days", len(res.Daily),
		"duration", time.Since(start),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context) (Result, error) {
	rawCases, err := stage(ctx, p, StageFetchCases, func() (domain.Table, error) {
		return p.cases.FetchCases(ctx)
	}, domain.Table.Len)
	if err != nil {
		return Result{}, err
	}
	if err := p.publish(ctx, StageFetchCases, stamp(rawCases, domain.SnapshotRawCases)); err != nil {
		return Result{}, err
	}

	rawVaccinations, err := stage(ctx, p, StageFetchVaccinations, func() (domain.Table, error) {
		return p.vaccinations.FetchVaccinations(ctx)
	}, domain.Table.Len)
	if err != nil {
		return Result{}, err
	}
	if err := p.publish(ctx, StageFetchVaccinations, stamp(rawVaccinations, domain.SnapshotRawVaccinations)); err != nil {
		return Result{}, err
	}

	cases, err := stage(ctx, p, StageNormalizeCases, func() (domain.RecordSet, error) {
		return domain.NormalizeCases(rawCases, p.settings.MetricSet)
	}, domain.RecordSet.Len)
	if err != nil {
		return Result{}, err
	}
	if err := p.publish(ctx, StageNormalizeCases, cases.Table(domain.SnapshotNormalizedCases)); err != nil {
		return Result{}, err
	}

	vaccinations, err := stage(ctx, p, StageNormalizeVaccinations, func() (domain.RecordSet, error) {
		return domain.NormalizeVaccinations(rawVaccinations)
	}, domain.RecordSet.Len)
	if err != nil {
		return Result{}, err
	}
	if err := p.publish(ctx, StageNormalizeVaccinations, vaccinations.Table(domain.SnapshotNormalizedVaccinations)); err != nil {
		return Result{}, err
	}

	cases, vaccinations = p.filter(cases, vaccinations)
	if err := p.publishAll(ctx, StageFilter,
		cases.Table(domain.SnapshotFilteredCases),
		vaccinations.Table(domain.SnapshotFilteredVaccinations),
	); err != nil {
		return Result{}, err
	}

	cases, vaccinations = p.reconcile(cases, vaccinations)
	if err := p.publishAll(ctx, StageReconcile,
		cases.Table(domain.SnapshotReconciledCases),
		vaccinations.Table(domain.SnapshotReconciledVaccinations),
	); err != nil {
		return Result{}, err
	}

	joined := measure(p, StageJoin, func() domain.RecordSet {
		return domain.Join(cases, vaccinations)
	}, domain.RecordSet.Len)
	if err := p.publish(ctx, StageJoin, joined.Table(domain.SnapshotJoined)); err != nil {
		return Result{}, err
	}

	daily := measure(p, StageAggregate, func() []domain.DailySummary {
		return domain.AggregateDaily(joined)
	}, func(d []domain.DailySummary) int { return len(d) })
	if err := p.publish(ctx, StageAggregate, domain.SummaryTable(domain.SnapshotDailySummary, joined.Metrics, daily)); err != nil {
		return Result{}, err
	}

	trends := measure(p, StageTrends, func() []domain.Trend {
		return domain.AnalyzeTrends(daily, joined.Metrics)
	}, func(t []domain.Trend) int { return len(t) })
	if err := p.publish(ctx, StageTrends, domain.TrendTable(domain.SnapshotTrends, trends)); err != nil {
		return Result{}, err
	}

	return Result{
		Joined:      joined,
		Daily:       daily,
		Trends:      trends,
		CompletedAt: domain.Now(),
	}, nil
}

func (p *Pipeline) filter(cases, vaccinations domain.RecordSet) (domain.RecordSet, domain.RecordSet) {
	start := time.Now()
	cases = cases.FilterWindow(p.settings.Window)
	vaccinations = vaccinations.FilterWindow(p.settings.Window)
	p.observe(StageFilter, start, cases.Len()+vaccinations.Len(),
		"cases", cases.Len(), "vaccinations", vaccinations.Len())
	return cases, vaccinations
}

func (p *Pipeline) reconcile(cases, vaccinations domain.RecordSet) (domain.RecordSet, domain.RecordSet) {
	start := time.Now()
	cases, vaccinations = domain.Reconcile(cases, vaccinations)
	p.observe(StageReconcile, start, cases.Len()+vaccinations.Len(),
		"cases", cases.Len(), "vaccinations", vaccinations.Len())
	return cases, vaccinations
}

// stage runs a fallible step, recording its duration and row count and
// wrapping any error with the stage name.
func stage[T any](ctx context.Context, p *Pipeline, name string, fn func() (T, error), rows func(T) int) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("%s: %w", name, err)
	}
	start := time.Now()
	out, err := fn()
	if err != nil {
		p.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		return zero, fmt.Errorf("%s: %w", name, err)
	}
	p.observe(name, start, rows(out))
	return out, nil
}

// measure runs a step that cannot fail.
func measure[T any](p *Pipeline, name string, fn func() T, rows func(T) int) T {
	start := time.Now()
	out := fn()
	p.observe(name, start, rows(out))
	return out
}

func (p *Pipeline) observe(name string, start time.Time, rows int, attrs ...any) {
	elapsed := time.Since(start)
	p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	p.metrics.StageRows.WithLabelValues(name).Set(float64(rows))
	args := append([]any{"stage", name, "rows", rows, "duration", elapsed}, attrs...)
	p.logger.Info("stage completed", args...)
}

func (p *Pipeline) publish(ctx context.Context, stageName string, t domain.Table) error {
	if p.sink == nil {
		return nil
	}
	if err := p.sink.WriteSnapshot(ctx, t); err != nil {
		return fmt.Errorf("%s: snapshot %s: %w", stageName, t.Name, err)
	}
	return nil
}

func (p *Pipeline) publishAll(ctx context.Context, stageName string, tables ...domain.Table) error {
	for _, t := range tables {
		if err := p.publish(ctx, stageName, t); err != nil {
			return err
		}
	}
	return nil
}

// stamp names a raw table and sets its generation time if the source did not.
func stamp(t domain.Table, name string) domain.Table {
	t.Name = name
	if t.GeneratedAt.IsZero() {
		t.GeneratedAt = domain.Now()
	}
	return t
}
