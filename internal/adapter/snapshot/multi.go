package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
)

// Writer persists one snapshot table.
type Writer interface {
	WriteSnapshot(ctx context.Context, t domain.Table) error
}

// Target is a named Writer; the name labels logs and metrics.
type Target struct {
	Name   string
	Writer Writer
}

// Multi writes every snapshot to all targets. A failing target does not stop
// the others; all failures are returned together.
type Multi struct {
	targets []Target
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewMulti creates a fan-out writer over targets.
func NewMulti(metrics *observability.Metrics, logger *slog.Logger, targets ...Target) *Multi {
	return &Multi{targets: targets, metrics: metrics, logger: logger}
}

func (m *Multi) WriteSnapshot(ctx context.Context, t domain.Table) error {
	var result *multierror.Error
	for _, target := range m.targets {
		if err := target.Writer.WriteSnapshot(ctx, t); err != nil {
			m.metrics.SnapshotWrites.WithLabelValues(target.Name, "error").Inc()
			m.logger.Error("snapshot write failed", "sink", target.Name, "snapshot", t.Name, "error", err)
			result = multierror.Append(result, fmt.Errorf("%s sink: %w", target.Name, err))
			continue
		}
		m.metrics.SnapshotWrites.WithLabelValues(target.Name, "success").Inc()
		m.logger.Debug("snapshot written", "sink", target.Name, "snapshot", t.Name, "rows", t.Len())
	}
	return result.ErrorOrNil()
}

// Len returns the number of targets.
func (m *Multi) Len() int {
	return len(m.targets)
}
