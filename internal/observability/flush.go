package observability

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// FlushTelemetry closes backend clients and flushes logs before process exit.
// Prometheus is pull-based, so metrics need no flush. Call during graceful
// shutdown after in-flight requests have drained. All closers run even if
// one fails; errors are combined.
func FlushTelemetry(ctx context.Context, logger *zap.Logger, closers ...func() error) error {
	var err error
	for _, c := range closers {
		if ctx.Err() != nil {
			err = multierr.Append(err, ctx.Err())
			break
		}
		if c != nil {
			err = multierr.Append(err, c())
		}
	}
	if logger != nil {
		if syncErr := logger.Sync(); syncErr != nil {
			err = multierr.Append(err, fmt.Errorf("flush logs: %w", syncErr))
		}
	}
	return err
}
