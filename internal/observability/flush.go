package observability

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// FlushTelemetry drains buffered telemetry at the end of shutdown, after
// in-flight requests have completed. Prometheus is pull-based so there is
// nothing to push; the log buffer is the only thing that needs a sync.
func FlushTelemetry(ctx context.Context, logger *zap.Logger) error {
	if logger != nil {
		if err := logger.Sync(); err != nil {
			return fmt.Errorf("flush logs: %w", err)
		}
	}
	return nil
}
