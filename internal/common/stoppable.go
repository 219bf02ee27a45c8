// Package common holds small cross-cutting helpers shared by the
// service's long-running components.
package common

import (
	"context"
	"fmt"
	"time"
)

// Stoppable is implemented by any component with an asynchronous
// shutdown path, letting cmd/relayd stop heterogeneous services
// uniformly during graceful shutdown.
type Stoppable interface {
	Stop(ctx context.Context) error
}

// StopWithTimeout calls service.Stop bounded by timeout, naming the
// service in any resulting error so shutdown logs are attributable.
func StopWithTimeout(name string, service Stoppable, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := service.Stop(ctx); err != nil {
		return fmt.Errorf("stop %s: %w", name, err)
	}
	return nil
}
