package stage

import (
	"context"

	"ytscribe/internal/queue"
)

// Handler is one step of the pipeline. Prepare validates inputs and fails
// fast, Execute does the work and mutates the item, HealthCheck reports
// whether the stage could run right now.
type Handler interface {
	Prepare(ctx context.Context, item *queue.Item) error
	Execute(ctx context.Context, item *queue.Item) error
	HealthCheck(ctx context.Context) Health
}
