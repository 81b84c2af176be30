package notifier

import (
	"context"

	"github.com/opencourt/rally/internal/matching"
)

// Notifier defines a high-level interface for delivering match notifications
// to users. This decouples the rest of the application from the specific
// notification provider (e.g., Slack). Delivery is fire-and-forget: callers
// log failures but never propagate them as engine errors.
type Notifier interface {
	Notify(ctx context.Context, n matching.Notification, dryRun bool) error
}
