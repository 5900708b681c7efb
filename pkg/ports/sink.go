package ports

import "context"

// RecordAppender appends rows to a durable tabular resource.
// Append is not idempotent: a failed call may or may not have written the row.
type RecordAppender interface {
	Append(ctx context.Context, row []string) error

	// Ping verifies that the resource is reachable and authorized.
	Ping(ctx context.Context) error
}
