package ports

import (
	"context"

	"github.com/aretw0/intake/pkg/domain"
)

// Messenger delivers outbound messages through a chat transport.
type Messenger interface {
	Send(ctx context.Context, recipient string, msg domain.Message) error
}
