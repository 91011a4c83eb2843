package port

import (
	"context"

	"github.com/rl1809/hoodie-drop/internal/core/domain"
)

type DraftRepository interface {
	// SaveCheckout creates or replaces a checkout and refreshes its expiry
	SaveCheckout(ctx context.Context, checkout domain.Checkout) error

	// GetCheckout returns nil when the checkout is unknown or has expired
	GetCheckout(ctx context.Context, id string) (*domain.Checkout, error)

	// AcquireLock marks a checkout busy for one edit or submit, ok is false
	// if another request already holds it
	AcquireLock(ctx context.Context, id string) (token string, ok bool, err error)

	// ReleaseLock clears the mark if token still owns it
	ReleaseLock(ctx context.Context, id, token string) error
}
