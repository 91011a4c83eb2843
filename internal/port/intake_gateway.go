package port

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rl1809/hoodie-drop/internal/core/domain"
)

var ErrTransport = errors.New("intake transport failed")

// Sent records that an order left this process for the intake endpoint.
// The endpoint's reply is never read, so a Sent value does not mean the
// remote form stored the row: a disabled form or a wrong field key fails
// silently on the far side.
type Sent struct {
	Endpoint     string
	DispatchedAt time.Time
	FieldCount   int
}

// TransportError is returned when the request could not be delivered at the
// network level (DNS, refused connection, deadline).
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send to %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

type IntakeGateway interface {
	// Send encodes the draft and posts it once. It returns either a Sent
	// receipt or a *TransportError.
	Send(ctx context.Context, draft domain.OrderDraft) (Sent, error)
}
