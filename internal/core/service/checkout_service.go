package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/hoodie-drop/internal/core/domain"
	"github.com/rl1809/hoodie-drop/internal/port"
)

var (
	ErrDraftNotFound    = errors.New("checkout not found")
	ErrAlreadySubmitted = errors.New("checkout already submitted")
	ErrCheckoutBusy     = errors.New("checkout is busy")
)

// TransportFailureMessage is shown when the order could not leave the
// service. The cause is only logged.
const TransportFailureMessage = "Transmission failed. Please retry."

type SubmitResult struct {
	Checkout *domain.Checkout
	Sent     port.Sent
}

// DefaultLockTTL is how long a checkout counts as in flight without an
// update. It must outlast one intake send plus the confirmation delay.
const DefaultLockTTL = 30 * time.Second

type CheckoutService struct {
	drafts            port.DraftRepository
	intake            port.IntakeGateway
	logger            *zap.Logger
	confirmationDelay time.Duration
	lockTTL           time.Duration
	now               func() time.Time
}

type Option func(*CheckoutService)

func WithLogger(logger *zap.Logger) Option {
	return func(s *CheckoutService) {
		s.logger = logger
	}
}

// WithConfirmationDelay holds a successful submit back before it is reported.
// It is pacing for the confirmation screen only.
func WithConfirmationDelay(d time.Duration) Option {
	return func(s *CheckoutService) {
		s.confirmationDelay = d
	}
}

// WithLockTTL sets how long a submitting checkout stays busy when its
// holder stops updating it. Use the same value as the store lock.
func WithLockTTL(d time.Duration) Option {
	return func(s *CheckoutService) {
		s.lockTTL = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *CheckoutService) {
		s.now = now
	}
}

func NewCheckoutService(drafts port.DraftRepository, intake port.IntakeGateway, opts ...Option) *CheckoutService {
	s := &CheckoutService{
		drafts: drafts,
		intake: intake,
		logger:  zap.NewNop(),
		lockTTL: DefaultLockTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartDraft opens an empty checkout. Every visit to the order view gets a
// fresh one.
func (s *CheckoutService) StartDraft(ctx context.Context) (*domain.Checkout, error) {
	checkout := domain.NewCheckout(uuid.NewString(), s.now())
	if err := s.drafts.SaveCheckout(ctx, checkout); err != nil {
		return nil, fmt.Errorf("save checkout: %w", err)
	}
	s.logger.Debug("checkout started", zap.String("checkout_id", checkout.ID))
	return &checkout, nil
}

func (s *CheckoutService) GetCheckout(ctx context.Context, id string) (*domain.Checkout, error) {
	return s.load(ctx, id)
}

// SetField applies one form edit to the checkout's draft.
func (s *CheckoutService) SetField(ctx context.Context, id string, name domain.Field, value string) (*domain.Checkout, error) {
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	checkout, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditable(checkout); err != nil {
		return nil, err
	}

	if err := checkout.Draft.SetField(name, value); err != nil {
		return nil, err
	}
	checkout.UpdatedAt = s.now()

	if err := s.drafts.SaveCheckout(ctx, *checkout); err != nil {
		return nil, fmt.Errorf("save checkout: %w", err)
	}
	return checkout, nil
}

// Submit validates the draft and, when it passes, sends it to the intake
// endpoint exactly once. A transport failure puts the checkout back to idle
// so the client may try again; nothing is retried here.
func (s *CheckoutService) Submit(ctx context.Context, id string) (*SubmitResult, error) {
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	checkout, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditable(checkout); err != nil {
		return nil, err
	}

	if err := Validate(checkout.Draft); err != nil {
		checkout.LastError = err.Error()
		checkout.UpdatedAt = s.now()
		if saveErr := s.drafts.SaveCheckout(ctx, *checkout); saveErr != nil {
			return nil, fmt.Errorf("save checkout: %w", saveErr)
		}
		s.logger.Debug("checkout rejected",
			zap.String("checkout_id", id),
			zap.String("reason", err.Error()))
		return nil, err
	}

	checkout.State = domain.SubmissionSubmitting
	checkout.LastError = ""
	checkout.UpdatedAt = s.now()
	if err := s.drafts.SaveCheckout(ctx, *checkout); err != nil {
		return nil, fmt.Errorf("save checkout: %w", err)
	}

	sent, sendErr := s.intake.Send(ctx, checkout.Draft)

	// the request context may already be done, the state change must still land
	saveCtx := context.WithoutCancel(ctx)

	if sendErr != nil {
		checkout.State = domain.SubmissionIdle
		checkout.LastError = TransportFailureMessage
		checkout.UpdatedAt = s.now()
		if err := s.drafts.SaveCheckout(saveCtx, *checkout); err != nil {
			s.logger.Error("failed to reset checkout after transport error",
				zap.String("checkout_id", id), zap.Error(err))
		}
		s.logger.Warn("order transmission failed",
			zap.String("checkout_id", id), zap.Error(sendErr))
		return nil, fmt.Errorf("submit checkout %s: %w", id, sendErr)
	}

	s.pause(ctx)

	submittedAt := s.now()
	checkout.State = domain.SubmissionSubmitted
	checkout.SubmittedAt = &submittedAt
	checkout.UpdatedAt = submittedAt
	if err := s.drafts.SaveCheckout(saveCtx, *checkout); err != nil {
		s.logger.Error("order dispatched but checkout state not saved",
			zap.String("checkout_id", id), zap.Error(err))
		return nil, fmt.Errorf("save checkout: %w", err)
	}

	s.logger.Info("order dispatched",
		zap.String("checkout_id", id),
		zap.String("size", string(checkout.Draft.Size)),
		zap.String("endpoint", sent.Endpoint))

	return &SubmitResult{Checkout: checkout, Sent: sent}, nil
}

func (s *CheckoutService) load(ctx context.Context, id string) (*domain.Checkout, error) {
	checkout, err := s.drafts.GetCheckout(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get checkout: %w", err)
	}
	if checkout == nil {
		return nil, ErrDraftNotFound
	}
	return checkout, nil
}

func (s *CheckoutService) lock(ctx context.Context, id string) (func(), error) {
	token, ok, err := s.drafts.AcquireLock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lock checkout: %w", err)
	}
	if !ok {
		return nil, ErrCheckoutBusy
	}
	return func() {
		if err := s.drafts.ReleaseLock(context.WithoutCancel(ctx), id, token); err != nil {
			s.logger.Error("failed to release checkout lock", zap.String("checkout_id", id), zap.Error(err))
		}
	}, nil
}

// checkEditable rejects a submitted checkout and one whose send is still in
// flight. A submitting state older than the lock TTL was left by a holder
// that died mid-send; it is put back to idle.
func (s *CheckoutService) checkEditable(checkout *domain.Checkout) error {
	switch checkout.State {
	case domain.SubmissionSubmitted:
		return ErrAlreadySubmitted
	case domain.SubmissionSubmitting:
		if s.now().Sub(checkout.UpdatedAt) < s.lockTTL {
			return ErrCheckoutBusy
		}
		s.logger.Warn("resetting stale submitting checkout",
			zap.String("checkout_id", checkout.ID),
			zap.Time("updated_at", checkout.UpdatedAt))
		checkout.State = domain.SubmissionIdle
	}
	return nil
}

func (s *CheckoutService) pause(ctx context.Context) {
	if s.confirmationDelay <= 0 {
		return
	}
	timer := time.NewTimer(s.confirmationDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
