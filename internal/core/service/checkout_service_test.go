package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/hoodie-drop/internal/adapter/storage"
	"github.com/rl1809/hoodie-drop/internal/core/domain"
	"github.com/rl1809/hoodie-drop/internal/port"
)

func fillDraft(t *testing.T, svc *CheckoutService, id string, d domain.OrderDraft) {
	t.Helper()
	fields := map[domain.Field]string{
		domain.FieldName:            d.Name,
		domain.FieldEmail:           d.Email,
		domain.FieldPhone:           d.Phone,
		domain.FieldYear:            d.Year,
		domain.FieldMajor:           d.Major,
		domain.FieldSize:            string(d.Size),
		domain.FieldPaymentMethod:   string(d.PaymentMethod),
		domain.FieldAgreedToAdvance: "false",
	}
	if d.AgreedToAdvance {
		fields[domain.FieldAgreedToAdvance] = "true"
	}
	for name, value := range fields {
		_, err := svc.SetField(context.Background(), id, name, value)
		require.NoError(t, err, "set %s", name)
	}
}

func TestStartDraft(t *testing.T) {
	repo := newMockDraftRepo()
	svc := NewCheckoutService(repo, &fakeIntake{})

	first, err := svc.StartDraft(context.Background())
	require.NoError(t, err)
	second, err := svc.StartDraft(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, domain.SubmissionIdle, first.State)
	assert.Equal(t, domain.OrderDraft{}, first.Draft)
}

func TestSetField_UpdatesStoredDraft(t *testing.T) {
	repo := newMockDraftRepo()
	svc := NewCheckoutService(repo, &fakeIntake{})
	ctx := context.Background()

	checkout, err := svc.StartDraft(ctx)
	require.NoError(t, err)

	updated, err := svc.SetField(ctx, checkout.ID, domain.FieldSize, "L")
	require.NoError(t, err)
	assert.Equal(t, "Selected: L", updated.Draft.SelectedSize())

	_, err = svc.SetField(ctx, checkout.ID, domain.FieldName, "Nora")
	require.NoError(t, err)

	stored, err := svc.GetCheckout(ctx, checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SizeL, stored.Draft.Size)
	assert.Equal(t, "Nora", stored.Draft.Name)
}

func TestSetField_RejectsFreeTextSize(t *testing.T) {
	svc := NewCheckoutService(newMockDraftRepo(), &fakeIntake{})
	ctx := context.Background()
	checkout, _ := svc.StartDraft(ctx)

	_, err := svc.SetField(ctx, checkout.ID, domain.FieldSize, "huge")
	assert.ErrorIs(t, err, domain.ErrInvalidChoice)
}

func TestSetField_UnknownCheckout(t *testing.T) {
	svc := NewCheckoutService(newMockDraftRepo(), &fakeIntake{})

	_, err := svc.SetField(context.Background(), "missing", domain.FieldName, "x")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestSubmit_EmptyDraftRejectedWithoutSending(t *testing.T) {
	repo := newMockDraftRepo()
	intake := &fakeIntake{}
	svc := NewCheckoutService(repo, intake)
	ctx := context.Background()
	checkout, _ := svc.StartDraft(ctx)

	_, err := svc.Submit(ctx, checkout.ID)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, MsgSelectSize, verr.Message)
	assert.Equal(t, int32(0), intake.calls.Load())

	stored, _ := svc.GetCheckout(ctx, checkout.ID)
	assert.Equal(t, domain.SubmissionIdle, stored.State)
	assert.Equal(t, MsgSelectSize, stored.LastError)
}

func TestSubmit_ValidationOrderIsLoadBearing(t *testing.T) {
	ctx := context.Background()
	steps := []struct {
		name  string
		field domain.Field
		value string
		next  string
	}{
		{"size", domain.FieldSize, "M", MsgSelectPayment},
		{"payment", domain.FieldPaymentMethod, "Cash On Delivery", MsgPhoneFormat},
		{"phone", domain.FieldPhone, "0612345678", MsgConfirmAdvance},
	}

	intake := &fakeIntake{}
	svc := NewCheckoutService(newMockDraftRepo(), intake)
	checkout, _ := svc.StartDraft(ctx)

	for _, step := range steps {
		_, err := svc.SetField(ctx, checkout.ID, step.field, step.value)
		require.NoError(t, err)

		_, err = svc.Submit(ctx, checkout.ID)
		require.Error(t, err, "after %s", step.name)
		assert.Equal(t, step.next, err.Error(), "after %s", step.name)
	}
	assert.Equal(t, int32(0), intake.calls.Load())
}

func TestSubmit_Success(t *testing.T) {
	repo := newMockDraftRepo()
	intake := &fakeIntake{}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewCheckoutService(repo, intake, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	checkout, _ := svc.StartDraft(ctx)
	fillDraft(t, svc, checkout.ID, validDraft())

	result, err := svc.Submit(ctx, checkout.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.SubmissionSubmitted, result.Checkout.State)
	require.NotNil(t, result.Checkout.SubmittedAt)
	assert.Equal(t, fixed, *result.Checkout.SubmittedAt)
	assert.Equal(t, "https://forms.test/formResponse", result.Sent.Endpoint)
	assert.Equal(t, int32(1), intake.calls.Load())
	assert.Equal(t, domain.SizeM, intake.drafts[0].Size)
	assert.Equal(t, domain.SubmissionSubmitted, repo.state(checkout.ID))
}

func TestSubmit_SubmittedIsTerminal(t *testing.T) {
	intake := &fakeIntake{}
	svc := NewCheckoutService(newMockDraftRepo(), intake)
	ctx := context.Background()

	checkout, _ := svc.StartDraft(ctx)
	fillDraft(t, svc, checkout.ID, validDraft())
	_, err := svc.Submit(ctx, checkout.ID)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, checkout.ID)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	_, err = svc.SetField(ctx, checkout.ID, domain.FieldSize, "S")
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	assert.Equal(t, int32(1), intake.calls.Load())
}

func TestSubmit_TransportErrorReturnsToIdle(t *testing.T) {
	repo := newMockDraftRepo()
	intake := &fakeIntake{err: errConnRefused}
	svc := NewCheckoutService(repo, intake)
	ctx := context.Background()

	checkout, _ := svc.StartDraft(ctx)
	fillDraft(t, svc, checkout.ID, validDraft())

	_, err := svc.Submit(ctx, checkout.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, port.ErrTransport)
	assert.ErrorIs(t, err, errConnRefused)

	stored, _ := svc.GetCheckout(ctx, checkout.ID)
	assert.Equal(t, domain.SubmissionIdle, stored.State)
	assert.Equal(t, TransportFailureMessage, stored.LastError)

	// the submit action is available again
	intake.err = nil
	result, err := svc.Submit(ctx, checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionSubmitted, result.Checkout.State)
	assert.Empty(t, result.Checkout.LastError)
	assert.Equal(t, int32(2), intake.calls.Load())
}

func TestSubmit_ConcurrentSubmitsSendOnce(t *testing.T) {
	repo := newMockDraftRepo()
	intake := &fakeIntake{block: make(chan struct{})}
	svc := NewCheckoutService(repo, intake)
	ctx := context.Background()

	checkout, _ := svc.StartDraft(ctx)
	fillDraft(t, svc, checkout.ID, validDraft())

	var wg sync.WaitGroup
	var busy, done atomic.Int32

	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := svc.Submit(ctx, checkout.ID); err == nil {
			done.Add(1)
		}
	}()

	// wait for the first submit to reach the gateway
	require.Eventually(t, func() bool { return intake.calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, domain.SubmissionSubmitting, repo.state(checkout.ID))

	var contenders sync.WaitGroup
	for i := 0; i < 10; i++ {
		contenders.Add(1)
		go func() {
			defer contenders.Done()
			if _, err := svc.Submit(ctx, checkout.ID); errors.Is(err, ErrCheckoutBusy) {
				busy.Add(1)
			}
		}()
	}
	contenders.Wait()

	_, err := svc.SetField(ctx, checkout.ID, domain.FieldSize, "S")
	assert.ErrorIs(t, err, ErrCheckoutBusy)

	close(intake.block)
	wg.Wait()

	assert.Equal(t, int32(1), intake.calls.Load())
	assert.Equal(t, int32(1), done.Load())
	assert.Equal(t, int32(10), busy.Load())
}

func TestSubmit_ConfirmationDelay(t *testing.T) {
	intake := &fakeIntake{}
	svc := NewCheckoutService(newMockDraftRepo(), intake, WithConfirmationDelay(30*time.Millisecond))
	ctx := context.Background()

	checkout, _ := svc.StartDraft(ctx)
	fillDraft(t, svc, checkout.ID, validDraft())

	start := time.Now()
	result, err := svc.Submit(ctx, checkout.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, domain.SubmissionSubmitted, result.Checkout.State)
}

func TestSubmit_StoreFailure(t *testing.T) {
	repo := newMockDraftRepo()
	intake := &fakeIntake{}
	svc := NewCheckoutService(repo, intake)
	ctx := context.Background()

	checkout, _ := svc.StartDraft(ctx)
	fillDraft(t, svc, checkout.ID, validDraft())
	repo.saveErr = errors.New("redis: connection pool timeout")

	_, err := svc.Submit(ctx, checkout.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save checkout")
	assert.Equal(t, int32(0), intake.calls.Load())
}

func TestSubmit_InFlightSurvivesExpiredStoreLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := storage.NewRedisAdapter(client, time.Hour).WithLockTTL(time.Second)
	intake := &fakeIntake{block: make(chan struct{})}
	svc := NewCheckoutService(repo, intake)
	ctx := context.Background()

	checkout, err := svc.StartDraft(ctx)
	require.NoError(t, err)
	fillDraft(t, svc, checkout.ID, validDraft())

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, checkout.ID)
		firstDone <- err
	}()
	require.Eventually(t, func() bool { return intake.calls.Load() == 1 }, time.Second, time.Millisecond)

	// the store lock lapses while the first send is still waiting
	mr.FastForward(31 * time.Second)

	_, err = svc.Submit(ctx, checkout.ID)
	assert.ErrorIs(t, err, ErrCheckoutBusy)

	_, err = svc.SetField(ctx, checkout.ID, domain.FieldSize, "S")
	assert.ErrorIs(t, err, ErrCheckoutBusy)

	close(intake.block)
	require.NoError(t, <-firstDone)
	assert.Equal(t, int32(1), intake.calls.Load())

	stored, err := svc.GetCheckout(ctx, checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionSubmitted, stored.State)
	assert.Equal(t, domain.SizeM, stored.Draft.Size)
}

func TestSubmit_StaleSubmittingIsReset(t *testing.T) {
	repo := newMockDraftRepo()
	intake := &fakeIntake{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewCheckoutService(repo, intake,
		WithLockTTL(15*time.Second),
		WithClock(func() time.Time { return now }))
	ctx := context.Background()

	checkout := domain.NewCheckout("crashed", now.Add(-time.Minute))
	checkout.Draft = validDraft()
	checkout.State = domain.SubmissionSubmitting
	require.NoError(t, repo.SaveCheckout(ctx, checkout))

	result, err := svc.Submit(ctx, "crashed")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionSubmitted, result.Checkout.State)
	assert.Equal(t, int32(1), intake.calls.Load())
}

func TestSubmit_RecentSubmittingIsBusy(t *testing.T) {
	repo := newMockDraftRepo()
	intake := &fakeIntake{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewCheckoutService(repo, intake,
		WithLockTTL(15*time.Second),
		WithClock(func() time.Time { return now }))
	ctx := context.Background()

	checkout := domain.NewCheckout("in-flight", now.Add(-5*time.Second))
	checkout.Draft = validDraft()
	checkout.State = domain.SubmissionSubmitting
	require.NoError(t, repo.SaveCheckout(ctx, checkout))

	_, err := svc.Submit(ctx, "in-flight")
	assert.ErrorIs(t, err, ErrCheckoutBusy)

	_, err = svc.SetField(ctx, "in-flight", domain.FieldPhone, "0600000000")
	assert.ErrorIs(t, err, ErrCheckoutBusy)
	assert.Equal(t, int32(0), intake.calls.Load())
}
