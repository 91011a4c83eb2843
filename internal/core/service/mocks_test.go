package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rl1809/hoodie-drop/internal/core/domain"
	"github.com/rl1809/hoodie-drop/internal/port"
)

// Mock DraftRepository
type mockDraftRepo struct {
	mu        sync.Mutex
	checkouts map[string]domain.Checkout
	locks     map[string]string
	seq       int
	saveErr   error
}

func newMockDraftRepo() *mockDraftRepo {
	return &mockDraftRepo{
		checkouts: make(map[string]domain.Checkout),
		locks:     make(map[string]string),
	}
}

func (m *mockDraftRepo) SaveCheckout(ctx context.Context, checkout domain.Checkout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.checkouts[checkout.ID] = checkout
	return nil
}

func (m *mockDraftRepo) GetCheckout(ctx context.Context, id string) (*domain.Checkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	checkout, ok := m.checkouts[id]
	if !ok {
		return nil, nil
	}
	return &checkout, nil
}

func (m *mockDraftRepo) AcquireLock(ctx context.Context, id string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[id]; held {
		return "", false, nil
	}
	m.seq++
	token := strconv.Itoa(m.seq)
	m.locks[id] = token
	return token, true, nil
}

func (m *mockDraftRepo) ReleaseLock(ctx context.Context, id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[id] == token {
		delete(m.locks, id)
	}
	return nil
}

func (m *mockDraftRepo) state(id string) domain.SubmissionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkouts[id].State
}

// Fake IntakeGateway
type fakeIntake struct {
	mu     sync.Mutex
	calls  atomic.Int32
	drafts []domain.OrderDraft
	err    error
	block  chan struct{}
}

func (f *fakeIntake) Send(ctx context.Context, draft domain.OrderDraft) (port.Sent, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.drafts = append(f.drafts, draft)
	f.mu.Unlock()
	if f.err != nil {
		return port.Sent{}, &port.TransportError{Endpoint: "https://forms.test/formResponse", Err: f.err}
	}
	return port.Sent{Endpoint: "https://forms.test/formResponse", DispatchedAt: time.Now(), FieldCount: 9}, nil
}

var errConnRefused = errors.New("dial tcp: connection refused")

func validDraft() domain.OrderDraft {
	return domain.OrderDraft{
		Name:            "Yassine Amrani",
		Email:           "yassine@example.com",
		Phone:           "0612345678",
		Year:            "INE2",
		Major:           "CLOUD",
		Size:            domain.SizeM,
		PaymentMethod:   domain.PaymentCashOnDelivery,
		AgreedToAdvance: true,
		Rating:          5,
	}
}
