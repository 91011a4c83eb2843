package domain

import "time"

type SubmissionState string

const (
	SubmissionIdle       SubmissionState = "idle"
	SubmissionSubmitting SubmissionState = "submitting"
	SubmissionSubmitted  SubmissionState = "submitted"
)

func (s SubmissionState) IsTerminal() bool {
	return s == SubmissionSubmitted
}

func (s SubmissionState) String() string {
	return string(s)
}

// Checkout is the session record around one order draft. It exists only for
// the lifetime of the checkout view; a new visit starts a new one.
type Checkout struct {
	ID          string          `json:"id"`
	Draft       OrderDraft      `json:"draft"`
	State       SubmissionState `json:"state"`
	LastError   string          `json:"lastError,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	SubmittedAt *time.Time      `json:"submittedAt,omitempty"`
}

func NewCheckout(id string, now time.Time) Checkout {
	return Checkout{
		ID:        id,
		State:     SubmissionIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
