package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/hoodie-drop/internal/core/domain"
)

func requireValidationMessage(t *testing.T, err error, field domain.Field, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation), "expected ErrValidation, got %v", err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
	assert.Equal(t, field, verr.Field)
	assert.Equal(t, msg, verr.Message)
}

func TestValidate_ValidDraft(t *testing.T) {
	assert.NoError(t, Validate(validDraft()))
}

func TestValidate_EmptyDraftReportsSizeFirst(t *testing.T) {
	requireValidationMessage(t, Validate(domain.OrderDraft{}), domain.FieldSize, MsgSelectSize)
}

func TestValidate_MissingSize(t *testing.T) {
	d := validDraft()
	d.Size = ""
	requireValidationMessage(t, Validate(d), domain.FieldSize, MsgSelectSize)
}

func TestValidate_MissingPaymentMethod(t *testing.T) {
	d := validDraft()
	d.PaymentMethod = ""
	d.Phone = "bad"
	requireValidationMessage(t, Validate(d), domain.FieldPaymentMethod, MsgSelectPayment)
}

func TestValidate_PhoneFormat(t *testing.T) {
	for _, phone := range []string{"", "12345", "123456789a", "1234567890 ", " 1234567890", "12345678901", "06-1234567", "０６１２３４５６７８"} {
		t.Run(phone, func(t *testing.T) {
			d := validDraft()
			d.Phone = phone
			d.AgreedToAdvance = false
			requireValidationMessage(t, Validate(d), domain.FieldPhone, MsgPhoneFormat)
		})
	}
}

func TestValidate_PhoneRejectsTrailingNewline(t *testing.T) {
	d := validDraft()
	d.Phone = "0612345678\n"
	requireValidationMessage(t, Validate(d), domain.FieldPhone, MsgPhoneFormat)
}

func TestValidate_AgreementRequired(t *testing.T) {
	d := validDraft()
	d.AgreedToAdvance = false
	d.Name = ""
	requireValidationMessage(t, Validate(d), domain.FieldAgreedToAdvance, MsgConfirmAdvance)
}

func TestValidate_RequiredIdentityFieldsInFormOrder(t *testing.T) {
	d := validDraft()
	d.Name = ""
	d.Email = ""
	d.Major = ""
	requireValidationMessage(t, Validate(d), domain.FieldName, "Please enter your full name.")

	d.Name = "Yassine"
	requireValidationMessage(t, Validate(d), domain.FieldEmail, "Please enter a valid email address.")

	d.Email = "not-an-email"
	requireValidationMessage(t, Validate(d), domain.FieldEmail, "Please enter a valid email address.")

	d.Email = "yassine@example.com"
	requireValidationMessage(t, Validate(d), domain.FieldMajor, "Please select your major.")

	d.Major = "DATA"
	d.Year = ""
	requireValidationMessage(t, Validate(d), domain.FieldYear, "Please select your year of studies.")
}

func TestValidate_RatingDoesNotAffectValidity(t *testing.T) {
	d := validDraft()
	d.Rating = 0
	assert.NoError(t, Validate(d))
}
