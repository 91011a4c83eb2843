package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rl1809/hoodie-drop/internal/core/domain"
)

var ErrValidation = errors.New("order draft is not valid")

const (
	MsgSelectSize     = "Please select a size to continue."
	MsgSelectPayment  = "Please select a payment method."
	MsgPhoneFormat    = "Phone number must be exactly 10 digits with no letters."
	MsgConfirmAdvance = "Please confirm the advance payment terms."
)

var requiredMessages = map[domain.Field]string{
	domain.FieldName:  "Please enter your full name.",
	domain.FieldEmail: "Please enter a valid email address.",
	domain.FieldYear:  "Please select your year of studies.",
	domain.FieldMajor: "Please select your major.",
}

// Go's \d only matches ASCII digits.
var phonePattern = regexp.MustCompile(`^\d{10}$`)

// ValidationError carries the single reason a draft was rejected.
type ValidationError struct {
	Field   domain.Field
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var requiredFields = newRequiredFieldValidator()

func newRequiredFieldValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a draft at submit time and returns the first failure only.
// The order is fixed: size, payment method, phone, advance agreement, then
// the required identity fields in form order.
func Validate(d domain.OrderDraft) error {
	if !d.Size.Valid() {
		return &ValidationError{Field: domain.FieldSize, Message: MsgSelectSize}
	}
	if !d.PaymentMethod.Valid() {
		return &ValidationError{Field: domain.FieldPaymentMethod, Message: MsgSelectPayment}
	}
	if !phonePattern.MatchString(d.Phone) {
		return &ValidationError{Field: domain.FieldPhone, Message: MsgPhoneFormat}
	}
	if !d.AgreedToAdvance {
		return &ValidationError{Field: domain.FieldAgreedToAdvance, Message: MsgConfirmAdvance}
	}

	err := requiredFields.Struct(d)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate draft: %w", err)
	}
	field := domain.Field(fieldErrs[0].Field())
	msg, ok := requiredMessages[field]
	if !ok {
		msg = fmt.Sprintf("Please fill in %s.", field)
	}
	return &ValidationError{Field: field, Message: msg}
}
