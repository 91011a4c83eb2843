package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownField      = errors.New("unknown field")
	ErrInvalidChoice     = errors.New("value is not an allowed choice")
	ErrInvalidFieldValue = errors.New("invalid field value")
)

type Field string

const (
	FieldEmail           Field = "email"
	FieldName            Field = "name"
	FieldPhone           Field = "phone"
	FieldYear            Field = "year"
	FieldMajor           Field = "major"
	FieldSize            Field = "size"
	FieldPaymentMethod   Field = "paymentMethod"
	FieldAgreedToAdvance Field = "agreedToAdvance"
	FieldRating          Field = "rating"

	// the order form posts the payment radio group as "payment"
	fieldPaymentAlias Field = "payment"
)

const MaxRating = 5

// Years and Majors are the options the order form offers. They are not
// enforced: the draft stores whatever the client sends.
var (
	Years  = []string{"INE1", "INE2", "INE3", "Master", "Lauréat"}
	Majors = []string{"ASEDS", "ICCN", "AMOA", "DATA", "SMART", "SESNUM", "CLOUD"}
)

// OrderDraft holds the order form values between edits. The validate tags
// mark the identity fields the form requires before it can be submitted.
type OrderDraft struct {
	Name            string        `json:"name" validate:"required"`
	Email           string        `json:"email" validate:"required,email"`
	Phone           string        `json:"phone"`
	Year            string        `json:"year" validate:"required"`
	Major           string        `json:"major" validate:"required"`
	Size            Size          `json:"size"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	AgreedToAdvance bool          `json:"agreedToAdvance"`
	Rating          int           `json:"rating"`
}

// SetField replaces one attribute of the draft and leaves the others alone.
// Only type coercion happens here; size and payment method must still be one
// of their enumerated values.
func (d *OrderDraft) SetField(name Field, value string) error {
	switch name {
	case FieldEmail:
		d.Email = value
	case FieldName:
		d.Name = value
	case FieldPhone:
		d.Phone = value
	case FieldYear:
		d.Year = value
	case FieldMajor:
		d.Major = value
	case FieldSize:
		size, err := ParseSize(value)
		if err != nil {
			return err
		}
		d.Size = size
	case FieldPaymentMethod, fieldPaymentAlias:
		method, err := ParsePaymentMethod(value)
		if err != nil {
			return err
		}
		d.PaymentMethod = method
	case FieldAgreedToAdvance:
		agreed, err := parseFlag(value)
		if err != nil {
			return err
		}
		d.AgreedToAdvance = agreed
	case FieldRating:
		rating, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || rating < 0 || rating > MaxRating {
			return fmt.Errorf("%w: rating %q", ErrInvalidFieldValue, value)
		}
		d.Rating = rating
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// SelectedSize is the live summary shown next to the size picker.
func (d OrderDraft) SelectedSize() string {
	if d.Size == "" {
		return ""
	}
	return "Selected: " + string(d.Size)
}

func parseFlag(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "on", "yes":
		return true, nil
	case "", "false", "0", "off", "no":
		return false, nil
	}
	return false, fmt.Errorf("%w: agreedToAdvance %q", ErrInvalidFieldValue, value)
}
