package domain

import "fmt"

type Size string

const (
	SizeS    Size = "S"
	SizeM    Size = "M"
	SizeL    Size = "L"
	SizeXL   Size = "XL"
	SizeXXL  Size = "XXL"
	SizeXXXL Size = "XXXL"
)

// Sizes lists the sizes in the order the order form offers them.
var Sizes = []Size{SizeS, SizeM, SizeL, SizeXL, SizeXXL, SizeXXXL}

func (s Size) Valid() bool {
	switch s {
	case SizeS, SizeM, SizeL, SizeXL, SizeXXL, SizeXXXL:
		return true
	}
	return false
}

// ParseSize accepts one of the size codes or the empty string, which clears
// the selection.
func ParseSize(value string) (Size, error) {
	size := Size(value)
	if size == "" || size.Valid() {
		return size, nil
	}
	return "", fmt.Errorf("%w: size %q", ErrInvalidChoice, value)
}

// SizeLabel returns the display string the intake form expects for a size
// code. Codes outside the table are returned unchanged.
func SizeLabel(s Size) string {
	switch s {
	case SizeS:
		return "S (Small)"
	case SizeM:
		return "M (Medium)"
	case SizeL:
		return "L (Large)"
	case SizeXL:
		return "XL (Extra Large)"
	case SizeXXL:
		return "XXL (Double Extra Large)"
	case SizeXXXL:
		return "XXXL (Triple Extra Large)"
	default:
		return string(s)
	}
}

func (s Size) Label() string {
	return SizeLabel(s)
}
