package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeLabel_AllCodes(t *testing.T) {
	want := map[Size]string{
		SizeS:    "S (Small)",
		SizeM:    "M (Medium)",
		SizeL:    "L (Large)",
		SizeXL:   "XL (Extra Large)",
		SizeXXL:  "XXL (Double Extra Large)",
		SizeXXXL: "XXXL (Triple Extra Large)",
	}

	require.Len(t, Sizes, len(want))
	for _, size := range Sizes {
		assert.Equal(t, want[size], SizeLabel(size), "label for %s", size)
		// stable across calls
		assert.Equal(t, SizeLabel(size), size.Label())
	}
}

func TestSizeLabel_UnknownPassesThrough(t *testing.T) {
	assert.Equal(t, "XS", SizeLabel(Size("XS")))
	assert.Equal(t, "", SizeLabel(Size("")))
}

func TestParseSize(t *testing.T) {
	size, err := ParseSize("XL")
	require.NoError(t, err)
	assert.Equal(t, SizeXL, size)

	size, err = ParseSize("")
	require.NoError(t, err)
	assert.Equal(t, Size(""), size)

	for _, bad := range []string{"xl", "Medium", "XXXXL", " M"} {
		_, err := ParseSize(bad)
		assert.True(t, errors.Is(err, ErrInvalidChoice), "expected ErrInvalidChoice for %q, got %v", bad, err)
	}
}

func TestParsePaymentMethod(t *testing.T) {
	method, err := ParsePaymentMethod("cash on delivery")
	require.NoError(t, err)
	assert.Equal(t, PaymentCashOnDelivery, method)

	method, err = ParsePaymentMethod("Wire Transfer")
	require.NoError(t, err)
	assert.Equal(t, PaymentWireTransfer, method)

	_, err = ParsePaymentMethod("Bitcoin")
	assert.ErrorIs(t, err, ErrInvalidChoice)
}
