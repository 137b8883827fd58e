package contact_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorbase/authkit/pkg/contact"
)

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	t.Run("passes through international format", func(t *testing.T) {
		t.Parallel()

		phone, err := contact.NormalizePhone("+1 (555) 123-4567", "")
		require.NoError(t, err)
		assert.Equal(t, "+15551234567", phone)
	})

	t.Run("converts 00 international prefix", func(t *testing.T) {
		t.Parallel()

		phone, err := contact.NormalizePhone("0044 7911 123456", "")
		require.NoError(t, err)
		assert.Equal(t, "+447911123456", phone)
	})

	t.Run("idempotent on canonical input", func(t *testing.T) {
		t.Parallel()

		first, err := contact.NormalizePhone("(555) 123-4567", "US")
		require.NoError(t, err)

		second, err := contact.NormalizePhone(first, "")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("applies default region to national numbers", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			raw    string
			region string
			want   string
		}{
			{"5551234567", "US", "+15551234567"},
			{"07911 123456", "GB", "+447911123456"},
			{"01 23 45 67 89", "FR", "+33123456789"},
			{"8 701 123 45 67", "KZ", "+77011234567"},
		}
		for _, tc := range cases {
			phone, err := contact.NormalizePhone(tc.raw, tc.region)
			require.NoError(t, err, "input %q", tc.raw)
			assert.Equal(t, tc.want, phone)
		}
	})

	t.Run("fails closed without a country code", func(t *testing.T) {
		t.Parallel()

		_, err := contact.NormalizePhone("5551234567", "")
		assert.ErrorIs(t, err, contact.ErrCountryCodeRequired)
	})

	t.Run("rejects unknown regions", func(t *testing.T) {
		t.Parallel()

		_, err := contact.NormalizePhone("5551234567", "ZZ")
		assert.ErrorIs(t, err, contact.ErrUnknownRegion)
	})

	t.Run("rejects invalid numbers", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"", "+0123456", "+1", "555-CALL-NOW", "123", "+123456789012345678"} {
			_, err := contact.NormalizePhone(raw, "US")
			assert.Error(t, err, "input %q", raw)
		}
	})
}

func TestMaskPhone(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "*******4567", contact.MaskPhone("+15551234567"))
	assert.Equal(t, "***", contact.MaskPhone("+123"))
}
