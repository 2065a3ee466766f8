package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAcceptedShapes(t *testing.T) {
	for _, raw := range []string{
		"0712345678",
		"254712345678",
		"+254712345678",
		" 0712 345 678 ",
		"0712-345-678",
		"+254 712-345-678",
	} {
		got, err := Normalize(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, "254712345678", got, raw)
	}
}

func TestNormalizeRejectsOtherShapes(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"712345678",
		"07123456789",
		"071234567",
		"+255712345678",
		"25471234567",
		"2547123456789",
		"07123a5678",
		"+0712345678",
		"(0712)345678",
	} {
		_, err := Normalize(raw)
		assert.ErrorIs(t, err, ErrInvalid, raw)
		assert.False(t, Valid(raw), raw)
	}
}

func TestMask(t *testing.T) {
	assert.Equal(t, "*********678", Mask("254712345678"))
	assert.Equal(t, "**", Mask("12"))
}
