package ordercode

import (
	"bytes"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^\d{4}(JA|FB|MR|AP|MY|JN|JL|AU|SE|OC|NV|DC)\d{2}[a-z]{4}$`)

func TestGenerateFormat(t *testing.T) {
	gen := NewGenerator(time.UTC)
	for i := 0; i < 200; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		assert.Len(t, code, Length)
		assert.Regexp(t, codePattern, code)
	}
}

func TestGenerateUsesBusinessTimezone(t *testing.T) {
	nairobi, err := time.LoadLocation("Africa/Nairobi")
	require.NoError(t, err)

	// 22:30 UTC on Oct 11 is already Oct 12 in Nairobi.
	fixed := time.Date(2025, time.October, 11, 22, 30, 0, 0, time.UTC)
	gen := NewGenerator(nairobi,
		WithClock(func() time.Time { return fixed }),
		WithEntropy(bytes.NewReader([]byte{3, 1, 5, 22})),
	)

	code, err := gen.Generate()
	require.NoError(t, err)
	assert.Equal(t, "2025OC12dbfw", code)
}

func TestGenerateRedrawsBiasedBytes(t *testing.T) {
	gen := NewGenerator(time.UTC,
		WithClock(func() time.Time { return time.Date(2024, time.February, 3, 0, 0, 0, 0, time.UTC) }),
		WithEntropy(bytes.NewReader([]byte{250, 0, 1, 2, 3, 255, 255, 255})),
	)

	code, err := gen.Generate()
	require.NoError(t, err)
	assert.Equal(t, "2024FB03abcd", code)
}

func TestGenerateEntropyFailure(t *testing.T) {
	gen := NewGenerator(time.UTC, WithEntropy(bytes.NewReader(nil)))
	_, err := gen.Generate()
	require.Error(t, err)
}

func TestMonthCodeTable(t *testing.T) {
	assert.Equal(t, "JA", MonthCode(time.January))
	assert.Equal(t, "MY", MonthCode(time.May))
	assert.Equal(t, "DC", MonthCode(time.December))
	assert.Equal(t, "", MonthCode(time.Month(13)))
}
