package errata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertDateIfEpoch(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("2024-01-01 00:00:00 +0000", ConvertDateIfEpoch("1704067200"))
	assert.Equal("1970-01-01 00:00:00 +0000", ConvertDateIfEpoch("0"))
	assert.Equal("2024-01-01", ConvertDateIfEpoch("2024-01-01"))
	assert.Equal("", ConvertDateIfEpoch(""))
	assert.Equal("-1", ConvertDateIfEpoch("-1"))
}

func TestParseTimestampFormats(t *testing.T) {
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := map[string]string{
		"rfc3339":        "2024-01-02T03:04:05Z",
		"rfc3339 offset": "2024-01-02T05:04:05+02:00",
		"no zone":        "2024-01-02T03:04:05",
		"epoch date":     "2024-01-02 03:04:05 +0000",
		"zone name":      "2024-01-02 03:04:05 UTC",
		"plain":          "2024-01-02 03:04:05",
		"padded":         "  2024-01-02 03:04:05 ",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseTimestamp(value)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestampDateOnly(t *testing.T) {
	require := require.New(t)

	got, err := ParseTimestamp("2024-01-02")
	require.NoError(err)
	require.True(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Equal(got))
}

func TestParseTimestampInvalid(t *testing.T) {
	_, err := ParseTimestamp("yesterday")
	require.ErrorContains(t, err, "yesterday")
}

func TestConvertDateIfEpochRequiresCanonicalNumber(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("007", ConvertDateIfEpoch("007"))
	assert.Equal("01704067200", ConvertDateIfEpoch("01704067200"))
	assert.Equal("+1704067200", ConvertDateIfEpoch("+1704067200"))
	assert.False(isEpoch("007"))
	assert.True(isEpoch("7"))
}
