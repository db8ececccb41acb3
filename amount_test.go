package cntool

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseLovelace(t *testing.T) {
	cases := []struct {
		in       string
		expected uint64
	}{
		{"0.000001", 1},
		{"1", 1_000_000},
		{"1.5", 1_500_000},
		{"45.almost", 0},
		{"12,345", 12_345_000_000},
		{" 2.25 ", 2_250_000},
		{".5", 500_000},
		{"3.", 3_000_000},
		{"1.9999999", 1_999_999}, // truncated, never rounded
		{"0", 0},
	}

	for _, c := range cases {
		lovelace, sendAll, err := ParseLovelace(c.in)
		if c.in == "45.almost" {
			assert.True(t, errors.Is(err, ErrInvalidAmount), c.in)
			continue
		}
		assert.Nil(t, err, c.in)
		assert.False(t, sendAll, c.in)
		assert.Equal(t, c.expected, lovelace, c.in)
	}
}

func TestParseLovelaceSendAll(t *testing.T) {
	for _, in := range []string{"all", "ALL", " All "} {
		_, sendAll, err := ParseLovelace(in)
		assert.Nil(t, err, in)
		assert.True(t, sendAll, in)
	}
}

func TestParseLovelaceInvalid(t *testing.T) {
	for _, in := range []string{"", "-1", "+2", "1.2.3", "one", "."} {
		_, _, err := ParseLovelace(in)
		assert.True(t, errors.Is(err, ErrInvalidAmount), in)
	}
}

func TestFormatAda(t *testing.T) {
	assert.Equal(t, "1", FormatAda(1_000_000))
	assert.Equal(t, "1.5", FormatAda(1_500_000))
	assert.Equal(t, "0.000001", FormatAda(1))
	assert.Equal(t, "0", FormatAda(0))
	assert.Equal(t, "12345.000789", FormatAda(12_345_000_789))
}
