package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{
			name:     "ISO date",
			input:    "2024-01-01",
			expected: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Register date",
			input:    "15/03/1932",
			expected: time.Date(1932, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Register date without padding",
			input:    " 5/3/1932 ",
			expected: time.Date(1932, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "Invalid day",
			input:   "2026-01-32",
			wantErr: true,
		},
		{
			name:    "Dashed day first",
			input:   "27-01-2026",
			wantErr: true,
		},
		{
			name:    "Empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestParseOptionalDate(t *testing.T) {
	got, err := ParseOptionalDate("  ")
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseOptionalDate("2024-06-30")
	assert.NoError(t, err)
	if assert.NotNil(t, got) {
		assert.Equal(t, time.June, got.Month())
	}

	_, err = ParseOptionalDate("June 30")
	assert.Error(t, err)
}
