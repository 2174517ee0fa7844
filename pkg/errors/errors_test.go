package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		msg      string
		expected string
	}{
		{
			name:     "wrap nil error",
			err:      nil,
			msg:      "fetching boot.img",
			expected: "",
		},
		{
			name:     "wrap sentinel",
			err:      ErrDownloadFailed,
			msg:      "fetching boot.img",
			expected: "fetching boot.img: download failed",
		},
		{
			name:     "wrap with empty message",
			err:      errors.New("connection reset"),
			msg:      "",
			expected: ": connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Wrap(tt.err, tt.msg)
			if tt.err == nil {
				assert.NoError(t, result)
				return
			}
			require.Error(t, result)
			assert.Equal(t, tt.expected, result.Error())
			assert.ErrorIs(t, result, tt.err)
		})
	}
}

func TestWrapf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		format   string
		args     []interface{}
		expected string
	}{
		{
			name:     "wrapf nil error",
			format:   "artifact %s",
			args:     []interface{}{"system.img"},
			expected: "",
		},
		{
			name:     "wrapf with multiple args",
			err:      ErrIntegrityFailed,
			format:   "artifact %s (%d lines)",
			args:     []interface{}{"system.img", 2},
			expected: "artifact system.img (2 lines): integrity check failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Wrapf(tt.err, tt.format, tt.args...)
			if tt.err == nil {
				assert.NoError(t, result)
				return
			}
			require.Error(t, result)
			assert.Equal(t, tt.expected, result.Error())
			assert.ErrorIs(t, result, tt.err)
		})
	}
}

func TestErrorKindsAreDistinct(t *testing.T) {
	kinds := []error{ErrInvalidConfiguration, ErrDownloadFailed, ErrIntegrityFailed}
	for i, a := range kinds {
		for j, b := range kinds {
			if i == j {
				continue
			}
			assert.NotErrorIs(t, a, b)
		}
	}
}

func TestDetailHelpers(t *testing.T) {
	err := ErrUnknownDeviceWithDetails("hammerhead", []string{"mako", "manta"})
	assert.ErrorIs(t, err, ErrUnknownDevice)
	assert.Contains(t, err.Error(), "hammerhead")
	assert.Contains(t, err.Error(), "mako")

	err = ErrInvalidLogLevelWithDetails("loud")
	assert.ErrorIs(t, err, ErrInvalidLogLevel)
	assert.Contains(t, err.Error(), "'loud'")
}
