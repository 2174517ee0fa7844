package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/phablet/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFn    func(l *logrus.Logger)
		contains []string
		excludes []string
	}{
		{
			name:     "info log",
			level:    "info",
			logFn:    func(l *logrus.Logger) { l.Info("test info message") },
			contains: []string{"test info message", "level=info"},
		},
		{
			name:     "debug log with debug level",
			level:    "DEBUG",
			logFn:    func(l *logrus.Logger) { l.Debug("test debug message") },
			contains: []string{"test debug message", "level=debug"},
		},
		{
			name:     "debug log with info level",
			level:    "info",
			logFn:    func(l *logrus.Logger) { l.Debug("test debug message") },
			excludes: []string{"test debug message"},
		},
		{
			name:     "fields",
			level:    "info",
			logFn:    func(l *logrus.Logger) { l.WithField("artifact", "boot.img").Warn("stale") },
			contains: []string{"artifact=boot.img", "level=warning"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			l, err := New(tt.level, true, buf)
			require.NoError(t, err)

			tt.logFn(l)

			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("verbose", false, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidLogLevel)
}

func TestNew_Colors(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := New("info", false, buf)
	require.NoError(t, err)
	l.Info("colored")
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := New("info", true, buf)
	require.NoError(t, err)

	Success(l, "download complete", logrus.Fields{"artifacts": 3})
	assert.Contains(t, buf.String(), "status=success")
	assert.Contains(t, buf.String(), "artifacts=3")
	assert.Contains(t, buf.String(), "download complete")
}
