// Package logger builds the logrus logger threaded through phablet's commands.
// There is no package-level logger: callers pass the one returned by New.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/glorpus-work/phablet/pkg/errors"
)

// New creates a logger writing to out (stderr when nil) at the given level.
func New(logLevel string, noColor bool, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		return nil, errors.ErrInvalidLogLevelWithDetails(logLevel)
	}
	if out == nil {
		out = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)

	if noColor {
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: false,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   true,
			FullTimestamp: false,
		})
	}
	return logger, nil
}

// Success logs a success message as info with success indicator.
func Success(log logrus.FieldLogger, msg string, fields ...logrus.Fields) {
	merged := mergeFields(fields...)
	merged["status"] = "success"
	log.WithFields(merged).Info(msg)
}

// mergeFields merges multiple logrus.Fields into one.
func mergeFields(fields ...logrus.Fields) logrus.Fields {
	result := make(logrus.Fields)
	for _, field := range fields {
		for k, v := range field {
			result[k] = v
		}
	}
	return result
}
