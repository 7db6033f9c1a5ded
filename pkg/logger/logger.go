package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process-wide logger. An unparseable level falls back
// to info.
func New(level string) *logrus.Logger {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}

	logger := logrus.New()
	logger.SetLevel(parsed)
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   true,
	})
	return logger
}

// WithComponent returns an entry tagged with the component name, so log
// lines from the pipeline, dispatcher and schedulers can be told apart.
func WithComponent(logger *logrus.Logger, component string) *logrus.Entry {
	return logger.WithField("component", component)
}
