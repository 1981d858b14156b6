package logger

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// L is the process-wide logger. Init replaces its level and formatter.
var L = logrus.New()

// Init configures L. Unknown levels fall back to info, unknown formats to text.
func Init(level, format string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
		L.WithField("configured_level", level).Warn("invalid LOG_LEVEL, defaulting to info")
	}
	L.SetLevel(lvl)
	L.SetOutput(os.Stderr)

	switch strings.ToLower(format) {
	case "json":
		L.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		L.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}

// WithComponent returns an entry tagged with the component name.
func WithComponent(component string) *logrus.Entry {
	return L.WithField("component", component)
}
