// Package logsetup constructs the keeper's logger. Components receive
// *logrus.Entry values derived from the one logger built here; nothing else
// in the repo touches global logging state.
package logsetup

import (
	"fmt"
	"time"

	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
)

// Config controls log output.
type Config struct {
	// Verbosity: 0=fatal, 1=error, 2=warn, 3=info, 4=debug, 5=trace.
	Verbosity int

	// JSON switches from the text formatter to JSON output.
	JSON bool

	// SentryDSN, when set, forwards error-and-above entries to Sentry.
	SentryDSN string
}

// New builds a logger from the config.
func New(cfg Config) (*logrus.Logger, error) {
	log := logrus.New()

	switch cfg.Verbosity {
	case 0:
		log.SetLevel(logrus.FatalLevel)
	case 1:
		log.SetLevel(logrus.ErrorLevel)
	case 2:
		log.SetLevel(logrus.WarnLevel)
	case 3:
		log.SetLevel(logrus.InfoLevel)
	case 4:
		log.SetLevel(logrus.DebugLevel)
	case 5:
		log.SetLevel(logrus.TraceLevel)
	default:
		return nil, fmt.Errorf("log verbosity %d out of range 0..5", cfg.Verbosity)
	}

	if cfg.JSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.SentryDSN != "" {
		hook, err := logrus_sentry.NewSentryHook(cfg.SentryDSN, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			return nil, fmt.Errorf("sentry hook: %w", err)
		}
		hook.Timeout = 5 * time.Second
		log.AddHook(hook)
	}

	return log, nil
}
