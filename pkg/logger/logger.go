package logger

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options selects the output format and level
type Options struct {
	Environment string
	Level       string
}

// Init configures the global zerolog logger.
// Production writes JSON at info level; anything else gets a console writer with callers.
func Init(opts Options) {
	if opts.Environment == "production" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	} else {
		log.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Caller().Logger()
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	if opts.Level != "" {
		if lvl, err := zerolog.ParseLevel(opts.Level); err == nil {
			log.Logger = log.Logger.Level(lvl)
		}
	}
}

// Info starts an info level event on the global logger
func Info() *zerolog.Event {
	return log.Info()
}

// Warn starts a warning event on the global logger
func Warn() *zerolog.Event {
	return log.Warn()
}

// Error starts an error event on the global logger. Callers decide whether to exit.
func Error() *zerolog.Event {
	return log.Error()
}
