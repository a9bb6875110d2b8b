// Package logger adapts zerolog to the logging interfaces of third party clients.
package logger

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// Logger writes the messages of a retryablehttp client as debug logs. Retries are worth a warning, since they
// slow down device farm calls.
type Logger struct{}

func (*Logger) Printf(format string, v ...interface{}) {
	if strings.Contains(format, "retrying") {
		log.Warn().Msgf(format, v...)
		return
	}
	log.Debug().Msgf(format, v...)
}
