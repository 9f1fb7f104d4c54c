package logging_test

import (
	"testing"

	"github.com/arthur-debert/scenariotest/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetupLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		want      zerolog.Level
	}{
		{"default_warn", 0, zerolog.WarnLevel},
		{"verbose_info", 1, zerolog.InfoLevel},
		{"very_verbose_debug", 2, zerolog.DebugLevel},
		{"trace_above_two", 5, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logging.SetupLogger(tt.verbosity)
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestGetLoggerAttachesComponent(t *testing.T) {
	logger := logging.GetLogger("comparator")
	// The component field is attached lazily; just ensure the logger is usable.
	logger.Debug().Msg("component logger works")
}
