package logging

import (
	"testing"

	"github.com/harperreed/dealdesk/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"debug", true},
		{"INFO", false},
		{"nonsense", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := New(config.LogConfig{Level: tt.level, Encoding: "json"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, logger.Core().Enabled(zap.DebugLevel))
			assert.True(t, logger.Core().Enabled(zap.InfoLevel))
		})
	}
}
