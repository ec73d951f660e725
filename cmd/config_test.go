package cmd

import (
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"taptree.dev/pkg/taptree/internal/domain"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "taptree", configBaseName)
	assert.Equal(t, "taptree.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "output.dir", outputDirKey)
	assert.Equal(t, "output.flat", outputFlatKey)
	assert.Equal(t, "clean.deny", cleanDenyKey)
	assert.Equal(t, "summary.parallel", summaryParallelKey)
	assert.Equal(t, "TAPTREE", envPrefix)
	assert.Equal(t, ".taptree.log", defaultLogFilename)
}

func TestConfigVersionConstants(t *testing.T) {
	assert.Equal(t, "version", configVersionKey)
	assert.Equal(t, 1, currentConfigVersion)
}

func TestConfigDefaults(t *testing.T) {
	assert.Equal(t, "yaml", viper.GetString(outputFormatKey))
	assert.Equal(t, domain.DefaultParallel, viper.GetInt(summaryParallelKey))
	assert.True(t, viper.GetBool(summaryPagerKey))
	assert.False(t, viper.GetBool(parseStrictKey))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TAPTREE_OUTPUT_FORMAT", "json")
	t.Setenv("TAPTREE_PARSE_STRICT", "true")

	assert.Equal(t, "json", viper.GetString(outputFormatKey))
	assert.True(t, viper.GetBool(parseStrictKey))
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelWarn},
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"loud", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelWarn))
		})
	}
}
