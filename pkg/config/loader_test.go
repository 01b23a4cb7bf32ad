package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Port     int           `env:"SAMPLE_PORT" envDefault:"8080"`
	LogLevel string        `env:"SAMPLE_LOG_LEVEL" envDefault:"info"`
	Timeout  time.Duration `env:"SAMPLE_TIMEOUT" envDefault:"30s"`
	Brokers  []string      `env:"SAMPLE_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	APIKey   string        `env:"SAMPLE_API_KEY,required"`
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SAMPLE_API_KEY", "secret")

	var cfg sampleConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, "secret", cfg.APIKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SAMPLE_API_KEY", "secret")
	t.Setenv("SAMPLE_PORT", "9090")
	t.Setenv("SAMPLE_LOG_LEVEL", "debug")
	t.Setenv("SAMPLE_TIMEOUT", "5s")
	t.Setenv("SAMPLE_BROKERS", "kafka-1:9092,kafka-2:9092")

	var cfg sampleConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
}

func TestLoad_RequiredMissing(t *testing.T) {
	var cfg sampleConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("SAMPLE_API_KEY", "secret")
	t.Setenv("SAMPLE_PORT", "not-a-number")

	var cfg sampleConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
