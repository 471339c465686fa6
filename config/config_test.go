package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":5000", cfg.Addr)
	assert.Equal(t, 10, cfg.MaxIterations)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
}

func TestLoader_Precedence(t *testing.T) {
	l := NewLoader().WithConfigPath("testdata/server.yaml")
	l.lookupEnv = envMap(map[string]string{
		"AGENTROOM_ADDR":             ":9090",
		"AGENTROOM_MAX_ITERATIONS":   "3",
		"AGENTROOM_SHUTDOWN_TIMEOUT": "2s",
		"AGENTROOM_API_KEY":          "",
	})

	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "./rooms", cfg.RoomsDir)
	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, "llama3.2", cfg.Model)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.MaxIterations)
	assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.APIKey)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	l := NewLoader().WithConfigPath("testdata/nope.yaml")
	l.lookupEnv = envMap(nil)

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_Errors(t *testing.T) {
	t.Run("bad int", func(t *testing.T) {
		l := NewLoader()
		l.lookupEnv = envMap(map[string]string{"AGENTROOM_MAX_ITERATIONS": "many"})

		_, err := l.Load()
		assert.ErrorContains(t, err, "AGENTROOM_MAX_ITERATIONS")
	})

	t.Run("invalid values", func(t *testing.T) {
		l := NewLoader().WithEnvPrefix("TEST")
		l.lookupEnv = envMap(map[string]string{
			"TEST_PROVIDER":  "skynet",
			"TEST_LOG_LEVEL": "loud",
		})

		_, err := l.Load()
		require.Error(t, err)
		assert.ErrorContains(t, err, "provider")
		assert.ErrorContains(t, err, "log_level")
	})
}
