package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the variables Load reads and restores them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "LOG_LEVEL", "LOG_FORMAT", "SESSION_TTL", "SWEEP_INTERVAL", "ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load([]string{"--env-file", missingEnvFile(t)})
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Port, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("PORT=9000\nLOG_LEVEL=warn\nLOG_FORMAT=json\n"), 0o600))

	t.Run("el fichero .env sobre los valores por defecto", func(t *testing.T) {
		cfg, err := Load([]string{"--env-file", envFile})
		require.NoError(t, err)
		assert.Equal(t, "9000", cfg.Port)
		assert.Equal(t, "json", cfg.LogFormat)
	})

	t.Run("el entorno sobre el fichero .env", func(t *testing.T) {
		t.Setenv("PORT", "9100")
		t.Setenv("SESSION_TTL", "5m")
		cfg, err := Load([]string{"--env-file", envFile})
		require.NoError(t, err)
		assert.Equal(t, "9100", cfg.Port)
		assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	})

	t.Run("los flags sobre el entorno", func(t *testing.T) {
		t.Setenv("PORT", "9100")
		t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
		cfg, err := Load([]string{"--env-file", envFile, "-p", "9200", "--log-level", "debug"})
		require.NoError(t, err)
		assert.Equal(t, "9200", cfg.Port)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	})
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "puerto inválido", args: []string{"--port", "abc"}},
		{name: "puerto fuera de rango", args: []string{"--port", "70000"}},
		{name: "ttl negativo", args: []string{"--session-ttl", "-1s"}},
		{name: "duración mal formada en el entorno", env: map[string]string{"SWEEP_INTERVAL": "soon"}},
		{name: "flag desconocido", args: []string{"--nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			args := append([]string{"--env-file", missingEnvFile(t)}, tt.args...)
			_, err := Load(args)
			assert.Error(t, err)
		})
	}
}

func TestOriginAllowed(t *testing.T) {
	open := Config{}
	assert.True(t, open.OriginAllowed("http://anything.example"))

	restricted := Config{AllowedOrigins: []string{"http://localhost:3000"}}
	assert.True(t, restricted.OriginAllowed("http://localhost:3000"))
	assert.True(t, restricted.OriginAllowed(""))
	assert.False(t, restricted.OriginAllowed("http://evil.example"))

	wildcard := Config{AllowedOrigins: []string{"*"}}
	assert.True(t, wildcard.OriginAllowed("http://evil.example"))
}
