package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"URL", "USERNAME", "PASSWORD", "X509_VERIFY", "API_VERSION", "TIMEOUT", "RETRIES", "CONFIG"} {
		t.Setenv(EnvPrefix+key, "")
	}
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := New(filepath.Join(t.TempDir(), "nexus-cli"))

	assert.Equal(t, DefaultURL, cfg.URL)
	assert.Equal(t, DefaultUsername, cfg.Username)
	assert.Equal(t, DefaultPassword, cfg.Password)
	assert.True(t, cfg.X509Verify)
	assert.Equal(t, "v1", cfg.APIVersion)
	assert.Equal(t, DefaultTimeout, cfg.Timeout.Duration())
	assert.Equal(t, "http://localhost:8081/service/rest/v1/", cfg.RESTURL())
}

func TestLoad_Missing(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSaveAndLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "nexus-cli")

	cfg := New(path)
	cfg.URL = "https://nexus.example.com:8443/"
	cfg.Username = "deployer"
	cfg.Password = "s3cr3t"
	cfg.X509Verify = false
	cfg.Retries = 2
	require.NoError(t, cfg.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	env, err := os.ReadFile(cfg.EnvFile())
	require.NoError(t, err)
	assert.Contains(t, string(env), `export NEXUS3_URL="https://nexus.example.com:8443/"`)
	assert.Contains(t, string(env), `export NEXUS3_X509_VERIFY="false"`)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://nexus.example.com:8443/", loaded.URL)
	assert.Equal(t, "deployer", loaded.Username)
	assert.Equal(t, "s3cr3t", loaded.Password)
	assert.False(t, loaded.X509Verify)
	assert.Equal(t, 2, loaded.Retries)
	assert.Equal(t, "https://nexus.example.com:8443/service/rest/v1/", loaded.RESTURL())
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nexus-cli")
	content := "url: http://repo:8081\nusername: ci\npassword: pw\nx509_verify: true\napi_version: beta\ntimeout: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	t.Setenv("NEXUS3_USERNAME", "override")
	t.Setenv("NEXUS3_X509_VERIFY", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://repo:8081", cfg.URL)
	assert.Equal(t, "override", cfg.Username)
	assert.False(t, cfg.X509Verify)
	assert.Equal(t, "beta", cfg.APIVersion)
	assert.Equal(t, 5*time.Second, cfg.Timeout.Duration())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		shouldError bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "ftp scheme", mutate: func(c *Config) { c.URL = "ftp://host" }, shouldError: true},
		{name: "no host", mutate: func(c *Config) { c.URL = "http://" }, shouldError: true},
		{name: "bad api version", mutate: func(c *Config) { c.APIVersion = "v2" }, shouldError: true},
		{name: "beta api", mutate: func(c *Config) { c.APIVersion = "beta" }},
		{name: "negative retries", mutate: func(c *Config) { c.Retries = -1 }, shouldError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New("unused")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.shouldError {
				assert.ErrorIs(t, err, ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("NEXUS3_TIMEOUT", "45")
	assert.Equal(t, 45*time.Second, getEnvDuration("TIMEOUT", time.Second))

	t.Setenv("NEXUS3_TIMEOUT", "2m")
	assert.Equal(t, 2*time.Minute, getEnvDuration("TIMEOUT", time.Second))

	t.Setenv("NEXUS3_TIMEOUT", "soon")
	assert.Equal(t, time.Second, getEnvDuration("TIMEOUT", time.Second))
}
