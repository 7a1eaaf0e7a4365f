package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvist-dev/bronzeload/internal/config"
	"github.com/kvist-dev/bronzeload/pkg/bronzeload"
)

func TestResolveConnectionParams_ConnectionStringFlag(t *testing.T) {
	cfg, err := ResolveConnectionParams(
		"postgresql://loader@db.internal:5433/analytics?sslmode=require",
		nil, nil, &EnvVars{}, nil,
	)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 5433, cfg.Port)
	assert.Equal(t, "analytics", cfg.Database)
	assert.Equal(t, "require", cfg.SSLMode)
}

func TestResolveConnectionParams_ConflictingFlags(t *testing.T) {
	_, err := ResolveConnectionParams(
		"postgresql://localhost/db",
		&GranularConnFlags{Host: "otherhost"},
		nil, &EnvVars{}, nil,
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, bronzeload.ErrInvalidConfig)
}

func TestResolveConnectionParams_EnvConnectionString(t *testing.T) {
	env := &EnvVars{DATABASE_URL: "postgresql://envuser@envhost:6000/envdb"}

	cfg, err := ResolveConnectionParams("", nil, nil, env, nil)
	require.NoError(t, err)

	assert.Equal(t, "envhost", cfg.Host)
	assert.Equal(t, 6000, cfg.Port)
	assert.Equal(t, "envuser", cfg.Username)
}

func TestResolveConnectionParams_BronzeloadEnvWinsOverDatabaseURL(t *testing.T) {
	env := &EnvVars{
		BRONZELOAD_CONNECTION_STRING: "postgresql://primary@primaryhost/db1",
		DATABASE_URL:                 "postgresql://fallback@fallbackhost/db2",
	}

	cfg, err := ResolveConnectionParams("", nil, nil, env, nil)
	require.NoError(t, err)
	assert.Equal(t, "primaryhost", cfg.Host)
}

func TestResolveConnectionParams_GranularFlagsBeatEnv(t *testing.T) {
	env := &EnvVars{PGHOST: "envhost", PGPORT: "6000", PGUSER: "envuser", PGPASSWORD: "envpass"}
	flags := &GranularConnFlags{Host: "flaghost", Username: "flaguser"}

	cfg, err := ResolveConnectionParams("", flags, nil, env, nil)
	require.NoError(t, err)

	assert.Equal(t, "flaghost", cfg.Host)
	assert.Equal(t, "flaguser", cfg.Username)
	// Unflagged parameters fall back to the environment.
	assert.Equal(t, 6000, cfg.Port)
	assert.Equal(t, "envpass", cfg.Password)
}

func TestResolveConnectionParams_YamlFallback(t *testing.T) {
	projectConfig := &config.ProjectConfig{
		Connection: config.ConnectionConfig{
			Host:     "yamlhost",
			Port:     5444,
			Username: "yamluser",
			Database: "warehouse",
			SSLMode:  "verify-full",
		},
	}

	cfg, err := ResolveConnectionParams("", &GranularConnFlags{}, nil, &EnvVars{}, projectConfig)
	require.NoError(t, err)

	assert.Equal(t, "yamlhost", cfg.Host)
	assert.Equal(t, 5444, cfg.Port)
	assert.Equal(t, "yamluser", cfg.Username)
	assert.Equal(t, "warehouse", cfg.Database)
	assert.Equal(t, "verify-full", cfg.SSLMode)
}

func TestResolveConnectionParams_Defaults(t *testing.T) {
	cfg, err := ResolveConnectionParams("", &GranularConnFlags{}, nil, &EnvVars{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "prefer", cfg.SSLMode)
}

func TestResolveConnectionParams_InvalidPGPORT(t *testing.T) {
	env := &EnvVars{PGPORT: "not-a-number"}

	_, err := ResolveConnectionParams("", &GranularConnFlags{}, nil, env, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, bronzeload.ErrInvalidConfig)
}

func TestResolveConnectionParams_AzureFromEnv(t *testing.T) {
	env := &EnvVars{
		AZURE_TENANT_ID:     "tenant-1",
		AZURE_CLIENT_ID:     "client-1",
		AZURE_CLIENT_SECRET: "secret-1",
	}

	cfg, err := ResolveConnectionParams("postgresql://loader@host/db", nil, nil, env, nil)
	require.NoError(t, err)

	assert.Equal(t, bronzeload.AuthMethodAzureEntraID, cfg.AuthMethod)
	assert.Equal(t, "tenant-1", cfg.AzureTenantID)
	assert.Equal(t, "client-1", cfg.AzureClientID)
	assert.Equal(t, "secret-1", cfg.AzureClientSecret)
}

func TestResolveConnectionParams_AzureFlagsBeatEnv(t *testing.T) {
	env := &EnvVars{AZURE_TENANT_ID: "env-tenant", AZURE_CLIENT_ID: "env-client"}
	flags := &AzureFlags{TenantID: "flag-tenant"}

	cfg, err := ResolveConnectionParams("postgresql://loader@host/db", nil, flags, env, nil)
	require.NoError(t, err)

	assert.Equal(t, "flag-tenant", cfg.AzureTenantID)
	assert.Equal(t, "env-client", cfg.AzureClientID)
}

func TestResolveConnectionParams_CloudFieldsFromYaml(t *testing.T) {
	projectConfig := &config.ProjectConfig{
		Connection: config.ConnectionConfig{
			Host:           "db.internal",
			AWSRegion:      "eu-north-1",
			GoogleInstance: "proj:region:inst",
		},
	}

	cfg, err := ResolveConnectionParams("", &GranularConnFlags{}, nil, &EnvVars{}, projectConfig)
	require.NoError(t, err)

	assert.Equal(t, "eu-north-1", cfg.AWSRegion)
	assert.Equal(t, "proj:region:inst", cfg.GoogleInstance)
}
