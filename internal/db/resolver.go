package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/kvist-dev/bronzeload/internal/config"
	"github.com/kvist-dev/bronzeload/pkg/bronzeload"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Note: Password is NOT included as a CLI flag for security reasons.
// Use one of these methods instead:
//  1. $PGPASSWORD environment variable
//  2. .pgpass file (PostgreSQL standard)
//  3. Connection string with embedded password
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were
// provided. The database flag is excluded because it can override the
// database of a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// AzureFlags represents Azure Entra ID CLI flags.
// These override the corresponding AZURE_* environment variables.
// Note: Client secret is NOT included as a CLI flag for security reasons.
// Use AZURE_CLIENT_SECRET environment variable instead.
type AzureFlags struct {
	TenantID string // Overrides AZURE_TENANT_ID
	ClientID string // Overrides AZURE_CLIENT_ID
}

// IsEmpty returns true if no Azure flags were provided.
func (a *AzureFlags) IsEmpty() bool {
	return a == nil || (a.TenantID == "" && a.ClientID == "")
}

// EnvVars represents PostgreSQL standard environment variables plus the
// loader's own overrides.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST     string // PostgreSQL server host
	PGPORT     string // PostgreSQL server port
	PGUSER     string // PostgreSQL username
	PGPASSWORD string // PostgreSQL password (discouraged, use .pgpass instead)
	PGDATABASE string // Default database name
	PGSSLMODE  string // SSL mode

	// Full connection string overrides. BRONZELOAD_CONNECTION_STRING is
	// checked first, then DATABASE_URL (Heroku/Rails convention).
	BRONZELOAD_CONNECTION_STRING string
	DATABASE_URL                 string

	// Azure Entra ID environment variables (Azure SDK standard names)
	AZURE_TENANT_ID     string // Azure AD tenant/directory ID
	AZURE_CLIENT_ID     string // Azure AD application/client ID
	AZURE_CLIENT_SECRET string // Azure AD client secret (for Service Principal auth)
}

// LoadFromEnvironment loads PostgreSQL and cloud provider environment
// variables following standard client behavior and Azure SDK conventions.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:                       os.Getenv("PGHOST"),
		PGPORT:                       os.Getenv("PGPORT"),
		PGUSER:                       os.Getenv("PGUSER"),
		PGPASSWORD:                   os.Getenv("PGPASSWORD"),
		PGDATABASE:                   os.Getenv("PGDATABASE"),
		PGSSLMODE:                    os.Getenv("PGSSLMODE"),
		BRONZELOAD_CONNECTION_STRING: os.Getenv("BRONZELOAD_CONNECTION_STRING"),
		DATABASE_URL:                 os.Getenv("DATABASE_URL"),
		AZURE_TENANT_ID:              os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:              os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:          os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// ConnStringFromEnv returns the environment connection string override,
// or empty when none is set.
func (e *EnvVars) ConnStringFromEnv() string {
	if e.BRONZELOAD_CONNECTION_STRING != "" {
		return e.BRONZELOAD_CONNECTION_STRING
	}
	return e.DATABASE_URL
}

// ResolveConnectionParams resolves connection parameters using
// PostgreSQL-standard precedence:
//
//  1. Connection string flag (--connection) - parse and use directly
//  2. Granular flags (-h, -p, -U, -d) - build config from flags
//  3. BRONZELOAD_CONNECTION_STRING / DATABASE_URL - if no granular flags
//  4. Environment variables (PGHOST, PGPORT, ...)
//  5. Connection block of bronzeload.yaml
//  6. Defaults (localhost:5432, prefer SSL)
//
// If azureFlags are provided OR Azure environment variables are set, the
// AuthMethod is switched to AzureEntraID and credentials are attached to
// the config. CLI flags take precedence over environment variables.
//
// Returns an error if BOTH --connection AND granular flags are provided;
// the combination is ambiguous.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	azureFlags *AzureFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*bronzeload.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if azureFlags == nil {
		azureFlags = &AzureFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U): %w\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/warehouse\"\n"+
				"  2. Granular flags: -h localhost -p 5432 -U myuser -d warehouse\n"+
				"  3. Environment variables: export PGHOST=localhost PGPORT=5432 PGUSER=myuser",
			bronzeload.ErrInvalidConfig,
		)
	}

	var cfg *bronzeload.ConnectionConfig
	var err error

	switch {
	case connStringFlag != "":
		cfg, err = resolveFromConnectionString(connStringFlag, envVars)
	case granularFlags.IsEmpty() && envVars.ConnStringFromEnv() != "":
		cfg, err = resolveFromConnectionString(envVars.ConnStringFromEnv(), envVars)
	default:
		cfg, err = resolveFromGranularParams(granularFlags, envVars, projectConfig)
	}

	if err != nil {
		return nil, err
	}

	applyAzureAuth(cfg, azureFlags, envVars)

	return cfg, nil
}

// applyAzureAuth sets Azure Entra ID authentication on the config if
// credentials are available. CLI flags take precedence over environment
// variables.
func applyAzureAuth(cfg *bronzeload.ConnectionConfig, flags *AzureFlags, env *EnvVars) {
	tenantID := flags.TenantID
	if tenantID == "" {
		tenantID = env.AZURE_TENANT_ID
	}

	clientID := flags.ClientID
	if clientID == "" {
		clientID = env.AZURE_CLIENT_ID
	}

	// Client secret only comes from env var (no flag for security)
	clientSecret := env.AZURE_CLIENT_SECRET

	if tenantID != "" || clientID != "" {
		cfg.AuthMethod = bronzeload.AuthMethodAzureEntraID
		cfg.AzureTenantID = tenantID
		cfg.AzureClientID = clientID
		cfg.AzureClientSecret = clientSecret
	}
}

// resolveFromConnectionString parses a connection string, applying
// environment fallbacks for parameters it does not specify (following
// PostgreSQL's libpq behavior).
func resolveFromConnectionString(connStr string, envVars *EnvVars) (*bronzeload.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	if cfg.SSLMode == "" && envVars != nil && envVars.PGSSLMODE != "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}

	return cfg, nil
}

// resolveFromGranularParams builds a ConnectionConfig from granular flags,
// environment variables and the bronzeload.yaml connection block, with
// per-parameter precedence flag > env > yaml > default.
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*bronzeload.ConnectionConfig, error) {
	cfg := &bronzeload.ConnectionConfig{
		AuthMethod:       bronzeload.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	cfg.Host = flags.Host
	if cfg.Host == "" {
		cfg.Host = envVars.PGHOST
	}
	if cfg.Host == "" {
		cfg.Host = pc.Host
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}

	if flags.Port != 0 {
		cfg.Port = flags.Port
	} else if envVars.PGPORT != "" {
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w",
				envVars.PGPORT, bronzeload.ErrInvalidConfig)
		}
		cfg.Port = port
	} else if pc.Port != 0 {
		cfg.Port = pc.Port
	} else {
		cfg.Port = 5432
	}

	cfg.Username = flags.Username
	if cfg.Username == "" {
		cfg.Username = envVars.PGUSER
	}
	if cfg.Username == "" {
		cfg.Username = pc.Username
	}
	if cfg.Username == "" {
		if currentUser := os.Getenv("USER"); currentUser != "" {
			cfg.Username = currentUser
		} else if currentUser := os.Getenv("USERNAME"); currentUser != "" {
			cfg.Username = currentUser
		}
	}

	cfg.Password = envVars.PGPASSWORD

	cfg.Database = flags.Database
	if cfg.Database == "" {
		cfg.Database = envVars.PGDATABASE
	}
	if cfg.Database == "" {
		cfg.Database = pc.Database
	}

	cfg.SSLMode = flags.SSLMode
	if cfg.SSLMode == "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = pc.SSLMode
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}

	cfg.AWSRegion = pc.AWSRegion
	cfg.GoogleInstance = pc.GoogleInstance

	return cfg, nil
}
