package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kvist-dev/bronzeload/pkg/bronzeload"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConnectionConfig is the optional connection block of bronzeload.yaml.
// CLI flags and environment variables take precedence over these values.
type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

// Defaults holds deployment-level policy overrides.
type Defaults struct {
	// MaxRejectedLines overrides bronzeload.DefaultMaxRejectedLines.
	MaxRejectedLines *int `yaml:"max_rejected_lines,omitempty"`

	// Timeout overrides the run timeout, e.g. "10m".
	Timeout string `yaml:"timeout,omitempty"`
}

// TableConfig is one entry of the load registry as written in
// bronzeload.yaml. Header and Active default to true when omitted;
// Delimiter defaults to a comma.
type TableConfig struct {
	LoadOrder   int    `yaml:"load_order"`
	Schema      string `yaml:"schema"`
	Table       string `yaml:"table"`
	SourceGroup string `yaml:"source_group"`
	File        string `yaml:"file"`
	Header      *bool  `yaml:"header,omitempty"`
	Delimiter   string `yaml:"delimiter,omitempty"`
	Active      *bool  `yaml:"active,omitempty"`
}

// ProjectConfig is the parsed bronzeload.yaml: the static registry
// definition plus optional connection and policy blocks. The registry is
// a deployment artifact; it is read fresh at the start of each run and is
// not editable through any runtime API.
type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Defaults   Defaults         `yaml:"defaults"`
	Tables     []TableConfig    `yaml:"tables"`
}

const ConfigFileName = "bronzeload.yaml"

// Load reads bronzeload.yaml from the given base path.
func Load(basePath string) (*ProjectConfig, error) {
	configPath := filepath.Join(basePath, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", configPath, ErrConfigNotFound)
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}
	return &cfg, nil
}

// Entries converts the tables block into load entries, applying defaults.
// Per-entry and cross-entry validation happens in the registry.
func (c *ProjectConfig) Entries() []bronzeload.LoadEntry {
	entries := make([]bronzeload.LoadEntry, 0, len(c.Tables))
	for _, t := range c.Tables {
		delimiter := t.Delimiter
		if delimiter == "" {
			delimiter = ","
		}
		entries = append(entries, bronzeload.LoadEntry{
			LoadOrder:         t.LoadOrder,
			DestinationSchema: t.Schema,
			DestinationTable:  t.Table,
			SourceGroup:       t.SourceGroup,
			FileName:          t.File,
			HasHeader:         t.Header == nil || *t.Header,
			FieldDelimiter:    delimiter,
			IsActive:          t.Active == nil || *t.Active,
		})
	}
	return entries
}

// MaxRejectedLines returns the deployment override or the package default.
func (c *ProjectConfig) MaxRejectedLines() int {
	if c.Defaults.MaxRejectedLines != nil {
		return *c.Defaults.MaxRejectedLines
	}
	return bronzeload.DefaultMaxRejectedLines
}

// Timeout returns the deployment timeout override, or zero when unset.
func (c *ProjectConfig) Timeout() (time.Duration, error) {
	if c.Defaults.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Defaults.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout in %s: %w", ConfigFileName, err)
	}
	return d, nil
}
