// Package config reads pmcdash settings from a config file, the environment
// and built-in defaults.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/osc-library/pmcdash/identity"
)

// EnvPrefix is prepended to environment variable names, e.g. PMCDASH_DATA_DIR.
const EnvPrefix = "PMCDASH"

// Config is the resolved configuration of a run.
type Config struct {
	DataDir     string            `mapstructure:"data_dir"`
	Identity    IdentityConfig    `mapstructure:"identity"`
	Classifier  ClassifierConfig  `mapstructure:"classifier"`
	Schools     SchoolsConfig     `mapstructure:"schools"`
	Aliases     []identity.Alias  `mapstructure:"aliases"`
	Archive     ArchiveConfig     `mapstructure:"archive"`
	Citation    CitationConfig    `mapstructure:"citation"`
	License     LicenseConfig     `mapstructure:"license"`
	Attachments AttachmentsConfig `mapstructure:"attachments"`
	Batch       BatchConfig       `mapstructure:"batch"`
}

// IdentityConfig configures the identity service client.
type IdentityConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Rate      float64       `mapstructure:"rate"`
	Burst     int           `mapstructure:"burst"`
	Threshold float64       `mapstructure:"threshold"`
}

// ClassifierConfig points at rule and department files. Empty paths use the
// embedded defaults.
type ClassifierConfig struct {
	RulesFile       string `mapstructure:"rules_file"`
	DepartmentsFile string `mapstructure:"departments_file"`
}

// SchoolsConfig holds the archive→directory unit code table.
type SchoolsConfig struct {
	CodeTable map[string]string `mapstructure:"code_table"`
}

// ArchiveConfig selects where known archive identifiers come from.
type ArchiveConfig struct {
	DSN    string `mapstructure:"dsn"`
	TSVDir string `mapstructure:"tsv_dir"`
}

// CitationConfig controls the issue placeholder used when an article has none.
type CitationConfig struct {
	DefaultIssue bool   `mapstructure:"default_issue"`
	IssueValue   string `mapstructure:"issue_value"`
}

// LicenseConfig controls license assignment. Articles of OpenAccessUnits get
// the OpenAccess license only when EnableOpenAccess is set.
type LicenseConfig struct {
	Default          string   `mapstructure:"default"`
	OpenAccess       string   `mapstructure:"open_access"`
	OpenAccessUnits  []string `mapstructure:"open_access_units"`
	EnableOpenAccess bool     `mapstructure:"enable_open_access"`
}

// AttachmentsConfig controls full-text downloads.
type AttachmentsConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	MinDelay time.Duration `mapstructure:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// BatchConfig feeds the monthly batch builder.
type BatchConfig struct {
	OAIURL         string `mapstructure:"oai_url"`
	HarvestCommand string `mapstructure:"harvest_command"`
	RsyncTarget    string `mapstructure:"rsync_target"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")

	v.SetDefault("identity.url", identity.DefaultURL)
	v.SetDefault("identity.timeout", 30*time.Second)
	v.SetDefault("identity.rate", 2.0)
	v.SetDefault("identity.burst", 1)
	v.SetDefault("identity.threshold", identity.DefaultThreshold)

	v.SetDefault("classifier.rules_file", "")
	v.SetDefault("classifier.departments_file", "")

	v.SetDefault("archive.dsn", "")
	v.SetDefault("archive.tsv_dir", "")

	v.SetDefault("citation.default_issue", true)
	v.SetDefault("citation.issue_value", "1")

	v.SetDefault("license.default", "LAA")
	v.SetDefault("license.open_access", "OAP")
	v.SetDefault("license.open_access_units", []string{"FAS", "GSE", "HLS"})
	v.SetDefault("license.enable_open_access", false)

	v.SetDefault("attachments.base_url", "http://www.ncbi.nlm.nih.gov/pmc/articles")
	v.SetDefault("attachments.min_delay", 3*time.Second)
	v.SetDefault("attachments.max_delay", 6*time.Second)
	v.SetDefault("attachments.timeout", 2*time.Minute)

	v.SetDefault("batch.oai_url", "http://www.ncbi.nlm.nih.gov/pmc/oai/oai.cgi")
	v.SetDefault("batch.harvest_command", "oai-harvest")
	v.SetDefault("batch.rsync_target", "dspace@turner.lib.harvard.edu:/home/dspace/import")
}

// BindEnv makes every key readable from PMCDASH_* environment variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes v into a Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	// viper lowercases map keys; unit codes are upper case
	if len(cfg.Schools.CodeTable) > 0 {
		codes := make(map[string]string, len(cfg.Schools.CodeTable))
		for archive, directory := range cfg.Schools.CodeTable {
			codes[strings.ToUpper(archive)] = strings.ToUpper(directory)
		}
		cfg.Schools.CodeTable = codes
	}

	if cfg.Identity.Threshold < 0 || cfg.Identity.Threshold > 1 {
		return nil, fmt.Errorf("identity.threshold must be within [0, 1], got %v", cfg.Identity.Threshold)
	}
	if cfg.Attachments.MaxDelay < cfg.Attachments.MinDelay {
		return nil, fmt.Errorf("attachments.max_delay (%s) is less than attachments.min_delay (%s)", cfg.Attachments.MaxDelay, cfg.Attachments.MinDelay)
	}
	return &cfg, nil
}

// BatchDir returns the working directory of a batch.
func (c *Config) BatchDir(batch string) string {
	return filepath.Join(c.DataDir, "batch", batch)
}

// TSVDir returns the directory holding archive TSV exports, defaulting to
// {data_dir}/dash.
func (c *Config) TSVDir() string {
	if c.Archive.TSVDir != "" {
		return c.Archive.TSVDir
	}
	return filepath.Join(c.DataDir, "dash")
}

// LicensesDir returns the directory of license texts.
func (c *Config) LicensesDir() string {
	return filepath.Join(c.DataDir, "licenses")
}

// AliasTable returns the configured name aliases, or the built-in table when
// none are configured.
func (c *Config) AliasTable() identity.Aliases {
	if len(c.Aliases) == 0 {
		return identity.DefaultAliases()
	}
	return identity.NewAliases(c.Aliases)
}

// IdentityClient returns the client configuration for the identity service.
func (c *Config) IdentityClient() identity.ClientConfig {
	return identity.ClientConfig{
		BaseURL:           c.Identity.URL,
		Timeout:           c.Identity.Timeout,
		RequestsPerSecond: c.Identity.Rate,
		Burst:             c.Identity.Burst,
	}
}
