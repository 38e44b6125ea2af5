// Package config loads harness settings from a YAML file and the environment.
//
// Every key can be set through DIQA_<KEY> with dots replaced by underscores,
// for example DIQA_CLUSTER_ENDPOINT. The cluster credentials and the table
// suffix also accept the variable names of the older test app.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/cluster"
)

// Repository backends.
const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

// DefaultFileName is the config file looked up in the home directory.
const DefaultFileName = ".diqa.yaml"

// ErrClusterNotConfigured is returned by RequireCluster when endpoint or
// credentials are missing.
var ErrClusterNotConfigured = errors.New("cluster is not configured")

type Config struct {
	Cluster     ClusterConfig    `mapstructure:"cluster"`
	Poll        PollConfig       `mapstructure:"poll"`
	Store       StoreConfig      `mapstructure:"store"`
	Repository  RepositoryConfig `mapstructure:"repository"`
	TableSuffix string           `mapstructure:"table_suffix"`
}

type ClusterConfig struct {
	Name     string        `mapstructure:"name"`
	Endpoint string        `mapstructure:"endpoint"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Tenant   string        `mapstructure:"tenant"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type PollConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type RepositoryConfig struct {
	Backend string `mapstructure:"backend"`
	Space   string `mapstructure:"space"`
}

var defaults = map[string]any{
	"cluster.name":       "",
	"cluster.endpoint":   "",
	"cluster.user":       "",
	"cluster.password":   "",
	"cluster.tenant":     "default",
	"cluster.timeout":    "60s",
	"poll.interval":      "500ms",
	"poll.max_attempts":  600,
	"store.path":         "diqa.db",
	"repository.backend": BackendRemote,
	"repository.space":   "user",
	"table_suffix":       "",
}

// legacyEnv maps keys to the variable names of the older test app. The
// DIQA_ name takes precedence when both are set.
var legacyEnv = map[string]string{
	"cluster.endpoint": "VSYSTEM_ENDPOINT",
	"cluster.user":     "VORA_USERNAME",
	"cluster.password": "VORA_PASSWORD",
	"cluster.tenant":   "VORA_TENANT",
	"table_suffix":     "TABLE_SUFFIX",
}

// Load reads the config file at path and the environment. An empty path
// looks for $HOME/.diqa.yaml and ignores it when missing; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("DIQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, name := range legacyEnv {
		if err := v.BindEnv(key, "DIQA_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.SetConfigFile(filepath.Join(home, DefaultFileName))
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Repository.Backend != BackendRemote && c.Repository.Backend != BackendLocal {
		return fmt.Errorf("invalid repository backend: %s, must be 'remote' or 'local'", c.Repository.Backend)
	}
	if c.Repository.Space == "" {
		return fmt.Errorf("repository.space is required")
	}
	if c.Poll.Interval < 0 {
		return fmt.Errorf("invalid poll interval: %s", c.Poll.Interval)
	}
	if c.Poll.MaxAttempts < 1 {
		return fmt.Errorf("invalid poll max_attempts: %d", c.Poll.MaxAttempts)
	}
	if c.Cluster.Timeout <= 0 {
		return fmt.Errorf("invalid cluster timeout: %s", c.Cluster.Timeout)
	}
	return nil
}

// RequireCluster reports whether the cluster section is complete enough to log in.
func (c *Config) RequireCluster() error {
	var missing []string
	if c.Cluster.Endpoint == "" {
		missing = append(missing, "cluster.endpoint")
	}
	if c.Cluster.User == "" {
		missing = append(missing, "cluster.user")
	}
	if c.Cluster.Password == "" {
		missing = append(missing, "cluster.password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrClusterNotConfigured, strings.Join(missing, ", "))
	}
	return nil
}

// ConnectionData returns the cluster login data. The name defaults to the endpoint.
func (c *Config) ConnectionData() cluster.ConnectionData {
	name := c.Cluster.Name
	if name == "" {
		name = c.Cluster.Endpoint
	}
	return cluster.ConnectionData{
		Name:     name,
		BaseURL:  c.Cluster.Endpoint,
		Tenant:   c.Cluster.Tenant,
		User:     c.Cluster.User,
		Password: c.Cluster.Password,
	}
}
