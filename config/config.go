package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/ciyex-org/ciyex-platform-sdk/pkg/validator"
)

const (
	envPrefix     = "CIYEX"
	envConfigPath = "CIYEX_CONFIG"

	DefaultAPIURL = "http://localhost:8080"
)

var (
	once    sync.Once
	current *Config
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.addSource", false)

	v.SetDefault("platform.apiUrl", DefaultAPIURL)

	v.SetDefault("transport.timeout", "30s")
	v.SetDefault("transport.retryMax", 0)
	v.SetDefault("transport.retryWaitMin", "200ms")
	v.SetDefault("transport.retryWaitMax", "2s")

	v.SetDefault("gateway.listen", ":8080")
	v.SetDefault("gateway.publicUrl", DefaultAPIURL)
	v.SetDefault("gateway.dbPath", "./data/gateway.db")
	v.SetDefault("gateway.jwtSecret", "")
	v.SetDefault("gateway.maxExpiry", "168h")
	v.SetDefault("gateway.storage.type", "local")
	v.SetDefault("gateway.storage.local.root", "./data/objects")
	v.SetDefault("gateway.storage.storj.accessGrant", "")
	v.SetDefault("gateway.storage.storj.bucket", "")
}

// Load reads configuration from an optional YAML file and CIYEX_* environment
// variables (e.g. CIYEX_PLATFORM_APIURL). An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.Validate(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if c.Gateway.Storage.Type == "local" && c.Gateway.Storage.Local.Root == "" {
		return fmt.Errorf("validate config: local storage requires root")
	}
	if c.Gateway.Storage.Type == "storj" {
		if c.Gateway.Storage.Storj.AccessGrant == "" || c.Gateway.Storage.Storj.Bucket == "" {
			return fmt.Errorf("validate config: storj storage requires accessGrant and bucket")
		}
	}
	return nil
}

// GetConfig returns the process configuration, loading it on first use from the
// file named by CIYEX_CONFIG (if any). It panics on invalid configuration.
func GetConfig() *Config {
	once.Do(func() {
		cfg, err := Load(os.Getenv(envConfigPath))
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
		current = cfg
	})
	return current
}
