package config

import (
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"holdemtable-server/internal/util"
)

// Config provides configuration for the hold'em table server
type Config struct {
	loaded bool

	Redis struct {
		URL          string `yaml:"url" envconfig:"url"`
		PoolSize     int    `yaml:"poolSize" envconfig:"pool_size"`
		MinIdleConns int    `yaml:"minIdleConns" envconfig:"min_idle_conns"`
	} `yaml:"redis"`

	Game struct {
		SmallBlind           int `yaml:"smallBlind" envconfig:"small_blind"`
		BigBlind             int `yaml:"bigBlind" envconfig:"big_blind"`
		BuyIn                int `yaml:"buyIn" envconfig:"buy_in"`
		StartDelaySeconds    int `yaml:"startDelaySeconds" envconfig:"start_delay_seconds"`
		ActionTimeoutSeconds int `yaml:"actionTimeoutSeconds" envconfig:"action_timeout_seconds"`
	} `yaml:"game"`

	Log struct {
		Level             string `yaml:"level" envconfig:"level"`
		DisableAccessLogs bool   `yaml:"disableAccessLogs" envconfig:"disable_access_logs"`
	} `yaml:"log"`
}

var config Config

// Instance returns a singleton instance
// If the config hasn't been loaded, it will be loaded
func Instance() Config {
	if !config.loaded {
		if err := Load(); err != nil {
			panic(err)
		}
	}

	return config
}

// Load will load the configuration. A missing config file is not an error;
// environment variables and defaults still apply.
func Load() error {
	config = Config{}
	config.Redis.URL = "redis://localhost:6379"

	configFile := util.Getenv("HT_CONFIG_FILE", "config.yaml")
	file, err := os.Open(configFile)
	if err == nil {
		defer func() { _ = file.Close() }()
		if err := yaml.NewDecoder(file).Decode(&config); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := envconfig.Process("ht", &config); err != nil {
		return err
	}

	config.loaded = true
	return nil
}
