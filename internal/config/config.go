package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration.
type Config struct {
	Server struct {
		Host            string        `yaml:"host"`
		Port            string        `yaml:"port"`
		Prefork         bool          `yaml:"prefork"`
		BodyLimitBytes  int           `yaml:"body_limit_bytes"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`

	Chrome struct {
		ExecPath      string        `yaml:"exec_path"`
		NoSandbox     bool          `yaml:"no_sandbox"`
		UserDataDir   string        `yaml:"user_data_dir"`
		LaunchTimeout time.Duration `yaml:"launch_timeout"`
		RenderTimeout time.Duration `yaml:"render_timeout"`
		NetworkIdle   time.Duration `yaml:"network_idle"`
		Prewarm       bool          `yaml:"prewarm"`
	} `yaml:"chrome"`

	Cache struct {
		Enabled   bool          `yaml:"enabled"`
		Backend   string        `yaml:"backend"`
		RedisHost string        `yaml:"redis_host"`
		RedisDB   int           `yaml:"redis_db"`
		TTL       time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// Default returns a configuration populated with built-in defaults.
func Default() Config {
	var cfg Config
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = "3000"
	cfg.Server.BodyLimitBytes = 50 * 1024 * 1024
	cfg.Server.ShutdownTimeout = 5 * time.Second

	cfg.Logger.Level = "info"
	cfg.Logger.MaxSizeMB = 10
	cfg.Logger.MaxBackups = 3
	cfg.Logger.MaxAgeDays = 7

	cfg.Chrome.NoSandbox = true
	cfg.Chrome.LaunchTimeout = 20 * time.Second
	cfg.Chrome.NetworkIdle = 500 * time.Millisecond

	cfg.Cache.Backend = "memory"
	cfg.Cache.RedisHost = "127.0.0.1:6379"
	cfg.Cache.TTL = 10 * time.Minute
	return cfg
}

// Load reads the file named by CONFIG_PATH (if any) and applies environment
// overrides. It panics on an unreadable or invalid configuration.
func Load() Config {
	return LoadFrom(os.Getenv("CONFIG_PATH"))
}

// LoadFrom is Load with an explicit file path. An empty path skips the file.
func LoadFrom(path string) Config {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			panic(fmt.Sprintf("config: read %s: %v", path, err))
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			panic(fmt.Sprintf("config: parse %s: %v", path, err))
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		panic("config: " + err.Error())
	}
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	// CHROME_PATH wins over the common container variable CHROME_BIN.
	if v := os.Getenv("CHROME_PATH"); v != "" {
		cfg.Chrome.ExecPath = v
	} else if v := os.Getenv("CHROME_BIN"); v != "" && cfg.Chrome.ExecPath == "" {
		cfg.Chrome.ExecPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisHost = v
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("invalid server port %q", c.Server.Port)
	}
	if c.Server.BodyLimitBytes <= 0 {
		return fmt.Errorf("body_limit_bytes must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	if c.Chrome.LaunchTimeout <= 0 {
		return fmt.Errorf("launch_timeout must be positive")
	}
	if c.Chrome.RenderTimeout < 0 {
		return fmt.Errorf("render_timeout must not be negative")
	}
	if c.Chrome.NetworkIdle < 0 {
		return fmt.Errorf("network_idle must not be negative")
	}
	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case "redis", "memory":
		default:
			return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
		}
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache ttl must be positive")
		}
	}
	return nil
}
