// Package config loads service and client settings from the environment,
// an optional .env file and, for the client, an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix = "BASKET"

	defaultPort         = "8080"
	defaultDBPath       = "basket.db"
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	defaultServerURL    = "http://localhost:8080"
	defaultTimeout      = 10 * time.Second
	defaultLookupLimit  = 20
	defaultLookupWindow = time.Minute
	defaultStateDir     = ".basket"
	defaultBackupPrefix = "basket/"
	defaultBackupEvery  = 24 * time.Hour
	defaultBackupKeep   = 30 * 24 * time.Hour
	stateFileName       = "session.json"
)

// Server configures basketd.
type Server struct {
	Port         string
	DBPath       string
	LogLevel     string
	LogFormat    string
	LookupLimit  int
	LookupWindow time.Duration
	Redis        Redis
	Backup       Backup
}

// Redis is optional; an empty Addr means single-replica fan-out.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

func (r Redis) Enabled() bool {
	return r.Addr != ""
}

// Backup is optional; it is enabled when a bucket and credentials are set.
type Backup struct {
	Endpoint   string
	Bucket     string
	Region     string
	AccessKey  string
	SecretKey  string
	Prefix     string
	Passphrase string
	Interval   time.Duration
	Retention  time.Duration
}

func (b Backup) Enabled() bool {
	return b.Bucket != "" && b.AccessKey != "" && b.SecretKey != ""
}

// Client configures the basket CLI.
type Client struct {
	ServerURL string
	StatePath string
	LogLevel  string
	Timeout   time.Duration
}

// loadDotEnv reads .env from the working directory if present. Variables
// already set in the environment win.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadServer reads BASKET_* variables for the service.
func LoadServer() (*Server, error) {
	loadDotEnv()
	v := newViper()

	v.SetDefault("port", defaultPort)
	v.SetDefault("db_path", defaultDBPath)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("log_format", defaultLogFormat)
	v.SetDefault("lookup_limit", defaultLookupLimit)
	v.SetDefault("lookup_window", defaultLookupWindow)
	v.SetDefault("redis_db", 0)
	v.SetDefault("backup_region", "us-east-1")
	v.SetDefault("backup_prefix", defaultBackupPrefix)
	v.SetDefault("backup_interval", defaultBackupEvery)
	v.SetDefault("backup_retention", defaultBackupKeep)

	cfg := &Server{
		Port:         v.GetString("port"),
		DBPath:       v.GetString("db_path"),
		LogLevel:     v.GetString("log_level"),
		LogFormat:    v.GetString("log_format"),
		LookupLimit:  v.GetInt("lookup_limit"),
		LookupWindow: v.GetDuration("lookup_window"),
		Redis: Redis{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Backup: Backup{
			Endpoint:   v.GetString("backup_endpoint"),
			Bucket:     v.GetString("backup_bucket"),
			Region:     v.GetString("backup_region"),
			AccessKey:  v.GetString("backup_access_key"),
			SecretKey:  v.GetString("backup_secret_key"),
			Prefix:     v.GetString("backup_prefix"),
			Passphrase: v.GetString("backup_passphrase"),
			Interval:   v.GetDuration("backup_interval"),
			Retention:  v.GetDuration("backup_retention"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Server) validate() error {
	if c.Port == "" {
		return errors.New("port must not be empty")
	}
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	if c.LookupLimit < 1 {
		return fmt.Errorf("lookup_limit must be positive, got %d", c.LookupLimit)
	}
	if c.LookupWindow <= 0 {
		return fmt.Errorf("lookup_window must be positive, got %s", c.LookupWindow)
	}
	if c.Backup.Enabled() && c.Backup.Interval <= 0 {
		return fmt.Errorf("backup_interval must be positive, got %s", c.Backup.Interval)
	}
	return nil
}

// LoadClient reads client settings. configFile, when non-empty, names a YAML
// file; otherwise $HOME/.basket/config.yaml is used if it exists. Environment
// variables override file values.
func LoadClient(configFile string) (*Client, error) {
	loadDotEnv()
	v := newViper()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	stateDir := filepath.Join(home, defaultStateDir)

	v.SetDefault("server_url", defaultServerURL)
	v.SetDefault("state_path", filepath.Join(stateDir, stateFileName))
	v.SetDefault("log_level", "warn")
	v.SetDefault("timeout", defaultTimeout)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(stateDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Client{
		ServerURL: strings.TrimRight(v.GetString("server_url"), "/"),
		StatePath: v.GetString("state_path"),
		LogLevel:  v.GetString("log_level"),
		Timeout:   v.GetDuration("timeout"),
	}
	if cfg.ServerURL == "" {
		return nil, errors.New("server_url must not be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return cfg, nil
}
