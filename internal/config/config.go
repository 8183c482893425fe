// Package config loads the session configuration with viper.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config is the full configuration of one session.
type Config struct {
	LocalPath string
	Remote    RemoteConfig
	RabbitMQ  RabbitMQConfig
	HTTPPort  string
	Log       LogConfig
}

// RemoteConfig describes how to reach the remote Users table. It replaces the
// process-wide server and credential variables with a value that is handed to
// the database factory.
type RemoteConfig struct {
	Driver     string
	DSN        string
	Server     string
	Port       int
	Database   string
	Username   string
	Password   string
	SSLMode    string
	AutoCreate bool
}

type RabbitMQConfig struct {
	URL   string
	Queue string
}

type LogConfig struct {
	Level       string
	Development bool
}

// NewViper returns a viper instance with every default set and environment
// variables bound under the USERSYNC_ prefix, e.g. USERSYNC_REMOTE_DSN.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("local.path", "user_data.json")
	v.SetDefault("remote.driver", DriverPostgres)
	v.SetDefault("remote.dsn", "")
	v.SetDefault("remote.server", "")
	v.SetDefault("remote.port", 5432)
	v.SetDefault("remote.database", "UserDatabase")
	v.SetDefault("remote.username", "")
	v.SetDefault("remote.password", "")
	v.SetDefault("remote.sslmode", "disable")
	v.SetDefault("remote.auto_create", false)
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.queue", "user_events")
	v.SetDefault("http.port", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetEnvPrefix("USERSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and builds a Config from v.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := Config{
		LocalPath: v.GetString("local.path"),
		Remote: RemoteConfig{
			Driver:     strings.ToLower(v.GetString("remote.driver")),
			DSN:        v.GetString("remote.dsn"),
			Server:     v.GetString("remote.server"),
			Port:       v.GetInt("remote.port"),
			Database:   v.GetString("remote.database"),
			Username:   v.GetString("remote.username"),
			Password:   v.GetString("remote.password"),
			SSLMode:    v.GetString("remote.sslmode"),
			AutoCreate: v.GetBool("remote.auto_create"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   v.GetString("rabbitmq.url"),
			Queue: v.GetString("rabbitmq.queue"),
		},
		HTTPPort: v.GetString("http.port"),
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration that can never produce a working session.
func (c Config) Validate() error {
	if c.LocalPath == "" {
		return fmt.Errorf("local.path must not be empty")
	}
	switch c.Remote.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unsupported remote.driver %q", c.Remote.Driver)
	}
	if c.Remote.Driver == DriverSQLite && c.Remote.DSN == "" {
		return fmt.Errorf("remote.dsn is required for the sqlite driver")
	}
	return nil
}

// NeedsCredentials reports whether server, username or password still have to
// be collected before a postgres session can be opened.
func (r RemoteConfig) NeedsCredentials() bool {
	if r.Driver != DriverPostgres || r.DSN != "" {
		return false
	}
	return r.Server == "" || r.Username == "" || r.Password == ""
}

// ConnectionString returns the DSN handed to the GORM driver. An explicit DSN
// always wins over the individual parts.
func (r RemoteConfig) ConnectionString() string {
	if r.DSN != "" || r.Driver != DriverPostgres {
		return r.DSN
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(r.Username, r.Password),
		Host:     fmt.Sprintf("%s:%d", r.Server, r.Port),
		Path:     "/" + r.Database,
		RawQuery: url.Values{"sslmode": []string{r.SSLMode}}.Encode(),
	}
	return u.String()
}
