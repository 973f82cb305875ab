// Package config defines the application configuration and loads it from a
// YAML file, an optional .env file and LOANCONSULT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kkfinancial/loan-consult/pkg/constants"
	"github.com/kkfinancial/loan-consult/pkg/format"
	"github.com/kkfinancial/loan-consult/pkg/validation"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// SMTP TLS policies.
const (
	TLSMandatory     = "mandatory"
	TLSOpportunistic = "opportunistic"
	TLSNone          = "none"
)

// Configuration holds all configuration for loan-consult.
type Configuration struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging,omitempty"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output,omitempty"`
	Display DisplayConfig `mapstructure:"display" yaml:"display,omitempty"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store,omitempty"`
	Notify  NotifyConfig  `mapstructure:"notify" yaml:"notify,omitempty"`
	Site    SiteConfig    `mapstructure:"site" yaml:"site,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds CLI output options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv
}

// DisplayConfig controls how amounts are rendered.
type DisplayConfig struct {
	Grouping string `mapstructure:"grouping" yaml:"grouping,omitempty"` // indian, international
}

// StoreConfig selects and configures the lead store.
type StoreConfig struct {
	Driver        string `mapstructure:"driver" yaml:"driver,omitempty"` // memory, sqlite, redis
	Path          string `mapstructure:"path" yaml:"path,omitempty"`
	RedisAddr     string `mapstructure:"redisAddr" yaml:"redisAddr,omitempty"`
	RedisPassword string `mapstructure:"redisPassword" yaml:"redisPassword,omitempty"`
	RedisDB       int    `mapstructure:"redisDB" yaml:"redisDB,omitempty"`
	Prefix        string `mapstructure:"prefix" yaml:"prefix,omitempty"`
}

// NotifyConfig controls new-lead notifications. With no SMTP host the
// notifications are only logged.
type NotifyConfig struct {
	Recipients []string   `mapstructure:"recipients" yaml:"recipients,omitempty"`
	SMTP       SMTPConfig `mapstructure:"smtp" yaml:"smtp,omitempty"`
}

// SMTPConfig holds mail server settings.
type SMTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host,omitempty"`
	Port     int    `mapstructure:"port" yaml:"port,omitempty"`
	Username string `mapstructure:"username" yaml:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	From     string `mapstructure:"from" yaml:"from,omitempty"`
	TLS      string `mapstructure:"tls" yaml:"tls,omitempty"` // mandatory, opportunistic, none
}

// Enabled reports whether SMTP delivery is configured.
func (s SMTPConfig) Enabled() bool {
	return strings.TrimSpace(s.Host) != ""
}

// SiteConfig overrides the public contact details.
type SiteConfig struct {
	Phone   string `mapstructure:"phone" yaml:"phone,omitempty"`
	Address string `mapstructure:"address" yaml:"address,omitempty"`
}

// DefaultRecipients are the business inboxes that receive consultation drafts.
var DefaultRecipients = []string{"kkfinancial2016@gmail.com", "kkfinancial2016@yahoo.com"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("display.grouping", constants.GroupingIndian)
	v.SetDefault("store.driver", constants.DefaultStoreDriver)
	v.SetDefault("store.path", constants.DefaultSQLitePath)
	v.SetDefault("store.redisAddr", "")
	v.SetDefault("store.redisPassword", "")
	v.SetDefault("store.redisDB", 0)
	v.SetDefault("store.prefix", constants.DefaultRedisPrefix)
	v.SetDefault("notify.recipients", DefaultRecipients)
	v.SetDefault("notify.smtp.host", "")
	v.SetDefault("notify.smtp.port", 587)
	v.SetDefault("notify.smtp.username", "")
	v.SetDefault("notify.smtp.password", "")
	v.SetDefault("notify.smtp.from", "")
	v.SetDefault("notify.smtp.tls", TLSMandatory)
	v.SetDefault("site.phone", "")
	v.SetDefault("site.address", "")
}

// LoadConfiguration reads the YAML file at configPath, when given, on top of
// the defaults. A .env file in the working directory is loaded first; any key
// can then be overridden by LOANCONSULT_<SECTION>_<KEY>, for example
// LOANCONSULT_NOTIFY_SMTP_PASSWORD.
func LoadConfiguration(configPath string) (*Configuration, error) {
	return LoadConfigurationWithEnvFile(configPath, ".env")
}

// LoadConfigurationWithEnvFile is LoadConfiguration with an explicit .env path.
// A missing env file is not an error.
func LoadConfigurationWithEnvFile(configPath, envFile string) (*Configuration, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	return &configuration, nil
}

// Validate reports the first invalid setting.
func (c *Configuration) Validate() error {
	if err := validation.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if err := validation.ValidateLogFormat(c.Logging.Format); err != nil {
		return err
	}
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}
	if _, err := format.ParseGrouping(c.Display.Grouping); err != nil {
		return err
	}

	switch strings.ToLower(c.Store.Driver) {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			return errors.New("store.path is required for the sqlite driver")
		}
	case DriverRedis:
		if strings.TrimSpace(c.Store.RedisAddr) == "" {
			return errors.New("store.redisAddr is required for the redis driver")
		}
	default:
		return fmt.Errorf("invalid store driver %q: must be one of memory, sqlite, redis", c.Store.Driver)
	}

	if len(c.Notify.Recipients) == 0 {
		return errors.New("notify.recipients must list at least one address")
	}
	for _, addr := range c.Notify.Recipients {
		if err := validation.ValidateEmail(addr); err != nil {
			return fmt.Errorf("invalid notify recipient: %w", err)
		}
	}

	if c.Notify.SMTP.Enabled() {
		if c.Notify.SMTP.Port <= 0 || c.Notify.SMTP.Port > 65535 {
			return fmt.Errorf("invalid smtp port %d", c.Notify.SMTP.Port)
		}
		if err := validation.ValidateEmail(c.Notify.SMTP.From); err != nil {
			return fmt.Errorf("invalid smtp from address: %w", err)
		}
		switch strings.ToLower(c.Notify.SMTP.TLS) {
		case TLSMandatory, TLSOpportunistic, TLSNone:
		default:
			return fmt.Errorf("invalid smtp tls policy %q: must be one of mandatory, opportunistic, none", c.Notify.SMTP.TLS)
		}
	}

	return nil
}

// Grouping returns the configured digit grouping, falling back to Indian.
func (c *Configuration) Grouping() format.Grouping {
	g, err := format.ParseGrouping(c.Display.Grouping)
	if err != nil {
		return format.Indian
	}
	return g
}
