package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/radhian/ledger-reconciliation/consts"
	"github.com/radhian/ledger-reconciliation/utils"
	"github.com/spf13/viper"
)

// Config holds the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Job      JobConfig      `mapstructure:"job"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Progress ProgressConfig `mapstructure:"progress"`
	Cron     CronConfig     `mapstructure:"cron"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port               string   `mapstructure:"port"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	MaxUploadMB        int64    `mapstructure:"max_upload_mb"`
	ReadTimeoutSec     int      `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec    int      `mapstructure:"write_timeout_sec"`
	ShutdownTimeoutSec int      `mapstructure:"shutdown_timeout_sec"`
}

type StorageConfig struct {
	Dir            string `mapstructure:"dir"`
	RetentionInSec int    `mapstructure:"retention_sec"`
}

// Retention is how long staged files may live.
func (c StorageConfig) Retention() time.Duration {
	return time.Duration(c.RetentionInSec) * time.Second
}

type JobConfig struct {
	DiffBatchSize   int `mapstructure:"diff_batch_size"`
	ReportBatchSize int `mapstructure:"report_batch_size"`
	MaxConcurrent   int `mapstructure:"max_concurrent"`
	SniffSampleSize int `mapstructure:"sniff_sample_size"`
}

type LedgerConfig struct {
	JDDelimiter      string   `mapstructure:"jd_delimiter"`
	CoreDelimiter    string   `mapstructure:"core_delimiter"` // "auto" sniffs
	JDOperations     []string `mapstructure:"jd_operations"`
	JDAmountFormat   string   `mapstructure:"jd_amount_format"` // br | dot
	ValidationMinLen int      `mapstructure:"validation_min_len"`
}

type ProgressConfig struct {
	Store    string         `mapstructure:"store"` // memory | postgres
	TTLInSec int            `mapstructure:"ttl_sec"`
	DB       DatabaseConfig `mapstructure:"db"`
}

// TTL is how long a job entry may stay untouched before eviction.
func (c ProgressConfig) TTL() time.Duration {
	return time.Duration(c.TTLInSec) * time.Second
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Name     string `mapstructure:"name"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

type CronConfig struct {
	IntervalInSec int `mapstructure:"interval_sec"`
	Workers       int `mapstructure:"workers"`
}

func (c CronConfig) Interval() time.Duration {
	return time.Duration(c.IntervalInSec) * time.Second
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads the optional config file at path (or ./config.yaml), then
// environment overrides prefixed with RECON_.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("RECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Plain names used by existing deployments.
	bind := map[string]string{
		"server.port":          "PORT",
		"progress.db.host":     "DB_HOST",
		"progress.db.port":     "DB_PORT",
		"progress.db.user":     "DB_USER",
		"progress.db.name":     "DB_NAME",
		"progress.db.password": "DB_PASSWORD",
	}
	for key, env := range bind {
		prefixed := "RECON_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if _, err := utils.AmountParser(cfg.Ledger.JDAmountFormat); err != nil {
		return nil, fmt.Errorf("config: ledger.jd_amount_format: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 200)
	v.SetDefault("server.read_timeout_sec", 60)
	v.SetDefault("server.write_timeout_sec", 300)
	v.SetDefault("server.shutdown_timeout_sec", 30)
	v.SetDefault("storage.dir", "uploads")
	v.SetDefault("storage.retention_sec", consts.DefaultRetentionInSec)
	v.SetDefault("job.diff_batch_size", consts.DefaultDiffBatchSize)
	v.SetDefault("job.report_batch_size", consts.DefaultReportBatchSize)
	v.SetDefault("job.max_concurrent", consts.DefaultMaxConcurrentJobs)
	v.SetDefault("job.sniff_sample_size", consts.DefaultSniffSampleSize)
	v.SetDefault("ledger.jd_delimiter", ";")
	v.SetDefault("ledger.core_delimiter", "auto")
	v.SetDefault("ledger.jd_operations", []string{})
	v.SetDefault("ledger.jd_amount_format", consts.AmountFormatBR)
	v.SetDefault("ledger.validation_min_len", consts.DefaultValidationMinLen)
	v.SetDefault("progress.store", "memory")
	v.SetDefault("progress.ttl_sec", consts.DefaultRetentionInSec)
	v.SetDefault("progress.db.sslmode", "disable")
	v.SetDefault("cron.interval_sec", consts.DefaultIntervalInSec)
	v.SetDefault("cron.workers", consts.DefaultWorkerNumber)
	v.SetDefault("log.level", "info")
}

// Delimiter turns a configured delimiter into a rune. "auto" and "" yield
// zero, which means sniff it from the file.
func Delimiter(s string) rune {
	if s == "" || strings.EqualFold(s, "auto") {
		return 0
	}
	return []rune(s)[0]
}

// InitLogger sets the level of the global logger.
func InitLogger(cfg LogConfig) error {
	switch strings.ToLower(cfg.Level) {
	case "debug":
		log.SetLevel(log.DEBUG)
	case "info", "":
		log.SetLevel(log.INFO)
	case "warn":
		log.SetLevel(log.WARN)
	case "error":
		log.SetLevel(log.ERROR)
	case "off":
		log.SetLevel(log.OFF)
	default:
		return fmt.Errorf("config: unknown log level %q", cfg.Level)
	}
	log.SetHeader(`${time_rfc3339} ${level} ${short_file}:${line}`)
	return nil
}
