// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"

	LedgerSheets = "sheets"
	LedgerMemory = "memory"

	PauseLocal = "local"
	PauseRedis = "redis"
)

// Load reads ./configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on
// top of it and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	return v
}

// bindEnvKeys makes keys absent from the yaml reachable through AutomaticEnv.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"ledger.spreadsheet_id",
		"ledger.price_spreadsheet_id",
		"ledger.credentials_file",
		"ledger.credentials_json",
		"notifications.telegram.token",
		"database.redis.address",
		"database.postgres.password",
		"server.admin_token",
	} {
		_ = v.BindEnv(key)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from their conventional variable names.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Notifications.Telegram.Token == "" {
		cfg.Notifications.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if cfg.Ledger.CredentialsFile == "" {
		cfg.Ledger.CredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("DB_PASSWORD")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "offer-ledger"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = StoreMemory
	}
	if cfg.Store.KeyPrefix == "" {
		cfg.Store.KeyPrefix = "offers"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	applyLedgerDefaults(&cfg.Ledger)

	if cfg.Reconcile.Interval == 0 {
		cfg.Reconcile.Interval = 60 * time.Second
	}
	if cfg.Reconcile.SettleDelay == 0 {
		cfg.Reconcile.SettleDelay = 30 * time.Second
	}
	if cfg.Reconcile.PauseBackend == "" {
		cfg.Reconcile.PauseBackend = PauseLocal
	}
	if cfg.Reconcile.PauseTTL == 0 {
		cfg.Reconcile.PauseTTL = 10 * time.Minute
	}

	if cfg.Notifications.Telegram.BaseURL == "" {
		cfg.Notifications.Telegram.BaseURL = "https://api.telegram.org"
	}
	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = "eu-central-1"
	}

	if cfg.Audit.Index == "" {
		cfg.Audit.Index = "offer-transitions"
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

func applyLedgerDefaults(l *LedgerConfig) {
	if l.Driver == "" {
		l.Driver = LedgerSheets
	}
	if l.Sheet == "" {
		l.Sheet = "Sheet1"
	}
	if l.Timeout == 0 {
		l.Timeout = 30 * time.Second
	}
	if l.MaxColumns == 0 {
		l.MaxColumns = 52
	}
	if l.RowStart == 0 {
		l.RowStart = 2
	}

	c := &l.Columns
	defaults := []struct {
		field *int
		value int
	}{
		{&c.Sequence, 1},
		{&c.Date, 2},
		{&c.Name, 3},
		{&c.Farm, 4},
		{&c.TaxID, 5},
		{&c.Group, 6},
		{&c.Culture, 7},
		{&c.Quantity, 8},
		{&c.Location, 9},
		{&c.Extra, 10},
		{&c.PaymentForm, 11},
		{&c.Currency, 12},
		{&c.Price, 13},
		{&c.ManagerPrice, 15},
		{&c.Phone, 16},
		{&c.Owner, 52},
		{&c.PriceColor, 12},
	}
	for _, d := range defaults {
		if *d.field == 0 {
			*d.field = d.value
		}
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Store.Driver {
	case StoreMemory:
	case StoreRedis:
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis store")
		}
	case StorePostgres:
		if cfg.Database.Postgres.Host == "" || cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.host and database are required for the postgres store")
		}
	default:
		return fmt.Errorf("store.driver %q is not supported", cfg.Store.Driver)
	}

	switch cfg.Ledger.Driver {
	case LedgerMemory:
	case LedgerSheets:
		if cfg.Ledger.SpreadsheetID == "" {
			return fmt.Errorf("ledger.spreadsheet_id is required for the sheets driver")
		}
		if !isSet(cfg.Server.AdminToken) {
			return fmt.Errorf("server.admin_token is required for the sheets driver")
		}
	default:
		return fmt.Errorf("ledger.driver %q is not supported", cfg.Ledger.Driver)
	}

	cols := cfg.Ledger.Columns
	for name, col := range map[string]int{
		"manager_price": cols.ManagerPrice,
		"price_color":   cols.PriceColor,
		"owner":         cols.Owner,
	} {
		if col < 1 || col > cfg.Ledger.MaxColumns {
			return fmt.Errorf("ledger.columns.%s must be between 1 and %d", name, cfg.Ledger.MaxColumns)
		}
	}

	if cfg.Reconcile.Interval <= 0 {
		return fmt.Errorf("reconcile.interval must be positive")
	}
	if cfg.Reconcile.SettleDelay < 0 {
		return fmt.Errorf("reconcile.settle_delay must not be negative")
	}
	switch cfg.Reconcile.PauseBackend {
	case PauseLocal:
	case PauseRedis:
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis pause backend")
		}
	default:
		return fmt.Errorf("reconcile.pause_backend %q is not supported", cfg.Reconcile.PauseBackend)
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if cfg.Audit.Enabled && cfg.Database.Elasticsearch.GetURL() == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required for the audit trail")
	}
	return nil
}

// isSet reports whether v holds a value, treating an unexpanded ${VAR} as unset.
func isSet(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.HasPrefix(v, "${")
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
