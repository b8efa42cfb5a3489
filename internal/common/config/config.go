// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Store         StoreConfig             `mapstructure:"store"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Ledger        LedgerConfig            `mapstructure:"ledger"`
	Reconcile     ReconcileConfig         `mapstructure:"reconcile"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Audit         AuditConfig             `mapstructure:"audit"`
	Tracing       TracingConfig           `mapstructure:"tracing"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// AdminToken guards the admin routes; empty disables the check.
	AdminToken string `mapstructure:"admin_token"`
}

// StoreConfig selects the record store backend: memory, redis or postgres.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Ledger ---

// LedgerConfig describes the spreadsheet pair backing the ledger.
// PriceSpreadsheetID and PriceSheet fall back to the main sheet when empty.
type LedgerConfig struct {
	Driver             string        `mapstructure:"driver"`
	CredentialsFile    string        `mapstructure:"credentials_file"`
	CredentialsJSON    string        `mapstructure:"credentials_json"`
	SpreadsheetID      string        `mapstructure:"spreadsheet_id"`
	Sheet              string        `mapstructure:"sheet"`
	PriceSpreadsheetID string        `mapstructure:"price_spreadsheet_id"`
	PriceSheet         string        `mapstructure:"price_sheet"`
	Endpoint           string        `mapstructure:"endpoint"`
	Timeout            time.Duration `mapstructure:"timeout"`
	Columns            ColumnsConfig `mapstructure:"columns"`
	MaxColumns         int           `mapstructure:"max_columns"`
	RowStart           int           `mapstructure:"row_start"`
}

// ColumnsConfig holds 1-based column indices.
type ColumnsConfig struct {
	Sequence     int `mapstructure:"sequence"`
	Date         int `mapstructure:"date"`
	Name         int `mapstructure:"name"`
	Farm         int `mapstructure:"farm"`
	TaxID        int `mapstructure:"tax_id"`
	Group        int `mapstructure:"group"`
	Culture      int `mapstructure:"culture"`
	Quantity     int `mapstructure:"quantity"`
	Location     int `mapstructure:"location"`
	Extra        int `mapstructure:"extra"`
	PaymentForm  int `mapstructure:"payment_form"`
	Currency     int `mapstructure:"currency"`
	Price        int `mapstructure:"price"`
	ManagerPrice int `mapstructure:"manager_price"`
	Phone        int `mapstructure:"phone"`
	Owner        int `mapstructure:"owner"`
	PriceColor   int `mapstructure:"price_color"`
}

// --- Reconciliation ---

type ReconcileConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Interval     time.Duration `mapstructure:"interval"`
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
	PauseBackend string        `mapstructure:"pause_backend"` // local | redis
	PauseTTL     time.Duration `mapstructure:"pause_ttl"`
}

// --- Notifications ---

type NotificationConfig struct {
	Admins   []string `mapstructure:"admins"`
	Telegram struct {
		Enabled bool   `mapstructure:"enabled"`
		Token   string `mapstructure:"token"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"telegram"`
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
