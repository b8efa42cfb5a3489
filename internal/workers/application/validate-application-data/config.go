// internal/workers/application/validate-application-data/config.go
package validateapplicationdata

import (
	"time"

	"offer-ledger/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout: config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
	}
}
