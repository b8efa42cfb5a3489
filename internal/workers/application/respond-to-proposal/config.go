// internal/workers/application/respond-to-proposal/config.go
package respondtoproposal

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
