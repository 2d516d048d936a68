package app

import (
	"fmt"

	"github.com/yungbote/wellness-backend/internal/clients/redis"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type Clients struct {
	// Revocations is nil when REDIS_ADDR is unset.
	Revocations *redis.RevocationCache
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	var out Clients
	if cfg.Redis.Addr != "" {
		cache, err := redis.NewRevocationCache(log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis revocation cache: %w", err)
		}
		out.Revocations = cache
	} else {
		log.Info("REDIS_ADDR not set; token revocation checks go to the database only")
	}
	return out, nil
}

func (c Clients) Close(log *logger.Logger) {
	if c.Revocations != nil {
		if err := c.Revocations.Close(); err != nil {
			log.Warn("Closing redis client failed", "error", err)
		}
	}
}
