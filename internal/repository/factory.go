package repository

import (
	"time"

	"github.com/navikt/roomfinder/internal/config"
	"github.com/navikt/roomfinder/internal/repository/memory"
	"github.com/navikt/roomfinder/internal/repository/redis"
)

// NewLedger returns the Redis ledger when Redis is enabled and the in-memory
// ledger otherwise
func NewLedger(cfg config.RedisConfig, loc *time.Location) (Ledger, error) {
	if !cfg.Enabled {
		return memory.NewRepository(), nil
	}
	repo, err := redis.NewRepository(cfg)
	if err != nil {
		return nil, err
	}
	return repo.WithLocation(loc), nil
}
