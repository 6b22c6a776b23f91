package store

import (
	"github.com/sweetpotato0/krishimitra/config"
	"github.com/sweetpotato0/krishimitra/session"
)

// New selects the Redis store when an address is configured and the
// in-memory store otherwise.
func New(cfg config.SessionConfig) session.Store {
	if cfg.RedisAddr == "" {
		return NewInMemoryStore(cfg.TTL)
	}
	return NewRedisStore(&RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.TTL,
	})
}
