package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/playout/internal/config"
	"github.com/Nixie-Tech-LLC/playout/internal/db"
	"github.com/Nixie-Tech-LLC/playout/internal/lock"
	"github.com/Nixie-Tech-LLC/playout/internal/notify"
	redisclient "github.com/Nixie-Tech-LLC/playout/internal/redis"
)

// held locks expire after this long if a replica dies mid-recompute
const redisLockTTL = 30 * time.Second

// InitStore selects PostgreSQL when DATABASE_URL is set, otherwise the
// in-memory store (development only, enforced by config.Load).
func InitStore(ctx context.Context, cfg *config.Config) (db.Store, *sqlx.DB, error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		return db.NewMemoryStore(), nil, nil
	}

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("db migrate: %w", err)
	}
	log.Info().Msg("using PostgreSQL store")
	return db.NewStore(conn), conn, nil
}

// InitLocker uses Redis when configured so replicas share per-screen locks.
func InitLocker(ctx context.Context, cfg *config.Config) (lock.Locker, error) {
	if cfg.RedisAddress == "" {
		log.Info().Msg("REDIS_ADDRESS not set, using in-process locks")
		return lock.NewKeyedMutex(), nil
	}
	rdb, err := redisclient.NewClient(ctx, cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	log.Info().Str("address", cfg.RedisAddress).Msg("using Redis locks")
	return redisclient.NewLocker(rdb, redisLockTTL), nil
}

// InitNotifier connects to MQTT when configured. The returned func
// disconnects the client.
func InitNotifier(cfg *config.Config) (notify.Notifier, func(), error) {
	if cfg.MQTTBrokerURL == "" {
		log.Info().Msg("MQTT_BROKER_URL not set, players learn about new versions on their next heartbeat")
		return notify.Nop{}, func() {}, nil
	}
	n, client, err := notify.NewMQTTNotifier(cfg.MQTTBrokerURL, "playout-"+uuid.NewString())
	if err != nil {
		return nil, nil, fmt.Errorf("mqtt: %w", err)
	}
	log.Info().Str("broker", cfg.MQTTBrokerURL).Msg("connected to MQTT broker")
	return n, func() { client.Disconnect(250) }, nil
}
