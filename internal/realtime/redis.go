package realtime

import (
	"log"

	"github.com/redis/go-redis/v9"
)

// NewRedis creates the shared Redis client, used for chat notification
// pub/sub and for claiming payment-webhook event ids.
func NewRedis(addr, password string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	log.Printf("redis client created (addr: %s)", addr)
	return rdb
}
