package config

import (
	"github.com/redis/rueidis"
)

// NewRedisClient connects to the redis instance backing the outbox queue.
// The caller decides whether a connection failure is fatal; at startup the
// serve command degrades to the in-memory queue instead of crashing.
func NewRedisClient(addr string) (rueidis.Client, error) {
	return rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{addr},
		ClientName:  "taskmarket",
	})
}
