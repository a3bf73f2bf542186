package localcache

import (
	"context"
	"fmt"
)

// Backend names a Store implementation
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
)

// Options selects and configures a Store
type Options struct {
	Backend     Backend
	Path        string // sqlite
	RedisURL    string // redis
	RedisPrefix string // redis
}

// Open builds the Store described by opts
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		if opts.Path == "" {
			return nil, fmt.Errorf("cache path is required for the sqlite backend")
		}
		return OpenSQLite(opts.Path)
	case BackendRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("redis URL is required for the redis backend")
		}
		return NewRedisStore(ctx, opts.RedisURL, opts.RedisPrefix)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (must be sqlite, redis or memory)", opts.Backend)
	}
}
