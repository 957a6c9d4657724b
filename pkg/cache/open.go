package cache

import (
	"context"
	"fmt"
)

// Backend names a cache implementation.
type Backend string

const (
	BackendFile  Backend = "file"
	BackendNone  Backend = "none"
	BackendRedis Backend = "redis"
	BackendMongo Backend = "mongo"
)

// Options selects and configures a backend for [Open].
type Options struct {
	Backend   Backend
	Dir       string // file
	RedisAddr string // redis: host:port or redis:// URL
	MongoURI  string // mongo
}

// Open returns the configured backend. An empty backend means file.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case BackendFile, "":
		if opts.Dir == "" {
			return nil, fmt.Errorf("file cache needs a directory")
		}
		return nonNil(NewFileCache(opts.Dir))
	case BackendNone:
		return NewNullCache(), nil
	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis cache needs an address")
		}
		return nonNil(NewRedisCache(ctx, opts.RedisAddr))
	case BackendMongo:
		if opts.MongoURI == "" {
			return nil, fmt.Errorf("mongo cache needs a uri")
		}
		return nonNil(NewMongoCache(ctx, opts.MongoURI))
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// nonNil keeps a failed constructor from yielding a non-nil interface
// around a nil pointer.
func nonNil[C Cache](c C, err error) (Cache, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}
