package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

// Driver names a storage backend.
type Driver string

const (
	DriverSQLite Driver = "sqlite"
	DriverFile   Driver = "file"
	DriverRedis  Driver = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Driver    Driver `yaml:"driver" json:"driver"`
	Path      string `yaml:"path,omitempty" json:"path,omitempty"`
	RedisURL  string `yaml:"redis_url,omitempty" json:"redis_url,omitempty"`
	KeyPrefix string `yaml:"key_prefix,omitempty" json:"key_prefix,omitempty"`
}

// Open returns the backend described by opts. For the sqlite driver Path is
// the database file; for the file driver it is a directory.
func Open(ctx context.Context, opts Options) (TaskStore, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite store: path is required")
		}
		return New(opts.Path)
	case DriverFile:
		if opts.Path == "" {
			return nil, fmt.Errorf("file store: path is required")
		}
		return NewFileStore(filepath.Clean(opts.Path))
	case DriverRedis:
		ropts, err := redis.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		client := redis.NewClient(ropts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis store: ping: %w", err)
		}
		return NewRedisStore(client, opts.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
