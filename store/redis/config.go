package redis

import (
	"fmt"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Options describes how to reach a Redis server. It is deliberately small:
// pool sizing and timeouts are forwarded to go-redis, everything else keeps
// the client defaults.
type Options struct {
	// Addr is the host:port of the server.
	Addr string `yaml:"addr" json:"addr"`

	// Password authenticates against the server, empty for none.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// DB is the database number (0-15).
	DB int `yaml:"db,omitempty" json:"db,omitempty"`

	// PoolSize is the connection pool size. 0 keeps the client default.
	PoolSize int `yaml:"pool_size,omitempty" json:"pool_size,omitempty"`

	// MinIdleConns is the minimum number of idle connections in the pool.
	MinIdleConns int `yaml:"min_idle_conns,omitempty" json:"min_idle_conns,omitempty"`

	// DialTimeout bounds connection establishment and the Dial ping.
	DialTimeout time.Duration `yaml:"dial_timeout,omitempty" json:"dial_timeout,omitempty"`

	// ReadTimeout bounds socket reads.
	ReadTimeout time.Duration `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`

	// WriteTimeout bounds socket writes.
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`
}

// LoadOptions reads Options from a YAML file.
func LoadOptions(path string) (Options, error) {
	var opts Options
	b, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("redis store: read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &opts); err != nil {
		return opts, fmt.Errorf("redis store: parse config: %w", err)
	}
	if opts.Addr == "" {
		return opts, fmt.Errorf("redis store: config %s: addr is required", path)
	}
	return opts, nil
}

func (o Options) redisOptions() *goredis.Options {
	return &goredis.Options{
		Addr:         o.Addr,
		Password:     o.Password,
		DB:           o.DB,
		PoolSize:     o.PoolSize,
		MinIdleConns: o.MinIdleConns,
		DialTimeout:  o.DialTimeout,
		ReadTimeout:  o.ReadTimeout,
		WriteTimeout: o.WriteTimeout,
	}
}
