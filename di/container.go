// Package di provides wiring glue: a small container that assembles the
// store, codec, logger, and facade singletons so application code asks for
// one object instead of repeating the setup.
package di

import (
	"context"

	"github.com/unkn0wn-root/redikit"
	"github.com/unkn0wn-root/redikit/codec"
	st "github.com/unkn0wn-root/redikit/store"
	redisstore "github.com/unkn0wn-root/redikit/store/redis"
)

// Config carries the optional pieces; zero values fall back to the facade
// defaults (JSON codec, no-op logger).
type Config struct {
	Codec           codec.Codec
	Logger          redikit.Logger
	SubscribeBuffer int
}

// Container manages singleton instances of the facade and its dependencies.
type Container struct {
	store  st.Store
	facade redikit.Facade
}

// New builds a container around an existing store. The container does not
// take ownership of the store.
func New(s st.Store, cfg Config) (*Container, error) {
	return build(s, cfg, false)
}

// NewFromRedisOptions dials Redis from opts and builds a container that owns
// the resulting store (Close tears it down).
func NewFromRedisOptions(ctx context.Context, opts redisstore.Options, cfg Config) (*Container, error) {
	s, err := redisstore.Dial(ctx, opts)
	if err != nil {
		return nil, err
	}
	return build(s, cfg, true)
}

// NewFromConfigFile is NewFromRedisOptions with the options read from a YAML
// file.
func NewFromConfigFile(ctx context.Context, path string, cfg Config) (*Container, error) {
	opts, err := redisstore.LoadOptions(path)
	if err != nil {
		return nil, err
	}
	return NewFromRedisOptions(ctx, opts, cfg)
}

func build(s st.Store, cfg Config, ownStore bool) (*Container, error) {
	f, err := redikit.New(redikit.Options{
		Store:           s,
		Codec:           cfg.Codec,
		Logger:          cfg.Logger,
		SubscribeBuffer: cfg.SubscribeBuffer,
		CloseStore:      ownStore,
	})
	if err != nil {
		return nil, err
	}
	return &Container{store: s, facade: f}, nil
}

// Facade returns the singleton facade instance.
func (c *Container) Facade() redikit.Facade { return c.facade }

// Store returns the singleton store instance, for operations the facade
// does not wrap.
func (c *Container) Store() st.Store { return c.store }

// Close releases the facade and, when the container built it, the store.
func (c *Container) Close(ctx context.Context) error {
	return c.facade.Close(ctx)
}
