package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface. Values are stored as JSON and
// decoded into dest on Get.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Close() error
}

// Noop never stores anything; every Get is a miss.
type Noop struct{}

func (Noop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Noop) Get(context.Context, string, interface{}) error                { return ErrCacheMiss }
func (Noop) Delete(context.Context, ...string) error                       { return nil }
func (Noop) DeleteByPattern(context.Context, string) error                 { return nil }
func (Noop) Exists(context.Context, ...string) (bool, error)               { return false, nil }
func (Noop) Close() error                                                  { return nil }
