// Package codestore guarda los códigos de inicio de sesión por SMS.
// En producción usa Redis para que todas las instancias vean el mismo código; sin Redis, un caché en memoria.
package codestore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/licitaciones-api/internal/application/ports"
)

var (
	_ ports.CodeStore = (*RedisStore)(nil)
	_ ports.CodeStore = (*MemoryStore)(nil)
)

// NewRedisClient cliente de Redis.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// RedisStore códigos con expiración nativa de Redis.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore construye el store sobre un cliente ya creado.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Put guarda o reemplaza el código.
func (s *RedisStore) Put(ctx context.Context, key, code string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, code, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Take usa GETDEL: dos verificaciones concurrentes no pueden consumir el mismo código.
func (s *RedisStore) Take(ctx context.Context, key string) (string, bool, error) {
	code, err := s.rdb.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis getdel: %w", err)
	}
	return code, true, nil
}

// MemoryStore códigos en memoria del proceso.
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewMemoryStore limpia expirados cada cleanup.
func NewMemoryStore(cleanup time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, cleanup)}
}

// Put guarda o reemplaza el código.
func (s *MemoryStore) Put(_ context.Context, key, code string, ttl time.Duration) error {
	s.cache.Set(key, code, ttl)
	return nil
}

// Take lee y borra bajo el mismo lock.
func (s *MemoryStore) Take(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	s.cache.Delete(key)
	code, _ := v.(string)
	return code, true, nil
}
