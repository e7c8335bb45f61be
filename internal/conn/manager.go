// Package conn owns the Postgres and Redis handles shared by the server.
package conn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrClosed is returned by IsReady after Close.
	ErrClosed = errors.New("connections closed")
	// ErrPostgresUnavailable wraps Postgres ping failures.
	ErrPostgresUnavailable = errors.New("postgres unavailable")
	// ErrRedisUnavailable wraps Redis ping failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Options configures Open.
type Options struct {
	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
}

// Manager holds one database pool and one Redis client for the process
// lifetime. It is passed by reference to whatever needs connections.
type Manager struct {
	db  *sql.DB
	rdb redis.UniversalClient

	mu     sync.Mutex
	closed bool
}

// Open dials Postgres through the pgx stdlib driver and Redis, and pings
// both before returning.
func Open(ctx context.Context, opts Options) (*Manager, error) {
	db, err := sql.Open("pgx", opts.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPostgresUnavailable, err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})

	m := New(db, rdb)
	if err := m.IsReady(ctx); err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}

// New wraps existing handles. Close closes them.
func New(db *sql.DB, rdb redis.UniversalClient) *Manager {
	return &Manager{db: db, rdb: rdb}
}

// DB returns the Postgres pool.
func (m *Manager) DB() *sql.DB { return m.db }

// Redis returns the Redis client.
func (m *Manager) Redis() redis.UniversalClient { return m.rdb }

// IsReady pings Postgres then Redis.
func (m *Manager) IsReady(ctx context.Context) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if m.db != nil {
		if err := m.db.PingContext(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrPostgresUnavailable, err)
		}
	}
	if m.rdb != nil {
		if err := m.rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return nil
}

// Close releases both handles. Calling it again is a no-op.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	if m.rdb != nil {
		if err := m.rdb.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.db != nil {
		if err := m.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
