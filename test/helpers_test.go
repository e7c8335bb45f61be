//go:build integration
// +build integration

package test

import (
	"context"
	"testing"
	"time"

	subAuth "github.com/MrEthical07/subAuth"
	"github.com/MrEthical07/subAuth/identity"
	"github.com/MrEthical07/subAuth/refresh"
	"github.com/MrEthical07/subAuth/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newIntegrationStore(t *testing.T) (*session.Store, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewStore(rdb, "st")

	return store, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func integrationConfig() subAuth.Config {
	cfg := subAuth.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("integration-secret-0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Audit.Enabled = false
	return cfg
}

func newIntegrationEngine(t *testing.T) (*subAuth.Engine, *identity.MemoryStore) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	identities := identity.NewMemoryStore()

	engine, err := subAuth.New().
		WithConfig(integrationConfig()).
		WithRedis(rdb).
		WithIdentityStore(identities).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return engine, identities
}

func grant(t *testing.T, store *session.Store, identityID string, h refresh.Hash, ttl time.Duration) *session.Record {
	t.Helper()

	rec, err := store.Grant(context.Background(), identityID, h, ttl, time.Now())
	if err != nil {
		t.Fatalf("grant %s: %v", identityID, err)
	}
	return rec
}

func hashByte(b byte) refresh.Hash {
	var out refresh.Hash
	for i := 0; i < len(out); i++ {
		out[i] = b
	}
	return out
}
