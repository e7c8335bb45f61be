package test

import (
	"context"
	"errors"

	subAuth "github.com/MrEthical07/subAuth"
	"github.com/MrEthical07/subAuth/audit"
	"github.com/MrEthical07/subAuth/identity"
	"github.com/redis/go-redis/v9"
)

// ExampleNew demonstrates engine construction with production-style dependencies.
func ExampleNew() {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	cfg := subAuth.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("replace-with-a-32-byte-or-longer-secret")

	engine, err := subAuth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithIdentityStore(identity.NewMemoryStore()).
		WithAuditStore(audit.NewMemoryStore()).
		Build()
	if err != nil {
		return
	}
	defer engine.Close()
}

// ExampleEngine_SignIn shows a sign-in call and structured error handling.
func ExampleEngine_SignIn() {
	var engine *subAuth.Engine
	res, err := engine.SignIn(context.Background(), "alice@example.com", "correct-horse-battery")
	switch {
	case errors.Is(err, subAuth.ErrInvalidPassword), errors.Is(err, subAuth.ErrNotFound):
		// 401
	case errors.Is(err, subAuth.ErrSignInRateLimited):
		// 429
	case errors.Is(err, subAuth.ErrStoreUnavailable):
		// 503, retry later
	case err == nil:
		_ = res.AccessToken
	}
}

// ExampleEngine_MetricsSnapshot shows how to read in-process metrics counters.
func ExampleEngine_MetricsSnapshot() {
	var engine *subAuth.Engine
	snapshot := engine.MetricsSnapshot()
	_ = snapshot.Counters[subAuth.MetricSignInSuccess]
}
