// Command subauth-loadtest measures session lookup and refresh rotation
// latency against Redis and checks that racing rotations of one token
// produce exactly one winner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/subAuth/refresh"
	"github.com/MrEthical07/subAuth/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type seeded struct {
	mu   sync.Mutex
	hash refresh.Hash
}

func main() {
	var (
		sessions    = flag.Int("sessions", 20000, "number of sessions to seed")
		identities  = flag.Int("identities", 2000, "number of distinct identities")
		concurrency = flag.Int("concurrency", 128, "concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase")
		racers      = flag.Int("racers", 16, "goroutines racing on one token in the race phase")
		raceTokens  = flag.Int("race-tokens", 500, "tokens raced in the race phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; REDIS_ADDR or an in-process miniredis when empty")
		prefix      = flag.String("prefix", "lt", "session key prefix")
	)
	flag.Parse()

	if *sessions <= 0 || *identities <= 0 || *concurrency <= 0 || *ops <= 0 || *racers < 2 {
		fmt.Fprintln(os.Stderr, "sessions, identities, concurrency and ops must be > 0; racers must be >= 2")
		os.Exit(2)
	}

	client, cleanup, err := connect(*redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx := context.Background()
	store := session.NewStore(client, *prefix)
	ttl := 24 * time.Hour

	states := make([]seeded, *sessions)
	fmt.Printf("seeding %d sessions over %d identities...\n", *sessions, *identities)
	start := time.Now()
	for i := range states {
		_, h, err := refresh.New()
		if err != nil {
			fail("token: %v", err)
		}
		if _, err := store.Grant(ctx, fmt.Sprintf("id-%d", i%*identities), h, ttl, time.Now()); err != nil {
			fail("grant: %v", err)
		}
		states[i].hash = h
	}
	fmt.Printf("seeded in %s\n", time.Since(start).Round(time.Millisecond))

	lookup := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		s := &states[r.Intn(len(states))]
		s.mu.Lock()
		h := s.hash
		s.mu.Unlock()
		_, err := store.Lookup(ctx, h)
		return err
	})

	rotate := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		s := &states[r.Intn(len(states))]
		s.mu.Lock()
		defer s.mu.Unlock()
		_, next, err := refresh.New()
		if err != nil {
			return err
		}
		if _, err := store.Rotate(ctx, s.hash, next, ttl, time.Now()); err != nil {
			return err
		}
		s.hash = next
		return nil
	})

	violations := racePhase(ctx, store, states, *raceTokens, *racers, ttl)

	fmt.Println("---- results ----")
	printStats("lookup", lookup)
	printStats("rotate", rotate)
	fmt.Printf("race: tokens=%d racers=%d violations=%d\n", min(*raceTokens, len(states)), *racers, violations)
	if violations > 0 {
		os.Exit(1)
	}
}

func connect(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

// racePhase rotates each of the first n tokens from racers goroutines at
// once and counts tokens that did not end with exactly one success.
func racePhase(ctx context.Context, store *session.Store, states []seeded, n, racers int, ttl time.Duration) int {
	if n > len(states) {
		n = len(states)
	}
	violations := 0
	for i := 0; i < n; i++ {
		old := states[i].hash
		var (
			wg      sync.WaitGroup
			wins    atomic.Int32
			unknown atomic.Int32
			gate    = make(chan struct{})
		)
		for g := 0; g < racers; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, next, err := refresh.New()
				if err != nil {
					unknown.Add(1)
					return
				}
				<-gate
				_, err = store.Rotate(ctx, old, next, ttl, time.Now())
				switch {
				case err == nil:
					wins.Add(1)
				case errors.Is(err, session.ErrSessionNotFound):
				default:
					unknown.Add(1)
				}
			}()
		}
		close(gate)
		wg.Wait()
		if wins.Load() != 1 || unknown.Load() != 0 {
			violations++
		}
	}
	return violations
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
}

func runPhase(ops, concurrency int, op func(r *rand.Rand) error) phaseStats {
	var (
		wg       sync.WaitGroup
		cursor   atomic.Int64
		failures atomic.Int64
		mu       sync.Mutex
		samples  = make([]time.Duration, 0, ops)
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			local := make([]time.Duration, 0, ops/concurrency+1)
			for cursor.Add(1) <= int64(ops) {
				t0 := time.Now()
				if err := op(r); err != nil {
					failures.Add(1)
				}
				local = append(local, time.Since(t0))
			}
			mu.Lock()
			samples = append(samples, local...)
			mu.Unlock()
		}(w)
	}
	wg.Wait()

	total := time.Since(start)
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures.Load(),
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
	}
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[(len(sorted)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	var perSec float64
	if s.total > 0 {
		perSec = float64(s.ops) / s.total.Seconds()
	}
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name, s.ops, s.failures, s.total.Round(time.Millisecond), perSec,
		s.p50.Round(time.Microsecond), s.p95.Round(time.Microsecond), s.p99.Round(time.Microsecond))
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
