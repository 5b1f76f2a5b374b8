// Command admingate-loadtest measures session store throughput: it seeds
// one session record per simulated client context, then runs a read phase
// (the IsAdmin hot path) and an extend phase (expiry rewrite) against
// Redis. Without -redis-addr an embedded miniredis is used.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/thestare/admingate/session"
)

func main() {
	var (
		contexts    = flag.Int("contexts", 100000, "number of client contexts to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (read + extend)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		keyPrefix   = flag.String("key-prefix", "admingate:session", "storage key prefix")
		duration    = flag.Duration("session-duration", 8*time.Hour, "session duration for seeded records")
	)
	flag.Parse()

	if *contexts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "contexts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	// One store per client context, each bound to its own storage key.
	stores := make([]session.Store, *contexts)
	fmt.Printf("seeding %d contexts...\n", *contexts)
	startSeed := time.Now()
	now := time.Now()
	for i := 0; i < *contexts; i++ {
		key := fmt.Sprintf("%s:%d", *keyPrefix, i)
		store := session.NewRedis(client, key, *duration+time.Hour)
		stores[i] = store

		rec := session.Record{
			Authenticated:   true,
			UserID:          fmt.Sprintf("u-%d", i),
			ExpiresAt:       now.Add(*duration).Unix(),
			LastRoleCheckAt: now.Unix(),
		}
		if err := store.Write(ctx, rec.AsPatch()); err != nil {
			fmt.Fprintf(os.Stderr, "seed write failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	readStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		store := stores[r.Intn(len(stores))]
		rec, err := store.Read(ctx)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("record missing")
		}
		return nil
	})

	extendStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		store := stores[r.Intn(len(stores))]
		expiresAt := time.Now().Add(*duration).Unix()
		return store.Write(ctx, session.Patch{ExpiresAt: &expiresAt})
	})

	fmt.Println("---- results ----")
	printStats("read", readStats)
	printStats("extend", extendStats)
}

func runPhase(ops, concurrency int, op func(*rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
