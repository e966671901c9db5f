// Command vms-loadtest drives the engine's login, authenticate and refresh
// paths against a seeded in-memory account set and reports latency
// percentiles per phase.
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

	vms "github.com/Code4Bharat1/VMS-BACKEND"
	"github.com/Code4Bharat1/VMS-BACKEND/accounts"
	"github.com/Code4Bharat1/VMS-BACKEND/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const seedPassword = "loadtest-password"

type accountState struct {
	email   string
	access  string
	refresh string
	mu      sync.Mutex
}

func main() {
	var (
		users       = flag.Int("accounts", 2000, "number of staff accounts to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase (authenticate + refresh)")
		cost        = flag.Int("bcrypt-cost", 4, "bcrypt cost for seeded digests")
		rotate      = flag.Bool("rotate", false, "rotate refresh tokens on every refresh")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "vms-load", "attempt and challenge key prefix")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
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

	store := accounts.NewMemoryStore()
	states, err := seedAccounts(ctx, store, *users, *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	engine, err := buildEngine(store, client, *prefix, *cost, *rotate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	loginStats := runLoginPhase(ctx, engine, states, *concurrency)
	authStats := runAuthenticatePhase(ctx, engine, states, *ops, *concurrency)
	refreshStats := runRefreshPhase(ctx, engine, states, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("authenticate", authStats)
	printStats("refresh", refreshStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("counters: login_success=%d authenticate_failure=%d refresh_success=%d refresh_revoked=%d\n",
		snap.Counters[vms.MetricLoginSuccess],
		snap.Counters[vms.MetricAuthenticateFailure],
		snap.Counters[vms.MetricRefreshSuccess],
		snap.Counters[vms.MetricRefreshRevoked],
	)
}

func seedAccounts(ctx context.Context, store *accounts.MemoryStore, n, cost int) ([]accountState, error) {
	hasher, err := password.NewBcrypt(cost)
	if err != nil {
		return nil, err
	}
	// Every seeded account shares one digest.
	digest, err := hasher.Hash(seedPassword)
	if err != nil {
		return nil, err
	}

	fmt.Printf("seeding %d accounts...\n", n)
	start := time.Now()
	states := make([]accountState, n)
	for i := 0; i < n; i++ {
		email := fmt.Sprintf("staff-%d@load.test", i)
		if _, err := store.Create(ctx, accounts.Account{
			Name:         fmt.Sprintf("Staff %d", i),
			Email:        email,
			PasswordHash: digest,
			Role:         accounts.RoleStaff,
			Active:       true,
			AssignedBay:  fmt.Sprintf("bay-%d", i%16),
		}); err != nil {
			return nil, err
		}
		states[i].email = email
	}
	fmt.Printf("seeded in %s\n", time.Since(start).Round(time.Millisecond))
	return states, nil
}

func buildEngine(store vms.AccountStore, client redis.UniversalClient, prefix string, cost int, rotate bool) (*vms.Engine, error) {
	cfg := vms.DefaultConfig()
	cfg.JWT.AccessSecret = "loadtest-access-secret-loadtest-access"
	cfg.JWT.RefreshSecret = "loadtest-refresh-secret-loadtest-refresh"
	cfg.Password.BcryptCost = cost
	cfg.Refresh.RotateOnRefresh = rotate
	cfg.Store.RedisPrefix = prefix
	cfg.Audit.Enabled = false
	cfg.Metrics.EnableLatencyHistograms = true

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return vms.New().
		WithConfig(cfg).
		WithAccountStore(store).
		WithRedis(client).
		WithLogger(logger).
		Build()
}

// runLoginPhase logs every seeded account in once, filling its tokens.
func runLoginPhase(ctx context.Context, engine *vms.Engine, states []accountState, concurrency int) phaseStats {
	return runPhase(len(states), concurrency, func(i int, _ *rand.Rand) error {
		state := &states[i]
		res, err := engine.Login(ctx, vms.LoginRequest{Email: state.email, Password: seedPassword})
		if err != nil {
			return err
		}
		state.mu.Lock()
		state.access = res.AccessToken
		state.refresh = res.RefreshToken
		state.mu.Unlock()
		return nil
	})
}

func runAuthenticatePhase(ctx context.Context, engine *vms.Engine, states []accountState, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, func(_ int, r *rand.Rand) error {
		state := &states[r.Intn(len(states))]
		state.mu.Lock()
		token := state.access
		state.mu.Unlock()
		_, err := engine.Authenticate(ctx, token)
		return err
	})
}

// runRefreshPhase holds the account lock across the call so rotated tokens
// are never presented twice.
func runRefreshPhase(ctx context.Context, engine *vms.Engine, states []accountState, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, func(_ int, r *rand.Rand) error {
		state := &states[r.Intn(len(states))]
		state.mu.Lock()
		defer state.mu.Unlock()

		res, err := engine.Refresh(ctx, state.refresh)
		if err != nil {
			return err
		}
		state.access = res.AccessToken
		if res.RefreshToken != "" {
			state.refresh = res.RefreshToken
		}
		return nil
	})
}

func runPhase(ops, concurrency int, op func(i int, r *rand.Rand) error) phaseStats {
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
				err := op(i, r)
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
	fmt.Printf("%-12s ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name+":",
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
