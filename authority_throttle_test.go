package admingate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newThrottledAuthority(t *testing.T) (*testAuthority, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := &fakeStore{}
	provider := newFakeProvider()
	clock := newTestClock()

	cfg := defaultConfig()
	cfg.Security.EnableSignInThrottle = true
	cfg.Security.EnableIPThrottle = true
	cfg.Security.MaxSignInAttempts = 2
	cfg.Security.SignInCooldown = time.Minute

	authority, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithStore(store).
		WithProvider(provider).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(authority.Close)

	return &testAuthority{
		authority: authority,
		store:     store,
		provider:  provider,
		clock:     clock,
	}, mr
}

func TestSignInThrottleExhaustion(t *testing.T) {
	ta, _ := newThrottledAuthority(t)
	ta.addAdmin()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := ta.authority.SignIn(ctx, "admin@example.com", "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: got %v", i, err)
		}
	}

	// The budget is spent; even the correct secret is rejected.
	err := ta.authority.SignIn(ctx, "admin@example.com", "opensesame123")
	if !errors.Is(err, ErrSignInRateLimited) {
		t.Fatalf("expected ErrSignInRateLimited, got %v", err)
	}
}

func TestSignInThrottleCooldownRecovers(t *testing.T) {
	ta, mr := newThrottledAuthority(t)
	ta.addAdmin()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ta.authority.SignIn(ctx, "admin@example.com", "wrong")
	}
	mr.FastForward(2 * time.Minute)

	if err := ta.authority.SignIn(ctx, "admin@example.com", "opensesame123"); err != nil {
		t.Fatalf("expected sign-in after cooldown, got %v", err)
	}
}

func TestSignInSuccessResetsThrottle(t *testing.T) {
	ta, _ := newThrottledAuthority(t)
	ta.addAdmin()
	ctx := context.Background()

	ta.authority.SignIn(ctx, "admin@example.com", "wrong")
	if err := ta.authority.SignIn(ctx, "admin@example.com", "opensesame123"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	// Counter was reset: the full budget is available again.
	for i := 0; i < 2; i++ {
		err := ta.authority.SignIn(ctx, "admin@example.com", "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d after reset: got %v", i, err)
		}
	}
}

func TestSignInPerIPThrottle(t *testing.T) {
	ta, _ := newThrottledAuthority(t)
	ta.addAdmin()

	ctx := WithClientIP(context.Background(), "198.51.100.4")
	for _, probe := range []string{"probe-a@example.com", "probe-b@example.com", "probe-c@example.com"} {
		ta.authority.SignIn(ctx, probe, "wrong")
	}

	// Same IP probing yet another identifier is cut off by the IP counter.
	err := ta.authority.SignIn(ctx, "probe-d@example.com", "wrong")
	if !errors.Is(err, ErrSignInRateLimited) {
		t.Fatalf("expected IP throttle, got %v", err)
	}
}
