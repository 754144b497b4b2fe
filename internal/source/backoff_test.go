package source

import (
	"math/rand"
	"testing"
	"time"

	"github.com/danmuck/dltkit/internal/config"
	"github.com/danmuck/dltkit/internal/testutil/testlog"
)

func TestNextBackoffDelayDeterministicNoJitter(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       false,
	}
	if got := NextBackoffDelay(cfg, 1, nil); got != 250*time.Millisecond {
		t.Fatalf("attempt1 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 2, nil); got != 500*time.Millisecond {
		t.Fatalf("attempt2 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 3, nil); got != time.Second {
		t.Fatalf("attempt3 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 6, nil); got != 5*time.Second {
		t.Fatalf("attempt6 got=%v", got)
	}
}

func TestNextBackoffDelayJitterBounds(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultBackoffConfig()
	rng := rand.New(rand.NewSource(1))
	for attempt := 2; attempt < 10; attempt++ {
		base := NextBackoffDelay(BackoffConfig{
			InitialDelay: cfg.InitialDelay,
			Multiplier:   cfg.Multiplier,
			MaxDelay:     cfg.MaxDelay,
		}, attempt, nil)
		got := NextBackoffDelay(cfg, attempt, rng)
		if got < base/2 || got > base*3/2 {
			t.Fatalf("attempt%d got=%v outside [%v,%v]", attempt, got, base/2, base*3/2)
		}
	}
	if got := NextBackoffDelay(BackoffConfig{Multiplier: 2}, 4, nil); got != 0 {
		t.Fatalf("zero initial delay got=%v", got)
	}
}

func TestBackoffFromConfig(t *testing.T) {
	testlog.Start(t)
	got := BackoffFromConfig(config.BackoffConfig{InitialDelayMS: 100, Multiplier: 3, MaxDelayMS: 900, Jitter: true})
	want := BackoffConfig{InitialDelay: 100 * time.Millisecond, Multiplier: 3, MaxDelay: 900 * time.Millisecond, Jitter: true}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}
