package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestRateRepo(t *testing.T) (*RateRepo, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })

	return NewRateRepo(client), mr
}

func TestRateRepoIncrementWindow(t *testing.T) {
	repo, _ := newTestRateRepo(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, ttl, err := repo.IncrementWindow(ctx, "rate:swipes:min:1", time.Minute)
		if err != nil {
			t.Fatalf("IncrementWindow: %v", err)
		}
		if got != want {
			t.Fatalf("count = %d, want %d", got, want)
		}
		if ttl <= 0 || ttl > time.Minute {
			t.Fatalf("ttl = %v, want within (0, 1m]", ttl)
		}
	}

	state, ttl, err := repo.WindowState(ctx, "rate:swipes:min:1")
	if err != nil {
		t.Fatalf("WindowState: %v", err)
	}
	if state != 3 {
		t.Fatalf("state = %d, want 3", state)
	}
	if ttl <= 0 {
		t.Fatalf("ttl = %v, want > 0", ttl)
	}
}

func TestRateRepoWindowExpires(t *testing.T) {
	repo, mr := newTestRateRepo(t)
	ctx := context.Background()

	if _, _, err := repo.IncrementWindow(ctx, "rate:swipes:min:1", 10*time.Second); err != nil {
		t.Fatalf("IncrementWindow: %v", err)
	}

	mr.FastForward(11 * time.Second)

	got, _, err := repo.IncrementWindow(ctx, "rate:swipes:min:1", 10*time.Second)
	if err != nil {
		t.Fatalf("IncrementWindow after expiry: %v", err)
	}
	if got != 1 {
		t.Fatalf("count after expiry = %d, want 1", got)
	}
}

func TestRateRepoWindowStateMissingKey(t *testing.T) {
	repo, _ := newTestRateRepo(t)

	state, ttl, err := repo.WindowState(context.Background(), "rate:swipes:min:absent")
	if err != nil {
		t.Fatalf("WindowState: %v", err)
	}
	if state != 0 || ttl != 0 {
		t.Fatalf("state = %d ttl = %v, want 0 and 0", state, ttl)
	}
}
