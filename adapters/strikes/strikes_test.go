package strikes

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/elum-utils/moderate/interfaces"
)

var (
	_ interfaces.StrikeStore = (*MemoryStore)(nil)
	_ interfaces.StrikeStore = (*RedisStore)(nil)
	_ interfaces.StrikeStore = (*SQLStore)(nil)
)

func TestMemoryStoreEscalation(t *testing.T) {
	s := NewMemoryStore(MemoryOptions{Limit: 3})
	ctx := context.Background()

	for want := 1; want <= 2; want++ {
		count, banned, err := s.Increment(ctx, "actor")
		if err != nil {
			t.Fatal(err)
		}
		if count != want || banned {
			t.Fatalf("strike %d: count=%d banned=%v", want, count, banned)
		}
	}

	count, banned, err := s.Increment(ctx, "actor")
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 || !banned {
		t.Fatalf("third strike: count=%d banned=%v", count, banned)
	}
	if got := s.Count("actor"); got != 0 {
		t.Fatalf("record must be removed after ban, count=%d", got)
	}

	// A fresh strike after the ban starts over at 1.
	count, banned, _ = s.Increment(ctx, "actor")
	if count != 1 || banned {
		t.Fatalf("post-ban strike: count=%d banned=%v", count, banned)
	}
}

func TestMemoryStoreReset(t *testing.T) {
	s := NewMemoryStore(MemoryOptions{})
	ctx := context.Background()
	_, _, _ = s.Increment(ctx, "actor")
	if err := s.Reset(ctx, "actor"); err != nil {
		t.Fatal(err)
	}
	if got := s.Count("actor"); got != 0 {
		t.Fatalf("count after reset = %d", got)
	}
}

func TestMemoryStoreActorsIndependent(t *testing.T) {
	s := NewMemoryStore(MemoryOptions{Limit: 3})
	ctx := context.Background()
	_, _, _ = s.Increment(ctx, "a")
	_, _, _ = s.Increment(ctx, "a")
	count, banned, _ := s.Increment(ctx, "b")
	if count != 1 || banned {
		t.Fatalf("actor b affected by actor a: count=%d banned=%v", count, banned)
	}
}

func TestMemoryStoreConcurrentIncrements(t *testing.T) {
	const n = 50
	s := NewMemoryStore(MemoryOptions{Limit: n + 1})
	ctx := context.Background()

	counts := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, banned, err := s.Increment(ctx, "actor")
			if err != nil || banned {
				t.Errorf("unexpected increment result: banned=%v err=%v", banned, err)
				return
			}
			counts <- count
		}()
	}
	wg.Wait()
	close(counts)

	seen := make(map[int]bool, n)
	for c := range counts {
		if c < 1 || c > n || seen[c] {
			t.Fatalf("counts are not a permutation of 1..%d: duplicate or out-of-range %d", n, c)
		}
		seen[c] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct counts, got %d", n, len(seen))
	}
}

func TestMemoryStoreDecayWindow(t *testing.T) {
	s := NewMemoryStore(MemoryOptions{Limit: 3, Window: time.Minute})
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, _, _ = s.Increment(ctx, "actor")
	_, _, _ = s.Increment(ctx, "actor")

	now = now.Add(2 * time.Minute)
	count, banned, _ := s.Increment(ctx, "actor")
	if count != 1 || banned {
		t.Fatalf("expired record not restarted: count=%d banned=%v", count, banned)
	}
	if got := s.Count("actor"); got != 1 {
		t.Fatalf("count after decay = %d", got)
	}
}

func TestNewRedisStoreNilClient(t *testing.T) {
	if _, err := NewRedisStore(RedisOptions{}); err == nil {
		t.Fatal("expected error on nil client")
	}
}

func TestNewSQLStoreNilDB(t *testing.T) {
	if _, err := NewSQLStore(nil, "t", 3); err == nil {
		t.Fatal("expected error on nil db")
	}
}
