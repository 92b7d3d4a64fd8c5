package rendezvous_test

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/rendezvous"
)

func newStore(t *testing.T) *rendezvous.Store {
	t.Helper()
	return rendezvous.New(rendezvous.Config{
		Retention:     time.Minute,
		SweepInterval: time.Hour,
		PollInterval:  5 * time.Millisecond,
	}, nil)
}

// fakeClock is advanced manually by tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestStore_RetrieveAfterPut_ExactlyOnce(t *testing.T) {
	s := newStore(t)
	s.Put("call-1", json.RawMessage(`{"success":true}`))

	got, ok := s.Retrieve("call-1")
	if !ok {
		t.Fatal("expected value on first retrieve")
	}
	if string(got) != `{"success":true}` {
		t.Fatalf("unexpected value: %s", got)
	}
	if _, ok := s.Retrieve("call-1"); ok {
		t.Fatal("second retrieve should report absent")
	}
}

func TestStore_Has_LifeCycle(t *testing.T) {
	s := newStore(t)
	if s.Has("call-1") {
		t.Fatal("has before put")
	}
	s.Put("call-1", json.RawMessage(`{}`))
	if !s.Has("call-1") {
		t.Fatal("has after put")
	}
	if !s.Has("call-1") {
		t.Fatal("has must not consume")
	}
	s.Retrieve("call-1")
	if s.Has("call-1") {
		t.Fatal("has after retrieve")
	}
}

func TestStore_Put_LastWriteWins(t *testing.T) {
	s := newStore(t)
	s.Put("call-1", json.RawMessage(`{"v":1}`))
	s.Put("call-1", json.RawMessage(`{"v":2}`))
	if n := s.Len(); n != 1 {
		t.Fatalf("len = %d, want 1", n)
	}
	got, _ := s.Retrieve("call-1")
	if string(got) != `{"v":2}` {
		t.Fatalf("got %s, want last write", got)
	}
}

func TestStore_FalsyPayloadsArePresent(t *testing.T) {
	s := newStore(t)
	for i, raw := range []string{`false`, `0`, `""`, `null`, `{}`} {
		id := fmt.Sprintf("call-%d", i)
		s.Put(id, json.RawMessage(raw))
		got, ok := s.Retrieve(id)
		if !ok {
			t.Fatalf("%s: falsy payload reported absent", raw)
		}
		if string(got) != raw {
			t.Fatalf("%s: got %s", raw, got)
		}
	}
}

func TestStore_Sweep_EvictsExpired(t *testing.T) {
	s := newStore(t)
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s.SetClock(clock.Now)

	s.Put("old", json.RawMessage(`{}`))
	clock.Advance(45 * time.Second)
	s.Put("young", json.RawMessage(`{}`))
	clock.Advance(30 * time.Second) // old is 75s, young is 30s

	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if s.Has("old") {
		t.Fatal("expired entry survived sweep")
	}
	if !s.Has("young") {
		t.Fatal("fresh entry evicted")
	}
}

func TestStore_Sweep_DoesNotAffectConsumedValue(t *testing.T) {
	s := newStore(t)
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s.SetClock(clock.Now)

	s.Put("call-1", json.RawMessage(`{"kept":true}`))
	got, ok := s.Retrieve("call-1")
	clock.Advance(10 * time.Minute)
	s.Sweep()

	if !ok || string(got) != `{"kept":true}` {
		t.Fatalf("consumed value changed: %s ok=%v", got, ok)
	}
}

func TestStore_Wait_WakesOnPut(t *testing.T) {
	s := rendezvous.New(rendezvous.Config{PollInterval: time.Hour, Retention: time.Minute}, nil)

	go func() {
		time.Sleep(20 * time.Millisecond)
		s.Put("call-1", json.RawMessage(`{"success":true}`))
	}()

	start := time.Now()
	got, ok := s.Wait(context.Background(), "call-1", 5*time.Second)
	if !ok {
		t.Fatal("wait timed out")
	}
	if string(got) != `{"success":true}` {
		t.Fatalf("got %s", got)
	}
	// Poll interval is an hour, so only the notification could have woken us.
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("wait took %v", elapsed)
	}
	if s.Has("call-1") {
		t.Fatal("wait must consume the result")
	}
}

func TestStore_Wait_ReturnsAlreadyStored(t *testing.T) {
	s := newStore(t)
	s.Put("call-1", json.RawMessage(`{"early":true}`))
	got, ok := s.Wait(context.Background(), "call-1", time.Second)
	if !ok || string(got) != `{"early":true}` {
		t.Fatalf("got %s ok=%v", got, ok)
	}
}

func TestStore_Wait_TimesOut(t *testing.T) {
	s := newStore(t)
	start := time.Now()
	_, ok := s.Wait(context.Background(), "never", 50*time.Millisecond)
	if ok {
		t.Fatal("expected timeout")
	}
	elapsed := time.Since(start)
	if elapsed < 50*time.Millisecond || elapsed > 2*time.Second {
		t.Fatalf("wait returned after %v", elapsed)
	}
}

func TestStore_Wait_StopsOnCancel(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	if _, ok := s.Wait(ctx, "never", 10*time.Second); ok {
		t.Fatal("expected no result after cancel")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("cancel not observed promptly: %v", elapsed)
	}
}

func TestStore_Wait_AtMostOneDeliveryAcrossWaiters(t *testing.T) {
	s := newStore(t)
	var delivered atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.Wait(context.Background(), "shared", 200*time.Millisecond); ok {
				delivered.Add(1)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	s.Put("shared", json.RawMessage(`{}`))
	wg.Wait()

	if n := delivered.Load(); n != 1 {
		t.Fatalf("delivered %d times, want 1", n)
	}
}

func TestStore_ConcurrentWritersAndReaders(t *testing.T) {
	s := newStore(t)
	const n = 200
	var wg sync.WaitGroup
	var got atomic.Int32

	for i := 0; i < n; i++ {
		id := fmt.Sprintf("call-%d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Put(id, json.RawMessage(`{"success":true}`))
		}()
		go func() {
			defer wg.Done()
			if _, ok := s.Wait(context.Background(), id, 2*time.Second); ok {
				got.Add(1)
			}
		}()
	}
	wg.Wait()

	if int(got.Load()) != n {
		t.Fatalf("received %d of %d results", got.Load(), n)
	}
	if s.Len() != 0 {
		t.Fatalf("store should be drained, len=%d", s.Len())
	}
}

func TestStore_StartStop_SweepsPeriodically(t *testing.T) {
	s := rendezvous.New(rendezvous.Config{
		Retention:     10 * time.Millisecond,
		SweepInterval: 10 * time.Millisecond,
	}, nil)
	s.Put("abandoned", json.RawMessage(`{}`))
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for s.Has("abandoned") {
		if time.Now().After(deadline) {
			t.Fatal("sweep never evicted abandoned entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStore_Stop_Idempotent(t *testing.T) {
	s := newStore(t)
	s.Stop()
	s.Start()
	s.Stop()
	s.Stop()
}

func TestStore_Start_TwiceKeepsOneSweeper(t *testing.T) {
	s := newStore(t)
	base := runtime.NumGoroutine()
	s.Start()
	s.Start()
	s.Stop()

	deadline := time.Now().Add(time.Second)
	for runtime.NumGoroutine() > base {
		if time.Now().After(deadline) {
			t.Fatalf("goroutines = %d after Stop, want <= %d", runtime.NumGoroutine(), base)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
