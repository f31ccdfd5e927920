package oncemap

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func newStringMap() *Map[string, *int] {
	return New[string, *int](func(k string) string { return k })
}

func TestGetStoresSuccess(t *testing.T) {
	m := newStringMap()
	calls := 0
	compute := func() (*int, error) {
		calls++
		v := calls
		return &v, nil
	}

	a, err := m.Get("k", compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := m.Get("k", compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("expected the same pointer for repeated lookups")
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestGetDoesNotStoreFailure(t *testing.T) {
	m := newStringMap()
	boom := errors.New("boom")

	if _, err := m.Get("k", func() (*int, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := m.Lookup("k"); ok {
		t.Fatal("failure must not be stored")
	}

	v := 7
	got, err := m.Get("k", func() (*int, error) { return &v, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != &v {
		t.Errorf("expected the corrected value")
	}
}

func TestConcurrentCallersShareOneRun(t *testing.T) {
	m := newStringMap()
	var calls atomic.Int32
	release := make(chan struct{})
	v := 1

	const n = 16
	results := make([]*int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := m.Get("k", func() (*int, error) {
				calls.Add(1)
				<-release
				return &v, nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[i] = got
		}()
	}
	close(release)
	wg.Wait()

	if c := calls.Load(); c != 1 {
		t.Errorf("compute ran %d times, want 1", c)
	}
	for i, r := range results {
		if r != &v {
			t.Errorf("caller %d got a different value", i)
		}
	}
}

func TestJoinedWaiterRetries(t *testing.T) {
	m := newStringMap()
	boom := errors.New("boom")
	started := make(chan struct{})
	release := make(chan struct{})

	var first error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, first = m.Get("k", func() (*int, error) {
			close(started)
			<-release
			return nil, boom
		})
	}()
	<-started

	// The second caller either joins the failing run and retries, or starts
	// after it; both ways it ends up running its own computation.
	v := 2
	var second *int
	var secondErr error
	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		second, secondErr = m.Get("k", func() (*int, error) { return &v, nil })
	}()

	close(release)
	<-done
	<-secondDone

	if !errors.Is(first, boom) {
		t.Errorf("first caller: expected boom, got %v", first)
	}
	if secondErr != nil || second != &v {
		t.Errorf("second caller: got %v, %v", second, secondErr)
	}
}

func TestDistinctKeys(t *testing.T) {
	m := newStringMap()
	a, b := 1, 2
	x, _ := m.Get("a", func() (*int, error) { return &a, nil })
	y, _ := m.Get("b", func() (*int, error) { return &b, nil })
	if x == y {
		t.Error("distinct keys must not share values")
	}
	m.Clear()
	if m.Len() != 0 {
		t.Errorf("Len() after Clear = %d", m.Len())
	}
}
