package topics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// stubFetcher counts collaborator calls per id and can block or fail on
// demand.
type stubFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	fail    map[string]error
	started chan string
	gate    chan struct{}
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{calls: map[string]int{}, fail: map[string]error{}}
}

func (f *stubFetcher) FetchTopics(ctx context.Context, id string) ([]Topic, error) {
	f.mu.Lock()
	f.calls[id]++
	f.mu.Unlock()

	if f.started != nil {
		select {
		case f.started <- id:
		default:
		}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.fail[id]; err != nil {
		return nil, err
	}
	return []Topic{{ID: id + "-t1", Text: "summary for " + id}}, nil
}

func (f *stubFetcher) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func TestFetch_ReadyEntry(t *testing.T) {
	f := newStubFetcher()
	c := NewCache(f)

	e := c.Fetch(context.Background(), "l0-1")
	if e.Status != StatusReady {
		t.Fatalf("expected ready, got %v (err %q)", e.Status, e.Err)
	}
	if len(e.Topics) != 1 || e.Topics[0].Text != "summary for l0-1" {
		t.Errorf("unexpected topics %v", e.Topics)
	}

	got, ok := c.Get("l0-1")
	if !ok || got.Status != StatusReady {
		t.Errorf("Get should return the settled entry, got %v %v", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}

func TestFetch_SecondCallUsesCache(t *testing.T) {
	f := newStubFetcher()
	c := NewCache(f)

	c.Fetch(context.Background(), "l0-1")
	c.Fetch(context.Background(), "l0-1")
	if got := f.callCount("l0-1"); got != 1 {
		t.Errorf("expected one collaborator call, got %d", got)
	}
}

func TestFetch_ConcurrentCallsShareOneFlight(t *testing.T) {
	f := newStubFetcher()
	f.gate = make(chan struct{})
	f.started = make(chan string, 1)
	c := NewCache(f)

	var wg sync.WaitGroup
	results := make([]Entry, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = c.Fetch(context.Background(), "l0-1")
	}()
	<-f.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1] = c.Fetch(context.Background(), "l0-1")
	}()
	// Give the second caller a moment to join the in-flight fetch; even if
	// it arrives late it must reuse the settled entry.
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	if got := f.callCount("l0-1"); got != 1 {
		t.Fatalf("expected one collaborator call, got %d", got)
	}
	for i, e := range results {
		if e.Status != StatusReady {
			t.Errorf("caller %d: expected ready, got %v", i, e.Status)
		}
		if len(e.Topics) != 1 || e.Topics[0].ID != "l0-1-t1" {
			t.Errorf("caller %d: unexpected topics %v", i, e.Topics)
		}
	}
}

func TestFetch_ErrorIsolatedPerKey(t *testing.T) {
	f := newStubFetcher()
	f.fail["x"] = errors.New("collaborator exploded")
	c := NewCache(f)

	bad := c.Fetch(context.Background(), "x")
	good := c.Fetch(context.Background(), "y")

	if bad.Status != StatusError {
		t.Fatalf("expected error entry for x, got %v", bad.Status)
	}
	if bad.Err != "collaborator exploded" {
		t.Errorf("expected the collaborator message, got %q", bad.Err)
	}
	if good.Status != StatusReady {
		t.Errorf("failure for x should not touch y, got %v", good.Status)
	}

	// Settled errors stay put; no automatic retry.
	again := c.Fetch(context.Background(), "x")
	if again.Status != StatusError {
		t.Errorf("expected the cached error entry, got %v", again.Status)
	}
	if got := f.callCount("x"); got != 1 {
		t.Errorf("expected one collaborator call for x, got %d", got)
	}
}

func TestRequest_CompletesThroughCallback(t *testing.T) {
	f := newStubFetcher()
	done := make(chan Entry, 2)
	c := NewCache(f, WithCallback(func(id string, e Entry) { done <- e }))

	c.Request("l0-1")
	select {
	case e := <-done:
		if e.Status != StatusReady {
			t.Fatalf("expected ready, got %v", e.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not complete")
	}

	// A second request for a settled id is a no-op.
	c.Request("l0-1")
	time.Sleep(50 * time.Millisecond)
	if got := f.callCount("l0-1"); got != 1 {
		t.Errorf("expected one collaborator call, got %d", got)
	}
	if len(done) != 0 {
		t.Error("no-op request should not complete again")
	}
}

func TestRefresh_RefetchesSettledEntry(t *testing.T) {
	f := newStubFetcher()
	c := NewCache(f)

	c.Fetch(context.Background(), "l0-1")
	e := c.Refresh(context.Background(), "l0-1")
	if e.Status != StatusReady {
		t.Fatalf("expected ready after refresh, got %v", e.Status)
	}
	if got := f.callCount("l0-1"); got != 2 {
		t.Errorf("refresh should refetch, got %d calls", got)
	}
}

func TestFetch_CancelledContextLeavesNoEntry(t *testing.T) {
	f := newStubFetcher()
	f.gate = make(chan struct{})
	f.started = make(chan string, 1)
	c := NewCache(f)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan Entry, 1)
	go func() { result <- c.Fetch(ctx, "l0-1") }()
	<-f.started
	cancel()

	e := <-result
	if e.Settled() {
		t.Fatalf("cancelled fetch should not settle, got %v", e.Status)
	}
	if _, ok := c.Get("l0-1"); ok {
		t.Error("cancelled fetch should leave no entry behind")
	}

	// The id can be fetched again afterwards.
	close(f.gate)
	e = c.Fetch(context.Background(), "l0-1")
	if e.Status != StatusReady {
		t.Errorf("expected ready on retry, got %v", e.Status)
	}
	if got := f.callCount("l0-1"); got != 2 {
		t.Errorf("expected two collaborator calls, got %d", got)
	}
}

func TestPrefetch_WarmsAllWithIsolatedFailures(t *testing.T) {
	f := newStubFetcher()
	f.fail["b"] = errors.New("nope")
	c := NewCache(f, WithParallelism(2))

	if err := c.Prefetch(context.Background(), []string{"a", "b", "c"}); err != nil {
		t.Fatalf("Prefetch error: %v", err)
	}
	for _, tc := range []struct {
		id   string
		want Status
	}{
		{"a", StatusReady},
		{"b", StatusError},
		{"c", StatusReady},
	} {
		e, ok := c.Get(tc.id)
		if !ok || e.Status != tc.want {
			t.Errorf("%s: expected %v, got %v (present %v)", tc.id, tc.want, e.Status, ok)
		}
	}
	for _, id := range []string{"a", "b", "c"} {
		if got := f.callCount(id); got != 1 {
			t.Errorf("%s: expected one call, got %d", id, got)
		}
	}
}

func TestPrefetch_CancelledContext(t *testing.T) {
	f := newStubFetcher()
	c := NewCache(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Prefetch(ctx, []string{"a", "b"}); err == nil {
		t.Error("expected a context error")
	}
	if c.Len() != 0 {
		t.Errorf("cancelled prefetch should not create entries, got %d", c.Len())
	}
}

func TestFetcherFunc_Adapts(t *testing.T) {
	c := NewCache(FetcherFunc(func(ctx context.Context, id string) ([]Topic, error) {
		return []Topic{{ID: "t", Text: "via func"}}, nil
	}))
	e := c.Fetch(context.Background(), "any")
	if e.Status != StatusReady || e.Topics[0].Text != "via func" {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestStatus_String(t *testing.T) {
	cases := []struct {
		s    Status
		want string
	}{
		{StatusLoading, "loading"},
		{StatusReady, "ready"},
		{StatusError, "error"},
		{Status(99), "unknown"},
	}
	for _, tc := range cases {
		if got := tc.s.String(); got != tc.want {
			t.Errorf("expected %q, got %q", tc.want, got)
		}
	}
}
