package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

var testEntries = []Entry{
	{Abbreviation: "DIANT", FullText: "DIANTEIRO"},
	{Abbreviation: "PARA-CH", FullText: "PARA-CHOQUE"},
	{Abbreviation: "PARA", FullText: "PARALAMA"},
	{Abbreviation: "LE", FullText: "LADO ESQUERDO"},
}

func TestExpandWholeWordLongestFirst(t *testing.T) {
	exp := NewExpander(testEntries)
	cases := map[string]string{
		"para-ch diant le": "PARA-CHOQUE DIANTEIRO LADO ESQUERDO",
		"Para Diant":       "PARALAMA DIANTEIRO",
		"PARAFUSO LEME":    "PARAFUSO LEME",
		"farol (le)":       "farol (LADO ESQUERDO)",
		"diant2":           "diant2",
		"":                 "",
	}
	for in, want := range cases {
		if got := exp.Expand(in); got != want {
			t.Fatalf("Expand(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestExpandDoesNotReexpandOutput(t *testing.T) {
	exp := NewExpander([]Entry{{Abbreviation: "A", FullText: "A B"}, {Abbreviation: "B", FullText: "X"}})
	if got := exp.Expand("a"); got != "A B" {
		t.Fatalf("expected single-pass expansion, got %q", got)
	}
}

func TestCacheReloadsAfterTTL(t *testing.T) {
	var calls atomic.Int32
	c := New(5*time.Minute, func(context.Context, tenancy.Scope) ([]Entry, error) {
		calls.Add(1)
		return testEntries, nil
	})
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	scope := tenancy.ForUser(uuid.New())

	for range 3 {
		if _, err := c.Expander(context.Background(), scope); err != nil {
			t.Fatalf("Expander returned error: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 load within TTL, got %d", calls.Load())
	}

	now = now.Add(5 * time.Minute)
	if _, err := c.Expander(context.Background(), scope); err != nil {
		t.Fatalf("Expander returned error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected reload after TTL, got %d loads", calls.Load())
	}
}

func TestCacheInvalidateForcesReload(t *testing.T) {
	var calls atomic.Int32
	c := New(time.Hour, func(context.Context, tenancy.Scope) ([]Entry, error) {
		calls.Add(1)
		return nil, nil
	})
	scope := tenancy.ForUser(uuid.New())

	_, _ = c.Expander(context.Background(), scope)
	LocalInvalidator{Cache: c}.Invalidate(context.Background())
	_, _ = c.Expander(context.Background(), scope)

	if calls.Load() != 2 {
		t.Fatalf("expected reload after invalidate, got %d loads", calls.Load())
	}
}

func TestInvalidateDuringLoadDoesNotCacheStaleTable(t *testing.T) {
	var calls atomic.Int32
	var current atomic.Value
	current.Store("OLD")
	started := make(chan struct{})
	release := make(chan struct{})

	c := New(time.Hour, func(context.Context, tenancy.Scope) ([]Entry, error) {
		full := current.Load().(string)
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return []Entry{{Abbreviation: "PC", FullText: full}}, nil
	})
	scope := tenancy.ForUser(uuid.New())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Expander(context.Background(), scope)
	}()

	<-started
	current.Store("NEW")
	c.Invalidate()
	close(release)
	<-done

	exp, err := c.Expander(context.Background(), scope)
	if err != nil {
		t.Fatalf("Expander returned error: %v", err)
	}
	if got := exp.Expand("PC"); got != "NEW" {
		t.Fatalf("expected fresh table after invalidate, got %q (loads=%d)", got, calls.Load())
	}
}

func TestRedisInvalidationReachesOtherProcess(t *testing.T) {
	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr()

	var calls atomic.Int32
	remote := New(time.Hour, func(context.Context, tenancy.Scope) ([]Entry, error) {
		calls.Add(1)
		return nil, nil
	})
	listener, err := NewRedisInvalidator(url, remote, logger.Nop())
	if err != nil {
		t.Fatalf("NewRedisInvalidator: %v", err)
	}
	defer listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = listener.Listen(ctx) }()

	waitFor(t, func() bool { return mr.PubSubNumSub(InvalidationChannel)[InvalidationChannel] > 0 })

	scope := tenancy.ForUser(uuid.New())
	_, _ = remote.Expander(context.Background(), scope)

	local := New(time.Hour, func(context.Context, tenancy.Scope) ([]Entry, error) { return nil, nil })
	publisher, err := NewRedisInvalidator(url, local, logger.Nop())
	if err != nil {
		t.Fatalf("NewRedisInvalidator: %v", err)
	}
	defer publisher.Close()
	publisher.Invalidate(context.Background())

	waitFor(t, func() bool {
		_, _ = remote.Expander(context.Background(), scope)
		return calls.Load() >= 2
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
