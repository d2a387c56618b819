package connector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/skillscope/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	name  string
	raws  map[string][]core.RawPosting
	err   error
	delay time.Duration
	calls atomic.Int32
	seen  atomic.Value
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) Fetch(ctx context.Context, term, location string) ([]core.RawPosting, error) {
	f.calls.Add(1)
	f.seen.Store(location)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.raws[term], nil
}

func listing(title, employer, source string) core.RawPosting {
	return core.RawPosting{Title: title, Employer: employer, SourceName: source, Description: title}
}

func titles(raws []core.RawPosting) []string {
	out := make([]string, len(raws))
	for i, r := range raws {
		out[i] = r.Title
	}
	return out
}

func TestNewManager(t *testing.T) {
	_, err := NewManager(nil)
	assert.ErrorIs(t, err, ErrNoFetchers)

	_, err = NewManager([]Fetcher{&fakeFetcher{name: "a"}}, WithFetchTimeout(0))
	assert.Error(t, err)

	m, err := NewManager([]Fetcher{&fakeFetcher{name: "a"}}, WithPoolSize(0), WithLogger(nil))
	require.NoError(t, err)
	defer m.Release()
	assert.Equal(t, 1, m.poolSize)
}

func TestFetchAll_MergesInOrderAndDedupes(t *testing.T) {
	a := &fakeFetcher{name: "a", raws: map[string][]core.RawPosting{
		"go":   {listing("Go Dev", "Acme", "a"), listing("Go Lead", "Acme", "a")},
		"rust": {listing("Rust Dev", "Acme", "a"), listing("Go Dev", "Acme", "a")},
	}, delay: 20 * time.Millisecond}
	b := &fakeFetcher{name: "b", raws: map[string][]core.RawPosting{
		"go": {listing("Go Dev", "Acme", "b"), listing("Go Dev", "Acme", "b")},
	}}

	m, err := NewManager([]Fetcher{a, b}, WithPoolSize(4))
	require.NoError(t, err)
	defer m.Release()

	raws, err := m.FetchAll(context.Background(), []string{"go", "rust"}, "Berlin", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go Dev", "Go Lead", "Go Dev", "Rust Dev"}, titles(raws))
	assert.Equal(t, "b", raws[2].SourceName, "same listing from another source is distinct")
	assert.Equal(t, int32(2), a.calls.Load())
	assert.Equal(t, "Berlin", a.seen.Load())
}

func TestFetchAll_PerSourceCap(t *testing.T) {
	a := &fakeFetcher{name: "a", raws: map[string][]core.RawPosting{
		"go": {listing("One", "X", "a"), listing("One", "X", "a"), listing("Two", "X", "a"), listing("Three", "X", "a")},
	}}
	m, err := NewManager([]Fetcher{a})
	require.NoError(t, err)
	defer m.Release()

	raws, err := m.FetchAll(context.Background(), []string{"go"}, "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two"}, titles(raws), "duplicates do not count against the cap")
}

func TestFetchAll_IsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	bad := &fakeFetcher{name: "bad", err: boom}
	good := &fakeFetcher{name: "good", raws: map[string][]core.RawPosting{"go": {listing("Go Dev", "Acme", "good")}}}

	m, err := NewManager([]Fetcher{bad, good}, WithDefaultLocation("us"))
	require.NoError(t, err)
	defer m.Release()

	raws, err := m.FetchAll(context.Background(), []string{"go"}, "", 10)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"Go Dev"}, titles(raws))
	assert.Equal(t, "us", good.seen.Load())
}

func TestFetchAll_Timeout(t *testing.T) {
	slow := &fakeFetcher{name: "slow", delay: time.Second}
	m, err := NewManager([]Fetcher{slow}, WithFetchTimeout(20*time.Millisecond))
	require.NoError(t, err)
	defer m.Release()

	raws, err := m.FetchAll(context.Background(), []string{"go"}, "", 10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, raws)
}
