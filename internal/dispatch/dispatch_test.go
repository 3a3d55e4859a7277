package dispatch

import (
	"bytes"
	"fmt"
	"reflect"
	"testing"

	"github.com/RedstoneMedia/pictocrab/internal/cache"
	"github.com/RedstoneMedia/pictocrab/internal/pipeline"
	"github.com/RedstoneMedia/pictocrab/internal/wire"
)

func TestChunkSplitsWithRemainderFoldedIntoLast(t *testing.T) {
	paths := make([]string, WorkerCount+3)
	for i := range paths {
		paths[i] = fmt.Sprintf("p%d", i)
	}
	chunks := chunk(paths)
	if len(chunks) != WorkerCount {
		t.Fatalf("got %d chunks, want %d", len(chunks), WorkerCount)
	}
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total != len(paths) {
		t.Fatalf("got %d total paths across chunks, want %d", total, len(paths))
	}
	if len(chunks[len(chunks)-1]) <= len(chunks[0]) {
		t.Fatalf("expected the remainder folded into the last chunk to make it larger")
	}
}

func TestChunkFewerPathsThanWorkers(t *testing.T) {
	paths := []string{"a", "b", "c"}
	chunks := chunk(paths)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3 (one per path)", len(chunks))
	}
	for _, c := range chunks {
		if len(c) != 1 {
			t.Fatalf("got chunk of size %d, want 1", len(c))
		}
	}
}

func TestChunkEmpty(t *testing.T) {
	if got := chunk(nil); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

type fakeFetcher struct{}

func (fakeFetcher) Fetch(path string) ([]byte, error) { return []byte(path), nil }

// failingFetcher errors on every path in fail, and succeeds (like
// fakeFetcher) on everything else.
type failingFetcher struct{ fail map[string]bool }

func (f failingFetcher) Fetch(path string) ([]byte, error) {
	if f.fail[path] {
		return nil, fmt.Errorf("fetch failed: %s", path)
	}
	return []byte(path), nil
}

type fakeCodec struct{}

func (fakeCodec) DecodeResizeEncode(raw []byte, width, height int) ([]byte, error) {
	return append([]byte("enc:"), raw...), nil
}

func newTestPool(t *testing.T) (*Pool, *cache.Cache) {
	t.Helper()
	cfg := &cache.Config{DiskCacheDir: t.TempDir()}
	c := cache.New(cfg, nil)
	newPipeline := func() *pipeline.Pipeline {
		return &pipeline.Pipeline{Cache: c, Fetcher: fakeFetcher{}, Codec: fakeCodec{}}
	}
	pool := NewPool(c, newPipeline, nil)
	t.Cleanup(pool.Close)
	return pool, c
}

func TestGetsDispatchesAndGathersInOrder(t *testing.T) {
	pool, c := newTestPool(t)
	direct := &pipeline.Pipeline{Cache: c, Fetcher: fakeFetcher{}, Codec: fakeCodec{}}

	paths := []string{"a.png", "b.png", "c.png"}
	var buf bytes.Buffer
	if err := pool.Gets(&buf, direct, 4, 4, paths); err != nil {
		t.Fatalf("Gets: %s", err)
	}

	var got []string
	for buf.Len() > 0 {
		payload, err := wire.ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame: %s", err)
		}
		got = append(got, string(payload))
	}
	want := []string{"enc:a.png", "enc:b.png", "enc:c.png"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// TestGetsDrainsEveryReplyOnError reproduces the corruption scenario
// flagged in review: a batch where one chunk's worker errors must not
// leave its sibling workers' replies undrained in their buffered (cap
// 1) out channels, or the next gets routed to those same worker slots
// reads this batch's stale bytes instead of its own.
func TestGetsDrainsEveryReplyOnError(t *testing.T) {
	cfg := &cache.Config{DiskCacheDir: t.TempDir()}
	c := cache.New(cfg, nil)
	newPipeline := func() *pipeline.Pipeline {
		return &pipeline.Pipeline{
			Cache:   c,
			Fetcher: failingFetcher{fail: map[string]bool{"bad.png": true}},
			Codec:   fakeCodec{},
		}
	}
	pool := NewPool(c, newPipeline, nil)
	t.Cleanup(pool.Close)
	direct := &pipeline.Pipeline{Cache: c, Fetcher: newPipeline().Fetcher, Codec: fakeCodec{}}

	var failed bytes.Buffer
	if err := pool.Gets(&failed, direct, 4, 4, []string{"bad.png", "good.png"}); err == nil {
		t.Fatal("Gets: expected an error from the failing fetch, got nil")
	}

	var next bytes.Buffer
	if err := pool.Gets(&next, direct, 4, 4, []string{"x.png", "y.png"}); err != nil {
		t.Fatalf("Gets (following batch): %s", err)
	}
	var got []string
	for next.Len() > 0 {
		payload, err := wire.ReadFrame(&next)
		if err != nil {
			t.Fatalf("ReadFrame: %s", err)
		}
		got = append(got, string(payload))
	}
	want := []string{"enc:x.png", "enc:y.png"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("following batch got corrupted by undrained reply: got %v, want %v", got, want)
	}
}

func TestGetsShortCircuitsOnRepeatedFingerprint(t *testing.T) {
	pool, c := newTestPool(t)
	direct := &pipeline.Pipeline{Cache: c, Fetcher: fakeFetcher{}, Codec: fakeCodec{}}

	paths := []string{"a.png", "b.png"}
	var first bytes.Buffer
	if err := pool.Gets(&first, direct, 4, 4, paths); err != nil {
		t.Fatalf("Gets (first): %s", err)
	}

	var second bytes.Buffer
	if err := pool.Gets(&second, direct, 4, 4, paths); err != nil {
		t.Fatalf("Gets (second): %s", err)
	}
	// The short-circuit path runs the single-image pipeline directly per
	// path instead of dispatching to workers, but both cache hits, so the
	// framed output is identical to the first (worker-dispatched) call.
	if second.String() != first.String() {
		t.Fatalf("short-circuited output differs from first dispatch:\ngot  %q\nwant %q", second.String(), first.String())
	}
}
