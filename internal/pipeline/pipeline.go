// Package pipeline implements the single-image `get` operation
// described in spec.md §4.4: cache lookup, and on miss, fetch -> decode/
// resize/encode -> cache insert -> frame write.
package pipeline

import (
	"io"

	"github.com/RedstoneMedia/pictocrab/internal/cache"
	"github.com/RedstoneMedia/pictocrab/internal/codec"
	"github.com/RedstoneMedia/pictocrab/internal/fetch"
	"github.com/RedstoneMedia/pictocrab/internal/wire"
)

// Pipeline bundles the collaborators a single Get call needs. It holds
// no per-request state. The connection loop and each dispatch worker get
// their own Pipeline (and their own *fetch.Client), all configured
// against the one shared cache.
type Pipeline struct {
	Cache   *cache.Cache
	Fetcher fetch.Fetcher
	Codec   codec.Codec
}

// Get runs spec.md §4.4 against dst. On a cache hit, it frames and
// writes the cached bytes without touching the fetcher or codec. On a
// miss, it fetches, decodes/resizes/encodes, inserts into the cache,
// and then frames and writes the result. Any step's failure aborts the
// request with the originating error.
func (p *Pipeline) Get(dst io.Writer, path string, width, height int) error {
	cached, ok, err := p.Cache.Lookup(path)
	if err != nil {
		return err
	}
	if ok {
		p.Cache.RecordHit()
		return wire.WriteFrame(dst, cached)
	}
	p.Cache.RecordMiss()

	raw, err := p.Fetcher.Fetch(path)
	if err != nil {
		return err
	}
	encoded, err := p.Codec.DecodeResizeEncode(raw, width, height)
	if err != nil {
		return err
	}
	if err := p.Cache.Insert(path, encoded); err != nil {
		return err
	}
	return wire.WriteFrame(dst, encoded)
}
