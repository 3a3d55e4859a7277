package dispatch

import (
	"bytes"

	"github.com/RedstoneMedia/pictocrab/internal/pipeline"
)

// request is what the dispatcher sends to a worker's channel: the
// width/height for this chunk, plus the ordered list of paths routed to
// it (spec.md §3 "WorkerChannel").
type request struct {
	width, height int
	paths         []string
}

// reply carries the concatenated, self-framed bitmap bytes for one
// chunk. Each image inside is already length-prefixed by
// pipeline.Pipeline.Get, so the dispatcher can write a reply verbatim
// without parsing it (spec.md §4.5 "Rationale").
type reply struct {
	data []byte
	err  error
}

// worker is one of the fixed WorkerCount long-lived goroutines described
// in spec.md §4.6, modeled directly on tenant/dcache/worker.go's
// `for res := range q.out` loop over a channel of work.
type worker struct {
	id       int
	pipeline *pipeline.Pipeline
	in       chan request
	out      chan reply
	logger   Logger
}

func newWorker(id int, p *pipeline.Pipeline, logger Logger) *worker {
	return &worker{
		id:       id,
		pipeline: p,
		in:       make(chan request),
		out:      make(chan reply, 1),
		logger:   logger,
	}
}

// run is the worker's unbounded loop (spec.md §4.6). A receive error on
// its request channel (the channel being closed) terminates the worker
// and closes its reply channel; per spec.md §9's open question, the pool
// is not respawned, so a later Gets that routes a chunk to this worker
// slot panics on the send to its closed request channel — matched as
// specified rather than guarded against.
func (w *worker) run() {
	defer close(w.out)
	for req := range w.in {
		var buf bytes.Buffer
		var err error
		for _, path := range req.paths {
			if gerr := w.pipeline.Get(&buf, path, req.width, req.height); gerr != nil {
				err = gerr
				break
			}
		}
		w.out <- reply{data: buf.Bytes(), err: err}
	}
	if w.logger != nil {
		w.logger.Printf("dispatch: worker %d exiting (request channel closed)", w.id)
	}
}
