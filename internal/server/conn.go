// Package server implements the per-client connection loop described in
// spec.md §4.8, grounded on tenant/manager.go's Manager.Serve/
// handleRemote accept-and-service shape.
package server

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/RedstoneMedia/pictocrab/internal/cache"
	"github.com/RedstoneMedia/pictocrab/internal/command"
	"github.com/RedstoneMedia/pictocrab/internal/dispatch"
	"github.com/RedstoneMedia/pictocrab/internal/pipeline"
	"github.com/RedstoneMedia/pictocrab/internal/wire"
)

// Logger is satisfied by *log.Logger.
type Logger interface {
	Printf(format string, args ...any)
}

// Conn owns everything one accepted client connection needs to service
// commands: the shared cache/config (one process-wide instance), the
// worker pool, and a Pipeline used both for plain `get` and for the
// fully-cached `gets` short circuit (spec.md §4.5 step 2).
type Conn struct {
	Stream   io.ReadWriter
	Cache    *cache.Cache
	Config   *cache.Config
	Pool     *dispatch.Pool
	Pipeline *pipeline.Pipeline
	Logger   Logger

	id string
}

// NewConn tags the connection with a correlation id for logging,
// grounded on elasticproxy/proxy_http/logging.go's per-request
// uuid.New().String().
func NewConn(stream io.ReadWriter, c *cache.Cache, cfg *cache.Config, pool *dispatch.Pool, p *pipeline.Pipeline, logger Logger) *Conn {
	return &Conn{
		Stream:   stream,
		Cache:    c,
		Config:   cfg,
		Pool:     pool,
		Pipeline: p,
		Logger:   logger,
		id:       uuid.New().String(),
	}
}

// Loop reads frames until the client disconnects cleanly (EOF on the
// length prefix) or a transport error occurs, dispatching each frame's
// command text to handleFrame. Individual command failures do not end
// the loop — they are logged and the loop continues to the next frame,
// matching spec.md §7's propagation policy.
func (c *Conn) Loop() {
	c.logf("connected")
	defer c.logf("disconnected")
	for {
		payload, err := wire.ReadFrame(c.Stream)
		if err == io.EOF {
			return
		}
		if err != nil {
			c.logf("transport error, ending connection: %s", err)
			return
		}
		c.handleFrame(string(payload))
	}
}

func (c *Conn) handleFrame(text string) {
	defer func() {
		if r := recover(); r != nil {
			// Some third-party image decoders panic on malformed input
			// instead of returning an error; isolate that to this one
			// command rather than taking the whole daemon down,
			// mirroring tenant/manager.go's per-connection failure
			// isolation in handleRemote. Only panics on this goroutine
			// are recovered; a panic inside a dispatch worker goroutine
			// (the codec run for a dispatched gets) is not caught here.
			c.logf("recovered from panic handling command: %v", r)
		}
	}()

	cmd, err := command.Parse(text)
	if err != nil {
		c.logf("parse error: %s", err)
		return
	}
	if err := c.Dispatch(cmd); err != nil {
		c.logf("command %q failed: %s", cmd.Raw, err)
	}
}

func (c *Conn) logf(format string, args ...any) {
	if c.Logger == nil {
		return
	}
	c.Logger.Printf("[%s] %s", c.id, fmt.Sprintf(format, args...))
}
