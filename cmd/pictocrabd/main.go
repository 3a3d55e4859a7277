// Command pictocrabd runs the image preprocessing daemon described in
// spec.md: it listens on a local duplex socket and services exactly one
// client connection at a time, inline in the accept loop
// (spec.md §2.11/§5/§6.1), against a shared two-tier cache.
//
// Grounded on tenant/manager.go's Manager.Serve accept loop, but unlike
// that teacher (where each tenant connection gets independent state),
// here the worker pool's per-worker request/reply channels are shared
// singletons, not safe for two overlapping dispatchers — so connections
// are serviced one at a time rather than handed off to a goroutine.
package main

import (
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/RedstoneMedia/pictocrab/internal/cache"
	"github.com/RedstoneMedia/pictocrab/internal/codec"
	"github.com/RedstoneMedia/pictocrab/internal/dispatch"
	"github.com/RedstoneMedia/pictocrab/internal/fetch"
	"github.com/RedstoneMedia/pictocrab/internal/pipeline"
	"github.com/RedstoneMedia/pictocrab/internal/server"
)

func main() {
	socketPath := flag.String("socket", "/tmp/pictocrabd.sock", "path of the unix domain socket to listen on")
	flag.Parse()

	logger := log.New(os.Stderr, "pictocrabd: ", log.LstdFlags)

	if err := run(*socketPath, logger); err != nil {
		logger.Fatalf("%s", err)
	}
}

func run(socketPath string, logger *log.Logger) error {
	// Remove a stale socket file from a previous, uncleanly terminated
	// run; net.Listen("unix", ...) fails with "address already in use"
	// otherwise.
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return err
	}
	defer ln.Close()

	cfg := &cache.Config{}
	c := cache.New(cfg, logger)

	newPipeline := func() *pipeline.Pipeline {
		return &pipeline.Pipeline{
			Cache:   c,
			Fetcher: fetch.NewClient(c, cfg),
			Codec:   codec.Imaging{},
		}
	}
	pool := dispatch.NewPool(c, newPipeline, logger)
	defer pool.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Printf("shutting down")
		ln.Close()
		cfg.Close()
		os.Remove(socketPath)
		os.Exit(0)
	}()

	logger.Printf("listening on %s", socketPath)
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		sc := server.NewConn(conn, c, cfg, pool, newPipeline(), logger)
		sc.Loop()
		conn.Close()
	}
}
