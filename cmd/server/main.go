// Command server runs the voxel world engine's authoritative server room:
// the HTTP join handshake and WebSocket game loop described in spec §6.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voxelengine/internal/config"
	"voxelengine/internal/logx"
	"voxelengine/internal/material"
	"voxelengine/internal/server"
)

// shutdownGrace bounds how long in-flight room flushes get before the
// process exits forcibly.
const shutdownGrace = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logx.New(logx.ParseLevel(cfg.LogLevel()))

	materials := material.Default()

	registry := server.NewRegistry(cfg.DataDir(), materials, log)
	httpServer := server.NewHTTPServer(registry)
	wsHandler := server.NewWSHandler(registry)

	mux := http.NewServeMux()
	httpServer.Routes(mux)
	mux.Handle("/ws", wsHandler)

	srv := &http.Server{Addr: cfg.Addr(), Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Addr())
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Errorf("listen: %v", err)
			os.Exit(1)
		}
	case <-sigCh:
		log.Infof("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("forced shutdown after %s: %v", shutdownGrace, err)
			os.Exit(1)
		}

		flushed := make(chan struct{})
		go func() {
			registry.Shutdown()
			close(flushed)
		}()
		select {
		case <-flushed:
		case <-ctx.Done():
			log.Errorf("room flush did not finish within %s", shutdownGrace)
			os.Exit(1)
		}
	}

	os.Exit(0)
}
