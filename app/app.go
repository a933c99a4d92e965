// Package app wires the server together and owns its lifecycle.
package app

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/statserve/statserve/config"
	"github.com/statserve/statserve/core"
	"github.com/statserve/statserve/core/middleware"
	"github.com/statserve/statserve/core/stats"
	"github.com/statserve/statserve/handlers"
)

// ServerName identifies this server in response bodies and headers.
const ServerName = "statserve/1.0"

// App is the assembled application: config, stats registry, and engine.
type App struct {
	cfg      *config.Config
	registry *stats.Registry
	engine   *core.Engine
}

// New builds the application: registry and engine are created once here
// and the route table is sealed before serving starts.
func New(cfg *config.Config) *App {
	registry := stats.NewRegistry()

	engine := core.NewEngine(registry, core.Config{
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxConnections: cfg.MaxConnections,
	})

	engine.Use(middleware.ServerHeader(ServerName))
	if cfg.Env == "development" {
		engine.Use(middleware.Logger(registry))
	}

	handlers.New(registry, ServerName).Register(engine.Router())

	return &App{
		cfg:      cfg,
		registry: registry,
		engine:   engine,
	}
}

// Engine returns the underlying engine, mainly for tests.
func (a *App) Engine() *core.Engine {
	return a.engine
}

// Registry returns the stats registry.
func (a *App) Registry() *stats.Registry {
	return a.registry
}

// Run starts the server and blocks. A bind failure comes back as an error;
// the process cannot serve without its socket.
func (a *App) Run() error {
	go a.awaitSignal()

	log.Printf("starting statserve on %s [%s]", a.cfg.Addr, a.cfg.Env)
	log.Printf("endpoints:")
	log.Printf("  GET  /           - welcome")
	log.Printf("  GET  /health     - health check")
	log.Printf("  GET  /stats      - request statistics")
	log.Printf("  GET  /echo/:msg  - echo message")

	return a.engine.Run(a.cfg.Addr)
}

func (a *App) awaitSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit

	snap := a.registry.Snapshot()
	log.Printf("signal %v received, shutting down", sig)
	log.Printf("served %d requests over %.1fs (%.1f req/s)",
		snap.TotalRequests, snap.UptimeSeconds, snap.RequestsPerSecond)

	pools := a.engine.GetPoolStats()
	log.Printf("request pool hit rate %.2f%%, context pool hit rate %.2f%%",
		pools.Request.HitRate*100, pools.Context.HitRate*100)

	os.Exit(0)
}
