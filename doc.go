/*
Package statserve provides a small concurrent HTTP/1.1 server with built-in
request accounting.

Statserve exposes a fixed set of informational JSON endpoints backed by an
atomic request counter and a start-time registry, so a running instance can
always report how many requests it has served and at what rate.

# Endpoints

  - GET /          welcome message
  - GET /health    liveness check
  - GET /echo/X    echoes the remainder of the path
  - GET /stats     total requests, uptime, and requests per second

# Quick Start

Basic usage example:

	package main

	import (
		"github.com/statserve/statserve/app"
		"github.com/statserve/statserve/config"
	)

	func main() {
		cfg := config.New()
		cfg.LoadEnv()

		application := app.New(cfg)
		application.Run()
	}

# Modules

The module is organized into several packages:

  - app: Application lifecycle management
  - cli: Command-line interface (serve, blast)
  - config: Configuration loading from defaults, environment, and flags
  - core: Server engine and connection handling
  - core/http: HTTP request parsing and response building
  - core/router: Static and prefix routing
  - core/middleware: Middleware pipeline
  - core/pools: Object and worker pooling
  - core/stats: Atomic request counter and uptime registry
  - handlers: The built-in endpoint handlers

Every response is JSON, including errors, and every connection is served on
its own goroutine with keep-alive and pipelined requests answered in order.
*/
package statserve
