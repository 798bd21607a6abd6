// Package bootstrap wires the engine together: configuration, logging,
// rule registry, detection engine, alert sink and API server, with
// signal-driven graceful shutdown.
package bootstrap
