// Package sysutil holds small process-level helpers shared across the app:
// log level configuration, env-var parsing, and the lightweight health
// counters reported by /healthz.
package sysutil

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// SetLogLevel configures the global zerolog level based on a string value.
// Supported values (case-insensitive): debug, info, warn, error, fatal, panic.
func SetLogLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// IsTruthy reports whether an environment variable string should be
// considered true. Accepted (case-insensitive): "1", "true", "yes", "y", "on".
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// FirstNonEmpty returns the first non-empty string from a variadic list, or
// "" when all values are empty.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Health counters. Cheap atomics rather than Prometheus reads so /healthz can
// answer without scraping its own registry.
var (
	startTime    = time.Now()
	inFlight     atomic.Int64
	slowRequests atomic.Int64
	serverErrors atomic.Int64
)

// RequestStarted marks a request entering the handler chain.
func RequestStarted() { inFlight.Add(1) }

// RequestFinished marks a request leaving the handler chain.
func RequestFinished() { inFlight.Add(-1) }

// SlowRequestSeen counts a request slower than the configured threshold.
func SlowRequestSeen() { slowRequests.Add(1) }

// ServerErrorSeen counts a 5xx response.
func ServerErrorSeen() { serverErrors.Add(1) }

// HealthSnapshot is the payload /healthz reports.
type HealthSnapshot struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	InFlight      int64  `json:"in_flight"`
	SlowRequests  int64  `json:"slow_requests"`
	ServerErrors  int64  `json:"server_errors"`
	WSClients     int    `json:"ws_clients"`
}

// Health returns the current process health snapshot. wsClients is supplied
// by the caller since the gateway owns that count.
func Health(wsClients int) HealthSnapshot {
	return HealthSnapshot{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		InFlight:      inFlight.Load(),
		SlowRequests:  slowRequests.Load(),
		ServerErrors:  serverErrors.Load(),
		WSClients:     wsClients,
	}
}
