// Package server hosts the proxy acceptor loop and the optional diagnostics
// Fiber app. The acceptor is strictly sequential: accept a connection, take a
// permit from the concurrency limiter (blocking when none is free), hand the
// connection to a bounded worker pool, loop. Workers release their permit on
// every exit path. The diagnostics app exposes cache and limiter counters on a
// separate port and never touches proxied traffic.
package server
