// Package proxy implements the per-connection request lifecycle of the caching
// forward proxy: read one request line, reject anything that is not a GET with
// a target, drop static-resource requests without answering, then serve the
// body from the LRU cache or fetch it from the origin and store it before
// replying. Responses use a minimal HTTP/1.1 framing (status line,
// Content-Length, blank line, body) and the connection is always closed after
// one exchange.
package proxy
