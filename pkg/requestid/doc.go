// Package requestid tags every HTTP request with a correlation id.
//
// Middleware reuses a well-formed inbound X-Request-ID (provider retries and the
// web client send one) and otherwise generates a time-ordered UUIDv7. The id is
// echoed in the response header, stored in the context, and added to log records
// through LoggerExtractor.
package requestid
