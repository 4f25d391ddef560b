// Package ratelimit provides the shared request gate for the downloader.
//
// The iNaturalist API guidelines ask for roughly one request per second, and
// the budget applies to every outbound call regardless of host or purpose:
// observation pagination, photo page scrapes and image downloads share one
// limiter instance.
//
// Available Implementations:
//
// Interval:
//   - Enforces a minimum gap between consecutive permitted requests
//   - Default implementation, matching the 1 request/second guideline
//
// Token Bucket:
//   - Fixed capacity bucket refilled after a period
//   - Selectable via configuration when bursts are acceptable
//
// All limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	gate := ratelimit.NewInterval(1.0)
//
//	// Before every outbound request:
//	gate.Wait()
package ratelimit
