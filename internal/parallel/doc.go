// Package parallel runs submitted work with bounded concurrency.
//
// The bridge uses a WorkerPool to cap how many requests are in flight at
// once. Submit blocks while the pool is full, which stops the caller from
// reading more input until a slot frees up.
package parallel
