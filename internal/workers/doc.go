// Package workers provides worker count sizing helpers and a bounded
// slot pool for CPU-heavy pipeline stages.
package workers
