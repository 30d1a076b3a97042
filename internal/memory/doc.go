// Package memory configures the Go soft memory limit from container
// limits so large decode buffers trigger GC pressure before the
// container is OOM-killed.
package memory
