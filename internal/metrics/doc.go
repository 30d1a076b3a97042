// Package metrics defines the Prometheus collectors exported by the
// server. Collectors are registered at import time via promauto.
package metrics
