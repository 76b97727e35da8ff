// Package worker identifies the worker SDK to its own log and version
// surfaces
package worker

const (
	Name    = "argyll-worker"
	Version = "0.1.0"
)
