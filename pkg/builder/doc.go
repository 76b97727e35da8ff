// Package builder provides an API for creating and managing flow steps and
// flows
//
// The builder package offers client functionality for interacting with the
// orchestrator, including step registration, flow execution, and async step
// management
package builder
