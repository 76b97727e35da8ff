// Package api defines the wire-level data types shared between a worker
// process and the flow engine
//
// This package contains step definitions, attribute specifications, and the
// HTTP request/response messages exchanged during registration and execution
package api
