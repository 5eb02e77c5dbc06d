// Package domain defines the core domain types and interfaces.
//
// This package contains concept-oriented files (tools.go, channels.go,
// broadcast.go, reader.go, scheduler.go) with shared types and cross-cutting
// interfaces. No I/O lives here - just contracts and pure derivations.
// Keeping interfaces on the consumer side prevents circular imports.
package domain
