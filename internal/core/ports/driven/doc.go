// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
//
// The core services depend on these interfaces, never on concrete
// adapters. Implementations live under internal/adapters/driven.
package driven
