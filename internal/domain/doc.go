// Package domain defines the core message board types and interfaces.
//
// Concept-oriented files (message.go, board.go, errors.go) hold shared types and
// the contracts between the board service and its adapters. No implementation
// code, just contracts, so adapters never import each other.
package domain
