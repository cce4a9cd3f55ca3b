// Package app provides the application service layer.
//
// Board orchestrates a submission: validate, append to the window, evict the
// oldest entry on overflow, then render and broadcast the matching fragments.
// Depends on domain interfaces, not concrete adapters.
package app
