// Package repository defines error types that are reused across multiple
// repositories. These sentinel values let handlers distinguish failure
// scenarios: ErrForbidden means the caller does not own the resource,
// ErrConflict means the operation clashes with existing state (for
// example accepting a bid on a product that is already sold).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state. Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")

// ErrProfileNotFound is returned when no profiles row exists for a user.
// Callers degrade to a default profile instead of failing sign-in.
var ErrProfileNotFound = errors.New("profile not found")
