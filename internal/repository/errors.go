// Package repository defines the persistence layer and the sentinel error
// values reused across repositories and services. These sentinel values allow
// higher layers such as handlers to distinguish between different failure
// scenarios without inspecting driver errors: ErrDuplicate signals a
// unique-key collision on create, ErrNotFound a lookup miss, ErrBadRequest a
// violated domain invariant and ErrInvalidToken a refresh token that is
// unknown, revoked or expired.
package repository

import "errors"

// ErrDuplicate is returned when a create collides with an existing
// unique key (user email, role name). Handlers should translate this
// into an HTTP 409 response.
var ErrDuplicate = errors.New("duplicate resource")

// ErrNotFound is returned when a referenced entity does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("resource not found")

// ErrBadRequest is returned when an operation would violate a domain
// invariant, such as granting an already-held role, removing a user's
// last role or deleting a role still assigned to users. Handlers
// should translate this into an HTTP 400 response.
var ErrBadRequest = errors.New("bad request")

// ErrInvalidToken is returned when a refresh token is unknown, revoked
// or expired. The three cases are indistinguishable to callers by
// design. Handlers should translate this into an HTTP 401 response.
var ErrInvalidToken = errors.New("invalid refresh token")
