package domain

import "errors"

var (
	ErrEmptyContent      = errors.New("message content is empty")
	ErrRegistryFull      = errors.New("subscriber registry is full")
	ErrRegistryStopped   = errors.New("subscriber registry stopped")
	ErrSessionIDNotFound = errors.New("session id not found")
)
