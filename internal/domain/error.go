package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrEmptyBatch         = errors.New("migration batch has no products")
	ErrAccountLocked      = errors.New("destination account is locked by another run")
	ErrBadCredentials     = errors.New("destination rejected the credentials")
	ErrBotChallenge       = errors.New("destination served a bot challenge page")
	ErrUnitDeadline       = errors.New("unit exceeded its wall-clock deadline")
	ErrSessionStale       = errors.New("stored session is no longer valid")
	ErrInvalidExecContext = errors.New("invalid sql execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
