package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidExecContext  = errors.New("invalid execution context")
	ErrReadDatabaseRow     = errors.New("failed to read database row")
	ErrOperationFailed     = errors.New("operation failed")
	ErrBotInactive         = errors.New("bot is inactive")
	ErrEmptyPayload        = errors.New("message has neither text nor media")
	ErrClaimLost           = errors.New("delivery claim lost")
	ErrLockNotAcquired     = errors.New("lock not acquired")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrTemplateUnavailable = errors.New("scheduled message not found")
)
