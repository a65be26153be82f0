package domain

import "errors"

var (
	ErrValidation    = errors.New("validation error")
	ErrInvalidStatus = errors.New("invalid status")
	ErrNotFound      = errors.New("verification not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidAction = errors.New("invalid action")
	ErrDelivery      = errors.New("delivery failure")
)
