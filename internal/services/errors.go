package services

import "errors"

// Service errors
var (
	ErrNoGateway = errors.New("no storage gateway configured")
)
