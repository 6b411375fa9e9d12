package repository

import "errors"

var (
	ErrInvalidConfigData = errors.New("invalid reminder config data")
	ErrNilConfig         = errors.New("reminder config is nil")
)
