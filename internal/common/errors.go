package common

import "errors"

var (
	// ErrInvalidToken reports a credential that fails shape validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrEmptyInput reports a required interactive field left blank.
	ErrEmptyInput = errors.New("empty input")
)
