package service

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrRequestTimeout = errors.New("request timeout")

	// Request controller errors
	ErrMissingURL       = errors.New("request url is required")
	ErrResponseTooLarge = errors.New("response body exceeds size limit")
)
