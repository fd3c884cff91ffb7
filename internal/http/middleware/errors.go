package middleware

import "errors"

var (
	errMissingCredentials = errors.New("Authentication credentials were not provided.")
	errInvalidToken       = errors.New("Invalid token.")
)
