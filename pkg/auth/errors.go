package auth

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrCipher          = errors.New("cipher error")
	ErrConcurrentUse   = errors.New("cipher direction is already in use")
	ErrVerifyToken     = errors.New("verify token did not match")

	errUnexpectedStatus = errors.New("unexpected status")
	errResponseTooLarge = errors.New("response too large")
)
