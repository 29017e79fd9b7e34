package models

import "errors"

var (
	ErrUserExists           = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrWeakPassword         = errors.New("password is too weak")
	ErrInvalidPassword      = errors.New("invalid password")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrTokenInvalid      = errors.New("token is invalid")
	ErrTokenExpired      = errors.New("token has expired")
	ErrTokenKindMismatch = errors.New("unexpected token kind")
	ErrUnauthenticated   = errors.New("unauthenticated")
)
