package application

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ppob-membership/pkg/helpers"
)

var (
	ErrInvalidAmount       = errors.New("amount must be numeric and greater than 0")
	ErrInvalidPagination   = errors.New("offset and limit must not be negative")
	ErrInvalidEmail        = errors.New("email format is not valid")
	ErrInvalidName         = errors.New("first name and last name are required")
	ErrInvalidPassword     = errors.New("password must be 8 to 50 characters")
	ErrInvalidImage        = errors.New("image format is not valid")
	ErrEmailTaken          = errors.New("email already registered")
	ErrUserNotFound        = errors.New("user not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidCredentials  = errors.New("invalid email or password")
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindUnexpected Kind = iota
	KindInvalidArgument
	KindNotFound
	KindInsufficientBalance
	KindUnauthenticated
)

func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidPagination),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrInvalidImage),
		errors.Is(err, ErrEmailTaken):
		return KindInvalidArgument
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrServiceNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientBalance):
		return KindInsufficientBalance
	case errors.Is(err, ErrInvalidCredentials):
		return KindUnauthenticated
	default:
		return KindUnexpected
	}
}

var discardLogger = helpers.NopLogger()

func loggerOr(l *logrus.Logger) *logrus.Logger {
	if l == nil {
		return discardLogger
	}
	return l
}
