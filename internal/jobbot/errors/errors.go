package errors

import (
	"fmt"
)

var (
	ErrNotFound           = fmt.Errorf("not found")
	ErrInvalidInput       = fmt.Errorf("invalid input")
	ErrForbidden          = fmt.Errorf("forbidden")
	ErrNotAJob            = fmt.Errorf("message is not a job")
	ErrCodeSpaceExhausted = fmt.Errorf("could not allocate a unique office code")
)
