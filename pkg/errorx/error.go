package errorx

import (
	"errors"
	"fmt"
)

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func New(code Code, format string, a ...any) Error {
	return Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

func (e Error) Error() string {
	return e.Message
}

func (e Error) Is(target error) bool {
	var t Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Code == e.Code
}

// IsCode reports whether err carries an errorx.Error with the given code.
func IsCode(err error, code Code) bool {
	var e Error
	if !errors.As(err, &e) {
		return false
	}

	return e.Code == code
}
