package domain

import "errors"

// ErrInvalidFormat reports a payload that arrived with a success status but
// does not have the expected shape.
var ErrInvalidFormat = errors.New("invalid data format")
