package array

import "github.com/pkg/errors"

// Common errors.
var (
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrInvalidShape  = errors.New("invalid shape")
	ErrAxis          = errors.New("invalid axis")
)
