package memory

import "errors"

// Sentinel errors for the memory package.
// Use errors.Is to check: errors.Is(err, memory.ErrInvalidState)
var (
	ErrInvalidGrade = errors.New("memory: invalid grade")
	ErrInvalidState = errors.New("memory: state out of bounds")
)
