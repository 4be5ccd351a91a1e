package matrix

import "errors"

var (
	ErrIndexOutOfRange = errors.New("matrix: index out of range")
	ErrBadShape        = errors.New("matrix: zero rows or columns")
	ErrUnderflow       = errors.New("matrix: count underflow")
)
