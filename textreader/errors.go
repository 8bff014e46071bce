package textreader

import "errors"

// Sentinel errors
var (
	ErrSyntax             = errors.New("syntax error")
	ErrInvalidNumber      = errors.New("invalid number")
	ErrInvalidBase64      = errors.New("invalid base64 in blob")
	ErrTypeMismatch       = errors.New("value has a different type")
	ErrNotOnValue         = errors.New("cursor is not positioned on a value")
	ErrNotOnContainer     = errors.New("cursor is not positioned on a container")
	ErrAtTopLevel         = errors.New("cursor is already at top level")
	ErrEExpressionInData  = errors.New("e-expression is not allowed here")
	ErrGroupOutsideInvoke = errors.New("expression group outside of an e-expression")
)
