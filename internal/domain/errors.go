package domain

import "errors"

var (
	// ErrInvalidInput signals a request that cannot be rendered as given.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRender signals a failure inside the rendering engine.
	ErrRender = errors.New("render error")
)
