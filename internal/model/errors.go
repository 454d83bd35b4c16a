package model

import "errors"

var (
	ErrDecode            = errors.New("invalid image")
	ErrModel             = errors.New("model rejected input")
	ErrTransport         = errors.New("inference endpoint unreachable")
	ErrProtocol          = errors.New("unexpected inference response")
	ErrUnknownClassIndex = errors.New("unknown class index")
	ErrValidation        = errors.New("invalid request")
	ErrLabelMismatch     = errors.New("score vector does not match label table")
)
