package dto

import "errors"

var (
	ErrNilExecutableFlow   = errors.New("executable flow cannot be nil")
	ErrNilTelephonySession = errors.New("telephony session cannot be nil")
)
