package tcscan

import "errors"

// Sentinel kinds for scan parameter errors.
var (
	ErrInvalidStep  = errors.New("tc step must be a positive finite number")
	ErrInvalidRange = errors.New("invalid scan range")
)
