package scanio

import "errors"

// Sentinel kinds for scan file errors.
var (
	ErrOpen  = errors.New("open scan file failed")
	ErrRead  = errors.New("read scan data failed")
	ErrWrite = errors.New("write output failed")
)
