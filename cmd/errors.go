package main

import "errors"

// Sentinel kinds for command failures.
var (
	ErrDataDir  = errors.New("directory not found")
	ErrScanFile = errors.New("scan CSV not found")
	ErrFlags    = errors.New("invalid flags")
)
