package service

import (
	"errors"

	"github.com/qqqlxhjy/NishimoriLine/internal/domain/model"
)

// Sentinel kinds for analysis errors.
var (
	// ErrLengthMismatch aliases the model error so callers need only this package.
	ErrLengthMismatch = model.ErrLengthMismatch
	ErrEmptyScan      = errors.New("scan has no rows")
	ErrNoWindow       = errors.New("auto analysis failed to find any valid window from C and chi")
	ErrInvalidParams  = errors.New("invalid scan parameters")
	ErrStore          = errors.New("store run failed")
)
