package pipeline

import "errors"

var (
	ErrArchitectureMismatch = errors.New("architecture mismatch")
	ErrNotVerified          = errors.New("image has not been verified")
	ErrExport               = errors.New("image export failed")
	ErrPackage              = errors.New("packaging failed")
	ErrScripts              = errors.New("script generation failed")
)
