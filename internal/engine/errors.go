package engine

import (
	"errors"
	"fmt"
)

var (
	ErrEngineUnreachable = errors.New("container engine is not reachable")
	ErrBuild             = errors.New("image build failed")
	ErrInspect           = errors.New("image inspect failed")
	ErrSave              = errors.New("image save failed")
	ErrLoad              = errors.New("image load failed")
)

// Error pairs one of the sentinel errors with the underlying command failure
// and a user-facing hint derived from the engine's stderr.
type Error struct {
	Kind error
	Hint string
	Err  error
}

func (e *Error) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v: %v\n%s", e.Kind, e.Err, e.Hint)
}

func (e *Error) Unwrap() []error { return []error{e.Kind, e.Err} }
