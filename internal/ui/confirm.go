package ui

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

var ErrCancelled = errors.New("cancelled")

// Confirmer answers yes/no questions. Commands take one so they can run
// interactively, unattended, or under test.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(question string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(question string) (bool, error) {
	return f(question)
}

// StaticConfirmer gives the same answer to every question.
type StaticConfirmer bool

// Confirm implements Confirmer.
func (s StaticConfirmer) Confirm(string) (bool, error) {
	return bool(s), nil
}

// PromptConfirmer asks on the terminal.
type PromptConfirmer struct {
	// DefaultYes is the answer taken when the operator just presses enter.
	DefaultYes bool
}

// Confirm implements Confirmer. Ctrl+C returns ErrCancelled; end of input
// answers no.
func (p PromptConfirmer) Confirm(question string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     question,
		IsConfirm: true,
	}
	if p.DefaultYes {
		prompt.Default = "y"
	}

	_, err := prompt.Run()
	return answer(err)
}

// answer maps a confirm prompt result. A closed input counts as "no"; only
// Ctrl+C cancels.
func answer(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort), errors.Is(err, promptui.ErrEOF):
		return false, nil
	case errors.Is(err, promptui.ErrInterrupt):
		return false, ErrCancelled
	default:
		return false, fmt.Errorf("prompt failed: %w", err)
	}
}
