package conversation

import (
	"errors"
	"fmt"

	"github.com/SimpleDioney/Amostras/internal/session"
)

// ErrSessionExpired means the stored step cannot be resumed.
var ErrSessionExpired = errors.New("session expired")

// ValidationError rejects malformed input. The step does not advance.
type ValidationError struct {
	Message string
	// Reprompt re-sends the step's prompt after Message.
	Reprompt bool
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

func invalidReprompt(msg string) error { return &ValidationError{Message: msg, Reprompt: true} }

// NotFoundError reports a selection that no longer resolves to an entity.
// Back is the step to return to, usually the list the selection came from;
// nil returns to the role menu.
type NotFoundError struct {
	What string
	Back session.State
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found", e.What) }

func notFound(what string, back session.State) error {
	return &NotFoundError{What: what, Back: back}
}
