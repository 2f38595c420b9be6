package inbox

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownQuestion means the id has no pending entry: it was never
	// asked, was already answered, or its caller was dropped.
	ErrUnknownQuestion = errors.New("unknown or already-answered question")

	// ErrNotAQuestion means the id names a message that is not a question.
	ErrNotAQuestion = errors.New("message is not a question")

	// ErrOrphanedQuestion means the question is unanswered but the caller
	// that asked it is gone, typically because the process restarted.
	ErrOrphanedQuestion = fmt.Errorf("%w: asker is no longer waiting", ErrUnknownQuestion)

	ErrThreadNotFound  = errors.New("thread not found")
	ErrMessageNotFound = errors.New("message not found")

	// ErrClosed is returned to callers still waiting in Ask when the
	// service shuts down.
	ErrClosed = errors.New("inbox closed")
)

// TransportError reports a failed notification or channel delivery. The
// message that triggered it is already in the log.
type TransportError struct {
	Op         string
	QuestionID uint64
	Err        error
}

func (e *TransportError) Error() string {
	if e.QuestionID != 0 {
		return fmt.Sprintf("%s: question %d: transport failed: %v", e.Op, e.QuestionID, e.Err)
	}
	return fmt.Sprintf("%s: transport failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
