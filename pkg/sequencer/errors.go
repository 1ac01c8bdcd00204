package sequencer

import (
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/onboard/pkg/extract"
)

// ErrDuplicateArtifact is returned when a run tries to persist a second
// artifact of the same kind.
var ErrDuplicateArtifact = errors.New("artifact already persisted")

// StageTimeoutError reports a wait that did not complete within its bound.
type StageTimeoutError struct {
	Stage   int
	Name    string
	Step    string
	Wait    string
	Timeout time.Duration
	URL     string
	Err     error
}

func (e *StageTimeoutError) Error() string {
	return fmt.Sprintf("stage %d (%s) step %s: timed out after %s waiting for %s at %s",
		e.Stage, e.Name, e.Step, e.Timeout, e.Wait, e.URL)
}

func (e *StageTimeoutError) Unwrap() error {
	return e.Err
}

// StageFailure wraps the cause of a run abort with the stage it happened in
// and the browser location at that moment.
type StageFailure struct {
	Index int
	Name  string
	URL   string
	Err   error
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("stage %d (%s) failed at %s: %v", e.Index, e.Name, e.URL, e.Err)
}

func (e *StageFailure) Unwrap() error {
	return e.Err
}

// IsExtractionFailure reports whether err was caused by an artifact that
// failed pattern matching or validation.
func IsExtractionFailure(err error) bool {
	var extractErr *extract.ExtractionError
	return errors.As(err, &extractErr)
}
