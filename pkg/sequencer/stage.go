// Package sequencer runs the fixed, ordered onboarding stages against a
// browser. Each stage is data: waits, actions and a tolerance class. One
// generic loop applies the abort/skip policy and diagnostic capture to all
// of them.
package sequencer

import (
	"context"
	"time"

	"github.com/entrhq/onboard/pkg/browser"
)

// Tolerance decides what a failed stage does to the run.
type Tolerance int

const (
	// Required stages abort the run when they fail.
	Required Tolerance = iota
	// Optional stages are skipped when they fail and the run continues.
	Optional
)

func (t Tolerance) String() string {
	if t == Optional {
		return "optional"
	}
	return "required"
}

// Status is the outcome of one stage.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// StageResult records what happened to a stage. Reason is set for skipped
// stages and Err for failed ones.
type StageResult struct {
	Index      int
	Name       string
	Status     Status
	Reason     string
	Err        error
	Duration   time.Duration
	Screenshot string
}

// Wait is the precondition of a step: an optional idle period followed by an
// optional polled condition.
type Wait struct {
	Idle    time.Duration
	Until   *browser.Condition
	Timeout time.Duration

	// Extra grants one more polling window when Timeout runs out.
	Extra time.Duration

	// BestEffort steps proceed even if Until never holds.
	BestEffort bool
}

// Action acts on the page once a step's wait is satisfied. el is the element
// matched by the wait condition, or nil for conditions without one.
type Action func(ctx context.Context, rc *RunContext, el browser.Element) error

// Step is one wait/act/settle unit within a stage.
type Step struct {
	Name   string
	Wait   Wait
	Act    Action
	Settle time.Duration
}

// Stage is one entry in the stage table.
type Stage struct {
	Name      string
	Tolerance Tolerance
	Steps     []Step
}
