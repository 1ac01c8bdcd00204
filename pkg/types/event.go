package types

import "time"

// RunEventType defines the type of event emitted during an onboarding run.
type RunEventType string

const (
	EventTypeRunStart           RunEventType = "run_start"           // EventTypeRunStart indicates the browser is up and the run is starting.
	EventTypeSessionImported    RunEventType = "session_imported"    // EventTypeSessionImported indicates identity-provider cookies were imported.
	EventTypeStageStart         RunEventType = "stage_start"         // EventTypeStageStart indicates a stage has begun.
	EventTypeStageCompleted     RunEventType = "stage_completed"     // EventTypeStageCompleted indicates a stage finished successfully.
	EventTypeStageSkipped       RunEventType = "stage_skipped"       // EventTypeStageSkipped indicates an optional stage was absent and skipped.
	EventTypeStageFailed        RunEventType = "stage_failed"        // EventTypeStageFailed indicates a required stage failed and the run is aborting.
	EventTypeWaitExtended       RunEventType = "wait_extended"       // EventTypeWaitExtended indicates a wait ran out and one extra window is being granted.
	EventTypePageInfo           RunEventType = "page_info"           // EventTypePageInfo carries the current page title and location.
	EventTypeArtifactPersisted  RunEventType = "artifact_persisted"  // EventTypeArtifactPersisted indicates an extracted value was written to disk.
	EventTypeScreenshotCaptured RunEventType = "screenshot_captured" // EventTypeScreenshotCaptured indicates a diagnostic screenshot was written.
	EventTypeRunFinished        RunEventType = "run_finished"        // EventTypeRunFinished indicates the run reached a terminal state.
)

// RunEvent represents an event emitted by the sequencer or executor.
//
// Events never carry secret values: artifact events hold only a preview.
type RunEvent struct {
	// Err contains the failure cause for failed and finished events.
	Err error

	// Type indicates the kind of event.
	Type RunEventType

	// Stage is the 1-based stage index, 0 for run-level events.
	Stage int

	// Total is the number of stages in the run.
	Total int

	// StageName is the short name of the stage.
	StageName string

	// Message holds free text: a skip reason, a page title, a summary line.
	Message string

	// URL is the browser location when the event was emitted, if known.
	URL string

	// ArtifactKind and Preview describe a persisted artifact.
	ArtifactKind string
	Preview      string

	// Path is the file written for artifact and screenshot events.
	Path string

	// Duration is how long the stage or run took.
	Duration time.Duration

	// Count is a numeric payload, such as the number of cookies imported.
	Count int
}

// NewRunStartEvent creates a run start event.
func NewRunStartEvent(total int) *RunEvent {
	return &RunEvent{Type: EventTypeRunStart, Total: total}
}

// NewSessionImportedEvent creates an event for imported cookies.
func NewSessionImportedEvent(count int) *RunEvent {
	return &RunEvent{Type: EventTypeSessionImported, Count: count}
}

// NewStageStartEvent creates a stage start event.
func NewStageStartEvent(stage, total int, name string) *RunEvent {
	return &RunEvent{
		Type:      EventTypeStageStart,
		Stage:     stage,
		Total:     total,
		StageName: name,
	}
}

// NewStageCompletedEvent creates a stage completed event.
func NewStageCompletedEvent(stage, total int, name string, duration time.Duration) *RunEvent {
	return &RunEvent{
		Type:      EventTypeStageCompleted,
		Stage:     stage,
		Total:     total,
		StageName: name,
		Duration:  duration,
	}
}

// NewStageSkippedEvent creates a stage skipped event.
func NewStageSkippedEvent(stage, total int, name, reason string) *RunEvent {
	return &RunEvent{
		Type:      EventTypeStageSkipped,
		Stage:     stage,
		Total:     total,
		StageName: name,
		Message:   reason,
	}
}

// NewStageFailedEvent creates a stage failed event.
func NewStageFailedEvent(stage, total int, name, url string, err error) *RunEvent {
	return &RunEvent{
		Type:      EventTypeStageFailed,
		Stage:     stage,
		Total:     total,
		StageName: name,
		URL:       url,
		Err:       err,
	}
}

// NewWaitExtendedEvent creates an event for a wait granted an extra window.
func NewWaitExtendedEvent(stage int, name, desc string, extra time.Duration) *RunEvent {
	return &RunEvent{
		Type:      EventTypeWaitExtended,
		Stage:     stage,
		StageName: name,
		Message:   desc,
		Duration:  extra,
	}
}

// NewPageInfoEvent creates an event describing the current page.
func NewPageInfoEvent(stage int, title, url string) *RunEvent {
	return &RunEvent{
		Type:    EventTypePageInfo,
		Stage:   stage,
		Message: title,
		URL:     url,
	}
}

// NewArtifactPersistedEvent creates an artifact event. preview must already
// be redacted.
func NewArtifactPersistedEvent(stage int, kind, preview, path string) *RunEvent {
	return &RunEvent{
		Type:         EventTypeArtifactPersisted,
		Stage:        stage,
		ArtifactKind: kind,
		Preview:      preview,
		Path:         path,
	}
}

// NewScreenshotCapturedEvent creates a screenshot event.
func NewScreenshotCapturedEvent(stage int, path string) *RunEvent {
	return &RunEvent{
		Type:  EventTypeScreenshotCaptured,
		Stage: stage,
		Path:  path,
	}
}

// NewRunFinishedEvent creates the terminal event. A nil err means success.
func NewRunFinishedEvent(duration time.Duration, err error) *RunEvent {
	return &RunEvent{
		Type:     EventTypeRunFinished,
		Duration: duration,
		Err:      err,
	}
}

// IsStageEvent returns true if the event marks a stage transition.
func (e *RunEvent) IsStageEvent() bool {
	return e.Type == EventTypeStageStart ||
		e.Type == EventTypeStageCompleted ||
		e.Type == EventTypeStageSkipped ||
		e.Type == EventTypeStageFailed
}

// IsErrorEvent returns true if the event carries a failure.
func (e *RunEvent) IsErrorEvent() bool {
	return e.Err != nil
}

// Succeeded returns true for a run finished event without error.
func (e *RunEvent) Succeeded() bool {
	return e.Type == EventTypeRunFinished && e.Err == nil
}
