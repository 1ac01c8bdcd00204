package executor

import (
	"errors"
	"time"

	"github.com/entrhq/onboard/pkg/extract"
	"github.com/entrhq/onboard/pkg/sequencer"
)

const (
	statusRunning = "running"
	statusSuccess = "success"
	statusFailed  = "failed"
)

// RunSummary contains a complete summary of one onboarding run. It never
// holds the full API token.
type RunSummary struct {
	RunID           string            `json:"run_id"`
	Status          string            `json:"status"`
	Error           string            `json:"error,omitempty"`
	FailedStage     int               `json:"failed_stage,omitempty"`
	FailedURL       string            `json:"failed_url,omitempty"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         time.Time         `json:"end_time"`
	Duration        time.Duration     `json:"duration"`
	CookiesImported int               `json:"cookies_imported"`
	Stages          []StageSummary    `json:"stages"`
	Artifacts       []ArtifactSummary `json:"artifacts"`
	ErrorScreenshot string            `json:"error_screenshot,omitempty"`
}

// StageSummary is the serialized form of a stage result.
type StageSummary struct {
	Index      int           `json:"index"`
	Name       string        `json:"name"`
	Status     string        `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	Screenshot string        `json:"screenshot,omitempty"`
}

// ArtifactSummary describes a persisted artifact by preview only.
type ArtifactSummary struct {
	Kind    string `json:"kind"`
	Preview string `json:"preview"`
	Path    string `json:"path"`
}

// Succeeded reports whether the run persisted both artifacts.
func (s *RunSummary) Succeeded() bool {
	return s.Status == statusSuccess
}

// Artifact returns the summary entry for kind.
func (s *RunSummary) Artifact(kind extract.Kind) (ArtifactSummary, bool) {
	for _, a := range s.Artifacts {
		if a.Kind == string(kind) {
			return a, true
		}
	}
	return ArtifactSummary{}, false
}

func (s *RunSummary) recordStages(results []sequencer.StageResult) {
	for _, r := range results {
		stage := StageSummary{
			Index:      r.Index,
			Name:       r.Name,
			Status:     string(r.Status),
			Reason:     r.Reason,
			Duration:   r.Duration,
			Screenshot: r.Screenshot,
		}
		if r.Err != nil {
			stage.Error = r.Err.Error()
		}
		s.Stages = append(s.Stages, stage)
	}
}

func (s *RunSummary) recordFailure(err error) {
	s.Status = statusFailed
	s.Error = err.Error()

	var failure *sequencer.StageFailure
	if errors.As(err, &failure) {
		s.FailedStage = failure.Index
		s.FailedURL = failure.URL
	}
}
