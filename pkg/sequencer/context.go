package sequencer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/entrhq/onboard/pkg/browser"
	"github.com/entrhq/onboard/pkg/config"
	"github.com/entrhq/onboard/pkg/extract"
	"github.com/entrhq/onboard/pkg/logging"
	"github.com/entrhq/onboard/pkg/types"
)

// RunContext is what a stage action sees of the run.
type RunContext struct {
	Driver browser.Driver
	Config *config.RunConfig
	Logger *logging.Logger
	Stage  int

	seq *Sequencer
}

// Persist writes a validated artifact. At most one artifact of each kind is
// accepted per run.
func (rc *RunContext) Persist(a extract.Artifact) error {
	if _, ok := rc.seq.artifacts[a.Kind]; ok {
		return fmt.Errorf("%s: %w", a.Kind, ErrDuplicateArtifact)
	}

	path, err := rc.seq.store.Persist(a)
	if err != nil {
		return fmt.Errorf("failed to persist %s: %w", a.Kind, err)
	}
	rc.seq.artifacts[a.Kind] = a

	rc.Logger.Info("Artifact persisted",
		zap.String("kind", string(a.Kind)),
		zap.String("preview", a.Preview()),
		zap.String("path", path),
	)
	rc.seq.handler(types.NewArtifactPersistedEvent(rc.Stage, string(a.Kind), a.Preview(), path))
	return nil
}

// Emit forwards an event to the run's handler.
func (rc *RunContext) Emit(ev *types.RunEvent) {
	rc.seq.handler(ev)
}
