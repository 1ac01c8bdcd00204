package executor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/onboard/pkg/config"
	"github.com/entrhq/onboard/pkg/extract"
)

// ErrArtifactExists is returned when a kind of artifact is written twice in
// one run.
var ErrArtifactExists = errors.New("artifact already written")

// ArtifactWriter handles writing run artifacts: extracted values, diagnostic
// screenshots and the run summary.
type ArtifactWriter struct {
	outputDir string
	files     map[extract.Kind]string
	written   map[extract.Kind]string
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(cfg config.OutputConfig) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: cfg.Dir,
		files: map[extract.Kind]string{
			extract.KindAccountID: cfg.AccountIDFile,
			extract.KindAPIToken:  cfg.TokenFile,
		},
		written: make(map[extract.Kind]string),
	}
}

// Prepare creates the output directory.
func (w *ArtifactWriter) Prepare() error {
	if err := os.MkdirAll(w.outputDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Persist writes the artifact value verbatim to its fixed path.
func (w *ArtifactWriter) Persist(a extract.Artifact) (string, error) {
	if !a.Valid {
		return "", fmt.Errorf("refusing to write unvalidated %s", a.Kind)
	}
	name, ok := w.files[a.Kind]
	if !ok {
		return "", fmt.Errorf("unknown artifact kind: %s", a.Kind)
	}
	if _, ok := w.written[a.Kind]; ok {
		return "", fmt.Errorf("%s: %w", a.Kind, ErrArtifactExists)
	}

	path := filepath.Join(w.outputDir, name)
	if err := writeFileAtomic(path, []byte(a.Value)); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", a.Kind, err)
	}
	w.written[a.Kind] = path
	return path, nil
}

// Written returns the path an artifact kind was written to, if it was.
func (w *ArtifactWriter) Written(kind extract.Kind) (string, bool) {
	path, ok := w.written[kind]
	return path, ok
}

// ScreenshotPath returns the path for a stage screenshot.
func (w *ArtifactWriter) ScreenshotPath(stage int) string {
	return filepath.Join(w.outputDir, fmt.Sprintf("stage-%d.png", stage))
}

// ErrorScreenshotPath returns the path for the failure screenshot.
func (w *ArtifactWriter) ErrorScreenshotPath() string {
	return filepath.Join(w.outputDir, "error.png")
}

// WriteSummary writes summary.json and summary.md
func (w *ArtifactWriter) WriteSummary(summary *RunSummary) error {
	if err := w.WriteSummaryJSON(summary); err != nil {
		return fmt.Errorf("failed to write summary JSON: %w", err)
	}
	if err := w.WriteSummaryMarkdown(summary); err != nil {
		return fmt.Errorf("failed to write summary markdown: %w", err)
	}
	return nil
}

// WriteSummaryJSON writes the full run summary as JSON
func (w *ArtifactWriter) WriteSummaryJSON(summary *RunSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}
	return writeFileAtomic(filepath.Join(w.outputDir, "summary.json"), data)
}

// WriteSummaryMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteSummaryMarkdown(summary *RunSummary) error {
	var md strings.Builder

	md.WriteString("# Onboarding Run Summary\n\n")
	md.WriteString(fmt.Sprintf("**Run:** %s\n\n", summary.RunID))
	md.WriteString(fmt.Sprintf("**Status:** %s\n\n", summary.Status))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Completed:** %s\n\n", summary.EndTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", summary.Duration))
	md.WriteString(fmt.Sprintf("**Cookies imported:** %d\n\n", summary.CookiesImported))

	md.WriteString("## Result\n\n")
	if summary.Error != "" {
		md.WriteString(fmt.Sprintf("❌ **Error:** %s\n\n", summary.Error))
		if summary.FailedStage > 0 {
			md.WriteString(fmt.Sprintf("Failed at stage %d, location `%s`\n\n", summary.FailedStage, summary.FailedURL))
		}
	} else {
		md.WriteString("✅ **Success**\n\n")
	}

	if len(summary.Stages) > 0 {
		md.WriteString("## Stages\n\n")
		md.WriteString("| # | Stage | Status | Duration | Note |\n")
		md.WriteString("|---|---|---|---|---|\n")
		for _, s := range summary.Stages {
			note := s.Reason
			if s.Error != "" {
				note = s.Error
			}
			md.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
				s.Index, s.Name, s.Status, s.Duration, strings.ReplaceAll(note, "|", `\|`)))
		}
		md.WriteString("\n")
	}

	if len(summary.Artifacts) > 0 {
		md.WriteString("## Artifacts\n\n")
		for _, a := range summary.Artifacts {
			md.WriteString(fmt.Sprintf("- **%s:** `%s` (%s)\n", a.Kind, a.Preview, a.Path))
		}
		md.WriteString("\n")
	}

	if summary.ErrorScreenshot != "" {
		md.WriteString(fmt.Sprintf("Error screenshot: `%s`\n", summary.ErrorScreenshot))
	}

	return writeFileAtomic(filepath.Join(w.outputDir, "summary.md"), []byte(md.String()))
}

// writeFileAtomic writes data to a temp file and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
