// Package extract derives the account identifier and API token from page
// state and validates them before they are persisted.
package extract

import (
	"fmt"
	"regexp"

	"github.com/entrhq/onboard/pkg/logging"
)

// Kind identifies an artifact type.
type Kind string

const (
	KindAccountID Kind = "account_id"
	KindAPIToken  Kind = "api_token"
)

// MinTokenLength is the shortest API token accepted.
const MinTokenLength = 20

var accountIDPattern = regexp.MustCompile(`[a-f0-9]{32}`)

// Artifact is a validated value together with the string it was read from.
// Artifacts are never mutated after creation.
type Artifact struct {
	Kind   Kind
	Value  string
	Source string
	Valid  bool
}

// Preview returns a form of the value safe for logs and console output.
func (a Artifact) Preview() string {
	if a.Kind == KindAPIToken {
		return logging.RedactToken(a.Value)
	}
	return a.Value
}

// ExtractionError reports a pattern or validation failure.
type ExtractionError struct {
	Kind   Kind
	Input  string
	Reason string
}

func (e *ExtractionError) Error() string {
	if e.Kind == KindAPIToken {
		return fmt.Sprintf("failed to extract %s: %s (input: %s)", e.Kind, e.Reason, logging.RedactLength(e.Input))
	}
	return fmt.Sprintf("failed to extract %s: %s (input: %q)", e.Kind, e.Reason, e.Input)
}

// AccountID returns the leftmost 32-character lowercase hex substring of
// location.
func AccountID(location string) (Artifact, error) {
	match := accountIDPattern.FindString(location)
	if match == "" {
		return Artifact{}, &ExtractionError{
			Kind:   KindAccountID,
			Input:  location,
			Reason: "no 32-character hex identifier in location",
		}
	}
	return Artifact{Kind: KindAccountID, Value: match, Source: location, Valid: true}, nil
}

// APIToken validates a displayed token value. Accepted values are returned
// verbatim.
func APIToken(value string) (Artifact, error) {
	if value == "" {
		return Artifact{}, &ExtractionError{Kind: KindAPIToken, Reason: "token field is empty"}
	}
	if len(value) < MinTokenLength {
		return Artifact{}, &ExtractionError{
			Kind:   KindAPIToken,
			Input:  value,
			Reason: fmt.Sprintf("token shorter than %d characters", MinTokenLength),
		}
	}
	return Artifact{Kind: KindAPIToken, Value: value, Source: value, Valid: true}, nil
}
