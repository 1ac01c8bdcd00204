package browser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Condition is a predicate over the current page state. Check reports whether
// the condition holds and, for element conditions, the element it matched.
type Condition struct {
	// Desc is a short human-readable description used in timeouts and logs
	Desc string

	// Check evaluates the condition once
	Check func(d Driver) (Element, bool, error)
}

// URLContains holds once the current location contains substr.
func URLContains(substr string) Condition {
	return Condition{
		Desc: fmt.Sprintf("url contains %q", substr),
		Check: func(d Driver) (Element, bool, error) {
			u, err := d.CurrentURL()
			if err != nil {
				return nil, false, err
			}
			return nil, strings.Contains(u, substr), nil
		},
	}
}

// URLMatches holds once the current location matches the glob pattern.
// A single "*" stops at "/" while "**" spans path segments.
func URLMatches(pattern string) (Condition, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return Condition{}, fmt.Errorf("invalid url pattern %q: %w", pattern, err)
	}
	return Condition{
		Desc: fmt.Sprintf("url matches %q", pattern),
		Check: func(d Driver) (Element, bool, error) {
			u, err := d.CurrentURL()
			if err != nil {
				return nil, false, err
			}
			return nil, g.Match(u), nil
		},
	}, nil
}

// ChallengeCleared holds once neither the location nor the title carries an
// anti-automation challenge marker. Matching is case-insensitive; empty
// markers are ignored.
func ChallengeCleared(urlMarker, titleMarker string) Condition {
	urlMarker = strings.ToLower(urlMarker)
	titleMarker = strings.ToLower(titleMarker)
	return Condition{
		Desc: "challenge cleared",
		Check: func(d Driver) (Element, bool, error) {
			u, err := d.CurrentURL()
			if err != nil {
				return nil, false, err
			}
			if urlMarker != "" && strings.Contains(strings.ToLower(u), urlMarker) {
				return nil, false, nil
			}
			if titleMarker == "" {
				return nil, true, nil
			}
			title, err := d.Title()
			if err != nil {
				return nil, false, err
			}
			return nil, !strings.Contains(strings.ToLower(title), titleMarker), nil
		},
	}
}

// ElementPresent holds once any of locs matches an element. Candidates are
// tried in order and the first match wins.
func ElementPresent(locs ...Locator) Condition {
	return Condition{
		Desc: "present " + describe(locs),
		Check: func(d Driver) (Element, bool, error) {
			return firstMatch(d, locs, false)
		},
	}
}

// ElementClickable holds once any of locs matches a visible, enabled element.
// Candidates are tried in order and the first clickable match wins.
func ElementClickable(locs ...Locator) Condition {
	return Condition{
		Desc: "clickable " + describe(locs),
		Check: func(d Driver) (Element, bool, error) {
			return firstMatch(d, locs, true)
		},
	}
}

func firstMatch(d Driver, locs []Locator, clickable bool) (Element, bool, error) {
	var lastErr error
	for _, loc := range locs {
		el, err := d.FindElement(loc)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			lastErr = err
			continue
		}
		if !clickable {
			return el, true, nil
		}
		ok, err := d.Clickable(el)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			return el, true, nil
		}
	}
	return nil, false, lastErr
}

func describe(locs []Locator) string {
	parts := make([]string, len(locs))
	for i, l := range locs {
		parts[i] = string(l)
	}
	return strings.Join(parts, " | ")
}
