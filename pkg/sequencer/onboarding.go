package sequencer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/entrhq/onboard/pkg/browser"
	"github.com/entrhq/onboard/pkg/config"
	"github.com/entrhq/onboard/pkg/extract"
	"github.com/entrhq/onboard/pkg/types"
)

// Stage names, in execution order.
const (
	StageOpenSignup       = "open-signup"
	StageSSOHandoff       = "sso-handoff"
	StageAwaitDashboard   = "await-dashboard"
	StageCompleteProfile  = "complete-profile"
	StageExtractAccountID = "extract-account-id"
	StageOpenTokenPage    = "open-token-page"
	StageCreateToken      = "create-token"
	StageExtractToken     = "extract-token"
)

// Onboarding builds the fixed eight-stage table for cfg.
func Onboarding(cfg *config.RunConfig) ([]Stage, error) {
	t := cfg.Timing
	sel := cfg.Selectors

	handoff := browser.URLContains(cfg.Target.Domain)
	if cfg.Target.URLPattern != "" {
		var err error
		handoff, err = browser.URLMatches(cfg.Target.URLPattern)
		if err != nil {
			return nil, err
		}
	}

	challenge := browser.ChallengeCleared(cfg.Target.ChallengeMarker, cfg.Target.ChallengeTitle)
	sso := browser.ElementClickable(locators(sel.SSOCandidates...)...)
	firstName := browser.ElementPresent(browser.Locator(sel.FirstName))
	submit := browser.ElementClickable(browser.Locator(sel.Submit))
	tokenField := browser.ElementPresent(browser.Locator(sel.TokenField))

	return []Stage{
		{
			Name:      StageOpenSignup,
			Tolerance: Required,
			Steps: []Step{
				{Name: "navigate", Act: navigate(cfg.Target.SignupURL)},
				{
					Name: "challenge",
					Wait: Wait{
						Until:      &challenge,
						Timeout:    t.ChallengeWait,
						Extra:      t.ChallengeExtraWait,
						BestEffort: true,
					},
					Act: reportPage,
				},
			},
		},
		{
			Name:      StageSSOHandoff,
			Tolerance: Optional,
			Steps: []Step{
				{Name: "sso", Wait: Wait{Until: &sso, Timeout: t.SSOTimeout}, Act: click},
			},
		},
		{
			Name:      StageAwaitDashboard,
			Tolerance: Required,
			Steps: []Step{
				{Name: "oauth", Wait: Wait{Idle: t.OAuthSettle, Until: &handoff, Timeout: t.OAuthTimeout}},
			},
		},
		{
			Name:      StageCompleteProfile,
			Tolerance: Optional,
			Steps: []Step{
				{Name: "fill", Wait: Wait{Until: &firstName, Timeout: t.ProfileTimeout}, Act: fillProfile},
				{Name: "submit", Wait: Wait{Until: &submit, Timeout: t.ClickTimeout}, Act: click, Settle: t.ProfileSettle},
			},
		},
		{
			Name:      StageExtractAccountID,
			Tolerance: Required,
			Steps: []Step{
				{Name: "extract", Act: extractAccountID},
			},
		},
		{
			Name:      StageOpenTokenPage,
			Tolerance: Required,
			Steps: []Step{
				{Name: "navigate", Act: navigate(cfg.Target.TokensURL), Settle: t.PageSettle},
			},
		},
		{
			Name:      StageCreateToken,
			Tolerance: Required,
			Steps: []Step{
				clickStep("create", sel.CreateToken, t.ClickTimeout, t.ClickSettle),
				clickStep("template", sel.UseTemplate, t.ClickTimeout, t.ClickSettle),
				clickStep("continue", sel.Continue, t.ClickTimeout, t.ClickSettle),
				clickStep("confirm", sel.Confirm, t.ClickTimeout, t.TokenSettle),
			},
		},
		{
			Name:      StageExtractToken,
			Tolerance: Required,
			Steps: []Step{
				{Name: "extract", Wait: Wait{Until: &tokenField, Timeout: t.TokenTimeout}, Act: extractToken},
			},
		},
	}, nil
}

func locators(raw ...string) []browser.Locator {
	out := make([]browser.Locator, len(raw))
	for i, r := range raw {
		out[i] = browser.Locator(r)
	}
	return out
}

func clickStep(name, loc string, timeout, settle time.Duration) Step {
	cond := browser.ElementClickable(browser.Locator(loc))
	return Step{
		Name:   name,
		Wait:   Wait{Until: &cond, Timeout: timeout},
		Act:    click,
		Settle: settle,
	}
}

func navigate(url string) Action {
	return func(_ context.Context, rc *RunContext, _ browser.Element) error {
		return rc.Driver.Navigate(url)
	}
}

func click(_ context.Context, rc *RunContext, el browser.Element) error {
	return rc.Driver.Click(el)
}

func reportPage(_ context.Context, rc *RunContext, _ browser.Element) error {
	url, _ := rc.Driver.CurrentURL()
	title, err := rc.Driver.Title()
	if err != nil {
		// Title is diagnostic only
		rc.Logger.Warn("Could not read page title", zap.String("url", url), zap.Error(err))
		return nil
	}
	rc.Logger.Info("Page loaded", zap.String("title", title), zap.String("url", url))
	rc.Emit(types.NewPageInfoEvent(rc.Stage, title, url))
	return nil
}

// fillProfile types the profile fields. el is the first-name field.
func fillProfile(_ context.Context, rc *RunContext, el browser.Element) error {
	p := rc.Config.Profile
	sel := rc.Config.Selectors

	if err := rc.Driver.SendKeys(el, p.FirstName); err != nil {
		return err
	}

	fields := []struct {
		loc   string
		value string
	}{
		{sel.LastName, p.LastName},
		{sel.Organization, p.Organization},
		{sel.Phone, p.Phone},
	}
	for _, f := range fields {
		field, err := rc.Driver.FindElement(browser.Locator(f.loc))
		if err != nil {
			return fmt.Errorf("profile field %s: %w", f.loc, err)
		}
		if err := rc.Driver.SendKeys(field, f.value); err != nil {
			return err
		}
	}
	return nil
}

func extractAccountID(_ context.Context, rc *RunContext, _ browser.Element) error {
	url, err := rc.Driver.CurrentURL()
	if err != nil {
		return err
	}
	a, err := extract.AccountID(url)
	if err != nil {
		return err
	}
	return rc.Persist(a)
}

func extractToken(_ context.Context, rc *RunContext, el browser.Element) error {
	value, err := rc.Driver.Attribute(el, "value")
	if err != nil {
		return err
	}
	a, err := extract.APIToken(value)
	if err != nil {
		return err
	}
	return rc.Persist(a)
}
