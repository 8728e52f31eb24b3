// Package apply drives a browser through a job site's application flow.
package apply

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/jonathan/job-agent/internal/types"
)

const (
	// PageLoadDelay is how long to wait after navigating before inspecting the page
	PageLoadDelay = 3 * time.Second
	// StepDelay separates the clicks and uploads of an application flow
	StepDelay = 2 * time.Second
	// LoginDelay lets a sign-in redirect settle
	LoginDelay = 5 * time.Second
)

// Credentials sign in to a recognized site before applying
type Credentials struct {
	Username string
	Password string
}

// Options configures a Submitter
type Options struct {
	// SubmitApplications clicks the final submit control; off by default
	SubmitApplications bool
	// Login runs the site's sign-in flow first when credentials are present
	Login       bool
	Credentials Credentials
	Logger      *zap.Logger
	// Sleep waits between steps; defaults to a context-aware timer
	Sleep func(ctx context.Context, d time.Duration) error
}

// Submitter applies to jobs one at a time. Failures never escape Apply;
// they are logged and reported in the result.
type Submitter struct {
	driver   Driver
	registry *Registry
	opts     Options
	logger   *zap.Logger
}

// NewSubmitter creates a Submitter. A nil registry means DefaultRegistry.
func NewSubmitter(driver Driver, registry *Registry, opts Options) *Submitter {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	return &Submitter{driver: driver, registry: registry, opts: opts, logger: opts.Logger}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Apply opens a browser at jobURL and, for a recognized site, runs its
// application flow with the resume at resumePath. coverLetterPath is
// accepted for future flows and currently unused. The browser session is
// closed before Apply returns.
func (s *Submitter) Apply(ctx context.Context, jobURL, resumePath, coverLetterPath string) types.ApplicationResult {
	result := types.ApplicationResult{URL: jobURL, ResumePath: resumePath}
	logger := s.logger.With(zap.String("url", jobURL))

	session, err := s.driver.Open(ctx)
	if err != nil {
		return s.fail(logger, result, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("failed to close browser", zap.Error(cerr))
		}
	}()

	if err := session.Navigate(ctx, jobURL); err != nil {
		return s.fail(logger, result, err)
	}
	if err := s.opts.Sleep(ctx, PageLoadDelay); err != nil {
		return s.fail(logger, result, err)
	}

	profile, ok := s.registry.Lookup(jobURL)
	if !ok {
		logger.Info("site not recognized, navigation only")
		result.Status = types.ApplyNavigatedOnly
		return result
	}
	result.Site = profile.Name

	status, err := s.runFlow(ctx, session, profile, jobURL, resumePath)
	if err != nil {
		return s.fail(logger, result, err)
	}
	result.Status = status
	logger.Info("application flow finished", zap.String("site", profile.Name), zap.String("status", string(status)))
	return result
}

func (s *Submitter) fail(logger *zap.Logger, result types.ApplicationResult, err error) types.ApplicationResult {
	logger.Warn("application failed", zap.Error(err))
	result.Status = types.ApplyFailed
	result.Err = err.Error()
	return result
}

func (s *Submitter) runFlow(ctx context.Context, session Session, profile SiteProfile, jobURL, resumePath string) (types.ApplyStatus, error) {
	if s.opts.Login && profile.Login != nil {
		if err := s.login(ctx, session, profile, jobURL); err != nil {
			return "", err
		}
	}

	absResume, err := filepath.Abs(resumePath)
	if err != nil {
		return "", &StepError{Site: profile.Name, Step: "resolve resume path", Err: err}
	}

	if err := s.locate(ctx, session, profile.Name, profile.EasyApply); err != nil {
		return "", err
	}
	if err := session.Click(ctx, profile.EasyApply); err != nil {
		return "", &StepError{Site: profile.Name, Step: profile.EasyApply.Name, Err: err}
	}
	if err := s.opts.Sleep(ctx, StepDelay); err != nil {
		return "", err
	}

	if err := s.locate(ctx, session, profile.Name, profile.FileInput); err != nil {
		return "", err
	}
	if err := session.Upload(ctx, profile.FileInput, absResume); err != nil {
		return "", &StepError{Site: profile.Name, Step: profile.FileInput.Name, Err: err}
	}
	if err := s.opts.Sleep(ctx, StepDelay); err != nil {
		return "", err
	}

	if err := s.locate(ctx, session, profile.Name, profile.Submit); err != nil {
		return "", err
	}
	if !s.opts.SubmitApplications {
		return types.ApplySimulated, nil
	}
	if err := session.Click(ctx, profile.Submit); err != nil {
		return "", &StepError{Site: profile.Name, Step: profile.Submit.Name, Err: err}
	}
	return types.ApplySubmitted, nil
}

// locate snapshots the page and confirms control is present
func (s *Submitter) locate(ctx context.Context, session Session, site string, control Control) error {
	html, err := session.HTML(ctx)
	if err != nil {
		return &StepError{Site: site, Step: control.Name, Err: err}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return &StepError{Site: site, Step: control.Name, Err: errors.Wrap(err, "parse page HTML")}
	}
	if !control.FindIn(doc) {
		return &StepError{Site: site, Step: control.Name, Err: ErrControlNotFound}
	}
	return nil
}

func (s *Submitter) login(ctx context.Context, session Session, profile SiteProfile, jobURL string) error {
	creds := s.opts.Credentials
	if creds.Username == "" || creds.Password == "" {
		s.logger.Info("no credentials configured, skipping login", zap.String("site", profile.Name))
		return nil
	}

	flow := profile.Login
	if err := session.Navigate(ctx, flow.URL); err != nil {
		return &StepError{Site: profile.Name, Step: "login", Err: err}
	}
	for _, field := range []struct {
		control Control
		value   string
	}{
		{flow.Username, creds.Username},
		{flow.Password, creds.Password},
	} {
		if err := session.Fill(ctx, field.control, field.value); err != nil {
			return &StepError{Site: profile.Name, Step: "login", Err: err}
		}
	}
	if err := session.Click(ctx, flow.Submit); err != nil {
		return &StepError{Site: profile.Name, Step: "login", Err: err}
	}
	if err := s.opts.Sleep(ctx, LoginDelay); err != nil {
		return err
	}
	if err := session.Navigate(ctx, jobURL); err != nil {
		return &StepError{Site: profile.Name, Step: "login", Err: err}
	}
	return s.opts.Sleep(ctx, PageLoadDelay)
}
