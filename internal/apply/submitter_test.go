package apply

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-agent/internal/types"
)

const fullPage = `<html><body>
<button class="jobs-apply-button">Easy Apply</button>
<input type="file" name="resume">
<button>Submit application</button>
</body></html>`

type fakeSession struct {
	html     string
	actions  []string
	clickErr error
	navErr   error
	closed   bool
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.actions = append(s.actions, "navigate "+url)
	return s.navErr
}

func (s *fakeSession) HTML(context.Context) (string, error) {
	return s.html, nil
}

func (s *fakeSession) Click(_ context.Context, c Control) error {
	s.actions = append(s.actions, "click "+c.Name)
	return s.clickErr
}

func (s *fakeSession) Upload(_ context.Context, c Control, path string) error {
	s.actions = append(s.actions, fmt.Sprintf("upload %s %s", c.Name, path))
	return nil
}

func (s *fakeSession) Fill(_ context.Context, c Control, value string) error {
	s.actions = append(s.actions, fmt.Sprintf("fill %s %s", c.Name, value))
	return nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeDriver struct {
	session *fakeSession
	err     error
}

func (d *fakeDriver) Open(context.Context) (Session, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.session, nil
}

func newTestSubmitter(session *fakeSession, opts Options) (*Submitter, *[]time.Duration) {
	var sleeps []time.Duration
	opts.Sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return NewSubmitter(&fakeDriver{session: session}, nil, opts), &sleeps
}

func TestApply_UnrecognizedSiteNavigatesOnly(t *testing.T) {
	session := &fakeSession{html: fullPage}
	submitter, sleeps := newTestSubmitter(session, Options{})

	result := submitter.Apply(context.Background(), "https://www.indeed.com/viewjob?jk=67890", "/tmp/resume.pdf", "")

	assert.Equal(t, types.ApplyNavigatedOnly, result.Status)
	assert.Equal(t, []string{"navigate https://www.indeed.com/viewjob?jk=67890"}, session.actions)
	assert.Equal(t, []time.Duration{PageLoadDelay}, *sleeps)
	assert.True(t, session.closed)
	assert.True(t, result.OK())
}

func TestApply_LinkedInSimulated(t *testing.T) {
	session := &fakeSession{html: fullPage}
	submitter, sleeps := newTestSubmitter(session, Options{})

	result := submitter.Apply(context.Background(), "https://www.linkedin.com/jobs/view/12345", "/tmp/resume.pdf", "/tmp/cover.pdf")

	assert.Equal(t, types.ApplySimulated, result.Status)
	assert.Equal(t, "linkedin", result.Site)
	assert.Equal(t, []string{
		"navigate https://www.linkedin.com/jobs/view/12345",
		"click easy apply",
		"upload resume upload /tmp/resume.pdf",
	}, session.actions)
	assert.Equal(t, []time.Duration{PageLoadDelay, StepDelay, StepDelay}, *sleeps)
	assert.True(t, session.closed)
}

func TestApply_LinkedInSubmit(t *testing.T) {
	session := &fakeSession{html: fullPage}
	submitter, _ := newTestSubmitter(session, Options{SubmitApplications: true})

	result := submitter.Apply(context.Background(), "https://www.linkedin.com/jobs/view/12345", "/tmp/resume.pdf", "")

	assert.Equal(t, types.ApplySubmitted, result.Status)
	assert.Equal(t, "click submit application", session.actions[len(session.actions)-1])
}

func TestApply_MissingControlIsNonFatal(t *testing.T) {
	session := &fakeSession{html: `<html><body><button>Apply on company site</button></body></html>`}
	submitter, _ := newTestSubmitter(session, Options{})

	result := submitter.Apply(context.Background(), "https://www.linkedin.com/jobs/view/1", "/tmp/resume.pdf", "")

	assert.Equal(t, types.ApplyFailed, result.Status)
	assert.Contains(t, result.Err, "easy apply")
	assert.Contains(t, result.Err, ErrControlNotFound.Error())
	assert.Equal(t, []string{"navigate https://www.linkedin.com/jobs/view/1"}, session.actions)
	assert.True(t, session.closed)
}

func TestApply_ClickFailure(t *testing.T) {
	session := &fakeSession{html: fullPage, clickErr: errors.New("node not visible")}
	submitter, _ := newTestSubmitter(session, Options{})

	result := submitter.Apply(context.Background(), "https://linkedin.com/jobs/view/1", "/tmp/resume.pdf", "")

	assert.Equal(t, types.ApplyFailed, result.Status)
	assert.Contains(t, result.Err, "node not visible")
	assert.True(t, session.closed)
}

func TestApply_NavigationFailure(t *testing.T) {
	session := &fakeSession{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	submitter, _ := newTestSubmitter(session, Options{})

	result := submitter.Apply(context.Background(), "https://example.invalid/job", "/tmp/resume.pdf", "")

	assert.Equal(t, types.ApplyFailed, result.Status)
	assert.True(t, session.closed)
}

func TestApply_BrowserStartFailure(t *testing.T) {
	submitter := NewSubmitter(&fakeDriver{err: errors.New("chrome not found")}, nil, Options{})

	result := submitter.Apply(context.Background(), "https://www.linkedin.com/jobs/view/1", "/tmp/resume.pdf", "")

	assert.Equal(t, types.ApplyFailed, result.Status)
	assert.Contains(t, result.Err, "chrome not found")
}

func TestApply_Login(t *testing.T) {
	session := &fakeSession{html: fullPage}
	submitter, sleeps := newTestSubmitter(session, Options{
		Login:       true,
		Credentials: Credentials{Username: "me@example.com", Password: "hunter2"},
	})

	result := submitter.Apply(context.Background(), "https://www.linkedin.com/jobs/view/1", "/tmp/resume.pdf", "")
	require.Equal(t, types.ApplySimulated, result.Status)

	assert.Equal(t, []string{
		"navigate https://www.linkedin.com/jobs/view/1",
		"navigate https://www.linkedin.com/login",
		"fill username me@example.com",
		"fill password hunter2",
		"click sign in",
		"navigate https://www.linkedin.com/jobs/view/1",
		"click easy apply",
		"upload resume upload /tmp/resume.pdf",
	}, session.actions)
	assert.Equal(t, []time.Duration{PageLoadDelay, LoginDelay, PageLoadDelay, StepDelay, StepDelay}, *sleeps)
}

func TestApply_LoginSkippedWithoutCredentials(t *testing.T) {
	session := &fakeSession{html: fullPage}
	submitter, _ := newTestSubmitter(session, Options{Login: true})

	result := submitter.Apply(context.Background(), "https://www.linkedin.com/jobs/view/1", "/tmp/resume.pdf", "")

	assert.Equal(t, types.ApplySimulated, result.Status)
	assert.NotContains(t, session.actions, "navigate https://www.linkedin.com/login")
}
