package apply

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// DefaultActionTimeout bounds each browser action so a missing element cannot hang the run
const DefaultActionTimeout = 15 * time.Second

// Session is one open browser tab
type Session interface {
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	Click(ctx context.Context, c Control) error
	Upload(ctx context.Context, c Control, path string) error
	Fill(ctx context.Context, c Control, value string) error
	Close() error
}

// Driver opens browser sessions
type Driver interface {
	Open(ctx context.Context) (Session, error)
}

// ChromeDriver drives a local Chrome or Chromium through the DevTools protocol.
// Requires Chrome/Chromium to be installed on the system.
type ChromeDriver struct {
	Headless      bool
	ActionTimeout time.Duration
	Logger        *zap.Logger
}

// Open starts a browser and returns a session on its first tab
func (d *ChromeDriver) Open(ctx context.Context) (Session, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := d.ActionTimeout
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", d.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Run with no actions launches the browser
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, errors.Wrap(err, "failed to start browser")
	}

	logger.Debug("browser started", zap.Bool("headless", d.Headless))
	return &chromeSession{
		ctx:     browserCtx,
		timeout: timeout,
		logger:  logger,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
	}, nil
}

type chromeSession struct {
	ctx     context.Context
	timeout time.Duration
	logger  *zap.Logger
	cancel  func()
}

// run executes actions on the tab, bounded by the action timeout and by ctx
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("navigate", zap.String("url", url))
	if err := s.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return errors.Wrapf(err, "navigate to %s", url)
	}
	return nil
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", errors.Wrap(err, "read page HTML")
	}
	return html, nil
}

func (s *chromeSession) Click(ctx context.Context, c Control) error {
	s.logger.Debug("click", zap.String("control", c.Name))
	if err := s.run(ctx, chromedp.Click(c.XPath, chromedp.BySearch, chromedp.NodeVisible)); err != nil {
		return errors.Wrapf(err, "click %s", c.Name)
	}
	return nil
}

func (s *chromeSession) Upload(ctx context.Context, c Control, path string) error {
	s.logger.Debug("upload", zap.String("control", c.Name), zap.String("path", path))
	if err := s.run(ctx, chromedp.SetUploadFiles(c.XPath, []string{path}, chromedp.BySearch)); err != nil {
		return errors.Wrapf(err, "upload to %s", c.Name)
	}
	return nil
}

func (s *chromeSession) Fill(ctx context.Context, c Control, value string) error {
	if err := s.run(ctx, chromedp.SendKeys(c.XPath, value, chromedp.BySearch, chromedp.NodeVisible)); err != nil {
		return errors.Wrapf(err, "fill %s", c.Name)
	}
	return nil
}

func (s *chromeSession) Close() error {
	s.cancel()
	return nil
}
