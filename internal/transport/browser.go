package transport

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/MrSnakeDoc/tlama/internal/logger"
)

type browser struct {
	rod      *rod.Browser
	launcher *launcher.Launcher
	opts     Options
}

func launchBrowser(opts Options, log logger.Logger) (*browser, error) {
	l := launcher.New().
		Headless(opts.BrowserHeadless).
		NoSandbox(true)
	if opts.BrowserBin != "" {
		l = l.Bin(opts.BrowserBin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	log.Debug("browser started",
		logger.String("bin", opts.BrowserBin),
		logger.Bool("headless", opts.BrowserHeadless))

	return &browser{rod: b, launcher: l, opts: opts}, nil
}

func (b *browser) render(ctx context.Context, url, waitSelector string) (string, error) {
	tab, err := b.rod.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("open tab: %w", err)
	}
	defer func() { _ = tab.Close() }()

	page := tab

	if b.opts.Timeout > 0 {
		page = page.Timeout(b.opts.Timeout)
	}

	if b.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.opts.UserAgent}); err != nil {
			return "", fmt.Errorf("set user agent: %w", err)
		}
	}

	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}
	if waitSelector != "" {
		if _, err := page.Element(waitSelector); err != nil {
			return "", fmt.Errorf("wait for %s: %w", waitSelector, err)
		}
	}

	return page.HTML()
}

func (b *browser) close() error {
	err := b.rod.Close()
	b.launcher.Kill()
	return err
}
