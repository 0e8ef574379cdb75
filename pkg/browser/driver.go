// Package browser owns the single controlled browser instance the agent
// drives. One Driver maps to exactly one Playwright browser, context, and
// page; callers must serialize access (the agent's single-flight lock does
// this), since the underlying page has no notion of concurrent independent
// operations.
package browser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/perchlabs/perch/pkg/logging"
)

// ErrNotOpen is returned by page operations issued before Open or after
// Close. Probes (Exists, ExistsAny) resolve it to false instead.
var ErrNotOpen = errors.New("browser not open")

// Driver issues navigation, element-query, input, and screenshot operations
// against its one page. Zero value is not usable; construct with New and
// call Open before use.
type Driver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	opts    Options
	log     *logging.Logger
	open    bool
}

// New creates an unopened driver.
func New(opts Options, log *logging.Logger) *Driver {
	if opts.Viewport == nil {
		opts.Viewport = &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if opts.DefaultTimeout == 0 {
		opts.DefaultTimeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Driver{opts: opts, log: log}
}

// Open installs and starts Playwright, launches the browser, and creates
// the context and page. Idempotent: opening an open driver is a no-op.
func (d *Driver) Open() error {
	if d.open {
		return nil
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(d.opts.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--no-default-browser-check",
		},
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  d.opts.Viewport.Width,
			Height: d.opts.Viewport.Height,
		},
		UserAgent: playwright.String(d.opts.UserAgent),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		pw.Stop()
		return fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(d.opts.DefaultTimeout.Milliseconds()))

	d.pw = pw
	d.browser = browser
	d.context = context
	d.page = page
	d.open = true
	d.log.Infof("browser session opened (headless=%v)", d.opts.Headless)
	return nil
}

// Close tears down the page, context, browser, and Playwright. Errors from
// individual teardown steps are ignored so cleanup always completes.
func (d *Driver) Close() error {
	if !d.open {
		return nil
	}
	_ = d.page.Close()
	_ = d.context.Close()
	_ = d.browser.Close()
	err := d.pw.Stop()
	d.open = false
	d.log.Infof("browser session closed")
	return err
}

// IsOpen reports whether the driver holds a live browser session.
func (d *Driver) IsOpen() bool { return d.open }

// URL returns the current page URL, or "" when the driver is closed.
func (d *Driver) URL() string {
	if !d.open {
		return ""
	}
	return d.page.URL()
}

// Goto navigates to url, waiting up to timeout for DOM content.
func (d *Driver) Goto(url string, timeout time.Duration) error {
	if !d.open {
		return ErrNotOpen
	}
	_, err := d.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// WaitFor blocks until an element matching selector is visible, up to timeout.
func (d *Driver) WaitFor(selector string, timeout time.Duration) error {
	if !d.open {
		return ErrNotOpen
	}
	_, err := d.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
		State:   playwright.WaitForSelectorStateVisible,
	})
	if err != nil {
		return fmt.Errorf("wait for %q failed: %w", selector, err)
	}
	return nil
}

// Exists reports whether an element matching selector becomes visible
// within timeout. A probe, never an error.
func (d *Driver) Exists(selector string, timeout time.Duration) bool {
	return d.WaitFor(selector, timeout) == nil
}

// ExistsAny cycles through the selector strategy list until one matches or
// the overall timeout elapses.
func (d *Driver) ExistsAny(selectors []string, timeout time.Duration) bool {
	if !d.open {
		return false
	}
	deadline := time.Now().Add(timeout)
	for {
		for _, sel := range selectors {
			if d.Exists(sel, time.Second) {
				return true
			}
			if !time.Now().Before(deadline) {
				return false
			}
		}
		if !time.Now().Before(deadline) {
			return false
		}
	}
}

// Fill types value into the first element matching selector.
func (d *Driver) Fill(selector, value string, timeout time.Duration) error {
	if !d.open {
		return ErrNotOpen
	}
	err := d.page.Fill(selector, value, playwright.PageFillOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("fill %q failed: %w", selector, err)
	}
	return nil
}

// FillAny tries each selector in order until one accepts the value.
func (d *Driver) FillAny(selectors []string, value string, timeout time.Duration) error {
	per := perAttempt(timeout, len(selectors))
	var lastErr error
	for _, sel := range selectors {
		if lastErr = d.Fill(sel, value, per); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("no fillable element among %d selectors: %w", len(selectors), lastErr)
}

// Click clicks the first element matching selector.
func (d *Driver) Click(selector string, timeout time.Duration) error {
	if !d.open {
		return ErrNotOpen
	}
	err := d.page.Click(selector, playwright.PageClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("click %q failed: %w", selector, err)
	}
	return nil
}

// ClickAny tries each structural selector in order; returns the one that
// accepted the click.
func (d *Driver) ClickAny(selectors []string, timeout time.Duration) (string, error) {
	per := perAttempt(timeout, len(selectors))
	var lastErr error
	for _, sel := range selectors {
		if lastErr = d.Click(sel, per); lastErr == nil {
			return sel, nil
		}
	}
	return "", fmt.Errorf("no clickable element among %d selectors: %w", len(selectors), lastErr)
}

// interactiveSelector covers the element kinds label-text scanning inspects.
const interactiveSelector = `button, [role="button"], [role="link"], input[type="submit"], div[tabindex]`

// ClickByText scans all interactive elements for a case-insensitive text
// match against labels and clicks the first visible hit. Returns false when
// nothing matched; the caller falls through to its structural strategy.
func (d *Driver) ClickByText(labels []string, timeout time.Duration) (bool, error) {
	if !d.open {
		return false, ErrNotOpen
	}
	elements, err := d.page.QuerySelectorAll(interactiveSelector)
	if err != nil {
		return false, fmt.Errorf("interactive element query failed: %w", err)
	}

	for _, el := range elements {
		text, err := el.TextContent()
		if err != nil {
			continue
		}
		if !MatchesLabel(text, labels) {
			continue
		}
		if visible, err := el.IsVisible(); err != nil || !visible {
			continue
		}
		err = el.Click(playwright.ElementHandleClickOptions{
			Timeout: playwright.Float(float64(timeout.Milliseconds())),
		})
		if err != nil {
			return false, fmt.Errorf("label click failed: %w", err)
		}
		return true, nil
	}
	return false, nil
}

// MatchesLabel reports whether trimmed element text equals any of the known
// labels, case-insensitively.
func MatchesLabel(text string, labels []string) bool {
	text = strings.TrimSpace(text)
	for _, label := range labels {
		if strings.EqualFold(text, label) {
			return true
		}
	}
	return false
}

// Press sends a key press to the focused element.
func (d *Driver) Press(key string) error {
	if !d.open {
		return ErrNotOpen
	}
	if err := d.page.Keyboard().Press(key); err != nil {
		return fmt.Errorf("key press %q failed: %w", key, err)
	}
	return nil
}

// Settle waits a fixed delay for the page to finish client-side rendering.
func (d *Driver) Settle(delay time.Duration) {
	if !d.open {
		return
	}
	d.page.WaitForTimeout(float64(delay.Milliseconds()))
}

// EvaluateInto runs a JavaScript expression in the page and decodes the
// result into out via a JSON round trip.
func (d *Driver) EvaluateInto(script string, out interface{}, args ...interface{}) error {
	if !d.open {
		return ErrNotOpen
	}
	result, err := d.page.Evaluate(script, args...)
	if err != nil {
		return fmt.Errorf("evaluate failed: %w", err)
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode evaluate result: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode evaluate result: %w", err)
	}
	return nil
}

// Content returns the full rendered page markup.
func (d *Driver) Content() (string, error) {
	if !d.open {
		return "", ErrNotOpen
	}
	content, err := d.page.Content()
	if err != nil {
		return "", fmt.Errorf("content read failed: %w", err)
	}
	return content, nil
}

// Screenshot captures a diagnostic PNG into the artifact directory and
// returns its path. Best-effort by contract: callers on failure paths
// ignore the error.
func (d *Driver) Screenshot(label string) (string, error) {
	if !d.open {
		return "", fmt.Errorf("driver not open")
	}
	if d.opts.ArtifactDir == "" {
		return "", fmt.Errorf("no artifact directory configured")
	}
	if err := os.MkdirAll(d.opts.ArtifactDir, 0750); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.png", label, time.Now().Format("20060102-150405"))
	path := filepath.Join(d.opts.ArtifactDir, name)
	_, err := d.page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	})
	if err != nil {
		return "", fmt.Errorf("screenshot failed: %w", err)
	}
	return path, nil
}

// Cookies returns the context's current cookie state.
func (d *Driver) Cookies() ([]Cookie, error) {
	if !d.open {
		return nil, ErrNotOpen
	}
	raw, err := d.context.Cookies()
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Domain:  c.Domain,
			Path:    c.Path,
			Expires: c.Expires,
		})
	}
	return cookies, nil
}

// SetCookies installs cookies into the context, replacing nothing else.
func (d *Driver) SetCookies(cookies []Cookie) error {
	if !d.open {
		return ErrNotOpen
	}
	converted := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		cookie := playwright.OptionalCookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: playwright.String(c.Domain),
			Path:   playwright.String(c.Path),
		}
		if c.Expires != 0 {
			cookie.Expires = playwright.Float(c.Expires)
		}
		converted = append(converted, cookie)
	}
	if err := d.context.AddCookies(converted); err != nil {
		return fmt.Errorf("install cookies: %w", err)
	}
	return nil
}

// LocalStorage snapshots the current origin's localStorage.
func (d *Driver) LocalStorage() (map[string]string, error) {
	var snapshot map[string]string
	script := `() => {
		const out = {};
		for (let i = 0; i < localStorage.length; i++) {
			const key = localStorage.key(i);
			out[key] = localStorage.getItem(key);
		}
		return out;
	}`
	if err := d.EvaluateInto(script, &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// SetLocalStorage writes entries into the current origin's localStorage.
func (d *Driver) SetLocalStorage(entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	script := `(entries) => {
		for (const [key, value] of Object.entries(entries)) {
			localStorage.setItem(key, value);
		}
		return true;
	}`
	var ok bool
	return d.EvaluateInto(script, &ok, entries)
}

// perAttempt splits an overall bound across n sequential attempts so the
// strategy list as a whole stays inside the caller's timeout.
func perAttempt(timeout time.Duration, n int) time.Duration {
	if n <= 1 {
		return timeout
	}
	per := timeout / time.Duration(n)
	if per < 500*time.Millisecond {
		per = 500 * time.Millisecond
	}
	return per
}
