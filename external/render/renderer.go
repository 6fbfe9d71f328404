// Package render turns HTML markup into PNG bytes with a headless browser.
// The markup is served to the browser from a loopback listener so templates
// can reference it by URL like any other page.
package render

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/valyala/fasthttp"

	"github.com/sidelinehq/clubpromo/internal/platform/id"
	"github.com/sidelinehq/clubpromo/internal/platform/logging"
)

const defaultTimeout = 30 * time.Second

type Config struct {
	// Timeout bounds one Render call, browser launch included.
	Timeout time.Duration
	Logger  *logging.Logger
}

type ChromeRenderer struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	logger      *logging.Logger

	listener net.Listener
	server   *fasthttp.Server
	baseURL  string
	ids      id.Generator

	mu    sync.Mutex
	pages map[string]string
}

// NewChromeRenderer starts the loopback markup server and prepares the
// browser allocator. The browser itself launches on the first Render call.
func NewChromeRenderer(cfg Config) (*ChromeRenderer, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for markup server: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	r := &ChromeRenderer{
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
		listener:    listener,
		baseURL:     "http://" + listener.Addr().String(),
		ids:         id.NewRandomGenerator(),
		pages:       make(map[string]string),
	}
	r.server = &fasthttp.Server{
		Handler:          r.serveMarkup,
		DisableKeepalive: true,
	}

	go func() {
		if err := r.server.Serve(listener); err != nil {
			r.logger.Warn("markup server stopped", "error", err)
		}
	}()

	return r, nil
}

// Close shuts the browser allocator and the markup server down.
func (r *ChromeRenderer) Close() error {
	r.cancelAlloc()
	return r.server.Shutdown()
}

// Render serves markup on the loopback listener, opens it in a fresh browser
// tab sized to width x height, and returns a PNG screenshot of the viewport.
func (r *ChromeRenderer) Render(ctx context.Context, markup string, width, height int) ([]byte, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, fmt.Errorf("markup is empty")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}

	token, err := r.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate page token: %w", err)
	}
	r.registerMarkup(token, markup)
	defer r.releaseMarkup(token)

	browserCtx, cancelBrowser := chromedp.NewContext(r.allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, r.timeout)
	defer cancelTimeout()

	// The browser context descends from the allocator, not from the caller,
	// so caller cancellation has to be forwarded by hand.
	stop := context.AfterFunc(ctx, cancelBrowser)
	defer stop()

	var png []byte
	err = chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(r.baseURL+"/"+token),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var captureErr error
			png, captureErr = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatPng).
				Do(ctx)
			return captureErr
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("render markup: %w", err)
	}
	if len(png) == 0 {
		return nil, fmt.Errorf("render markup: empty screenshot")
	}
	return png, nil
}

func (r *ChromeRenderer) serveMarkup(ctx *fasthttp.RequestCtx) {
	token := strings.TrimPrefix(string(ctx.Path()), "/")

	r.mu.Lock()
	markup, ok := r.pages[token]
	r.mu.Unlock()

	if !ok {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		return
	}

	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBodyString(markup)
}

func (r *ChromeRenderer) registerMarkup(token, markup string) {
	r.mu.Lock()
	r.pages[token] = markup
	r.mu.Unlock()
}

func (r *ChromeRenderer) releaseMarkup(token string) {
	r.mu.Lock()
	delete(r.pages, token)
	r.mu.Unlock()
}
