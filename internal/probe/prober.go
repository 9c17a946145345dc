package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// candidateNames are the well-known filenames used to infer directory
// existence when the server refuses directory URLs outright.
var candidateNames = []string{
	"1.png", "2.png", "3.png", "4.png", "5.png",
	"8.png", "10.png", "11.png", "12.png", "14.png", "15.png", "16.png",
}

// Options configures an HTTPProber.
type Options struct {
	Timeout           time.Duration
	UserAgent         string
	CacheTTL          time.Duration
	RequestsPerSecond float64
	RespectRobots     bool
}

// HTTPProber is the probing-mode existence strategy: it issues minimal GET
// requests against candidate resources. HTTP success and 403 ("directory
// exists, listing disabled") count as existence; 404, network failure, and
// timeout count as absence. Verdicts are cached and probes are rate-limited
// per host.
type HTTPProber struct {
	httpClient *http.Client
	userAgent  string
	verdicts   *gocache.Cache
	limiter    *hostLimiter
	robots     *RobotsChecker
	logger     *zap.Logger
}

// NewHTTPProber creates a probing-mode strategy.
func NewHTTPProber(opts Options, logger *zap.Logger) *HTTPProber {
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &HTTPProber{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		verdicts:  gocache.New(opts.CacheTTL, 2*opts.CacheTTL),
		logger:    logger,
	}

	if opts.RequestsPerSecond > 0 {
		p.limiter = newHostLimiter(opts.RequestsPerSecond, 5)
	}
	if opts.RespectRobots {
		p.robots = NewRobotsChecker(opts.UserAgent, opts.Timeout)
	}

	return p
}

// DirExists probes the directory URL itself first (trailing slash; ok or 403
// means the directory is there). Static hosts that 404 directory URLs fall
// back to candidate-filename inference — see the Strategy contract for the
// precision limitation this carries.
func (p *HTTPProber) DirExists(ctx context.Context, path string) bool {
	dirURL := strings.TrimRight(path, "/") + "/"
	if exists, cached := p.cached(dirURL); cached {
		return exists
	}

	status, err := p.head(ctx, dirURL)
	if err == nil && dirStatusOK(status) {
		p.remember(dirURL, true)
		return true
	}

	for _, name := range candidateNames {
		if p.FileExists(ctx, dirURL+name) {
			p.remember(dirURL, true)
			return true
		}
	}

	p.remember(dirURL, false)
	return false
}

// FileExists probes a single file URL. Any 2xx answers true; everything else,
// including transport errors and timeouts, answers false.
func (p *HTTPProber) FileExists(ctx context.Context, path string) bool {
	if exists, cached := p.cached(path); cached {
		return exists
	}

	status, err := p.head(ctx, path)
	exists := err == nil && fileStatusOK(status)
	if err == nil && !exists && status != http.StatusNotFound {
		p.logger.Debug("unexpected probe status",
			zap.String("url", path), zap.Int("status", status))
	}

	p.remember(path, exists)
	return exists
}

// KnownImages is never available in probing mode.
func (p *HTTPProber) KnownImages(string) ([]string, bool) {
	return nil, false
}

// head issues the existence check. GET rather than HEAD: some static servers
// refuse HEAD for files. The body is discarded unread.
func (p *HTTPProber) head(ctx context.Context, rawURL string) (int, error) {
	if p.robots != nil && !isLoopback(rawURL) && !p.robots.Allowed(ctx, rawURL) {
		p.logger.Debug("probe disallowed by robots.txt", zap.String("url", rawURL))
		return 0, fmt.Errorf("disallowed by robots.txt")
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, rawURL); err != nil {
			return 0, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("probe: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode, nil
}

func (p *HTTPProber) cached(key string) (exists, found bool) {
	if v, ok := p.verdicts.Get(key); ok {
		return v.(bool), true
	}
	return false, false
}

func (p *HTTPProber) remember(key string, exists bool) {
	p.verdicts.Set(key, exists, gocache.DefaultExpiration)
}

// fileStatusOK: a file exists only on a 2xx answer.
func fileStatusOK(status int) bool {
	return status >= 200 && status < 300
}

// dirStatusOK: directory URLs additionally count surfaced redirects and 403
// ("directory exists, listing disabled") as existence.
func dirStatusOK(status int) bool {
	return (status >= 200 && status < 400) || status == http.StatusForbidden
}

// isLoopback reports whether the URL targets a local dev server, which is
// exempt from robots.txt politeness.
func isLoopback(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

// CacheBust appends a millisecond version query so reloaded sessions never
// see stale images from an intermediate cache.
func CacheBust(rawURL string, now time.Time) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + "v=" + strconv.FormatInt(now.UnixMilli(), 10)
}
