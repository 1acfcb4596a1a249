package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/suar-net/suar-reactive/internal/codec"
	"github.com/suar-net/suar-reactive/internal/config"
	"github.com/suar-net/suar-reactive/internal/model"
)

const (
	maxResponseBodySize   = 10 * 1024 * 1024 // 10 MB
	defaultRequestTimeout = 30 * time.Second
)

var allowedMethods = map[model.Method]bool{
	model.MethodGet:     true,
	model.MethodPost:    true,
	model.MethodPut:     true,
	model.MethodDelete:  true,
	model.MethodPatch:   true,
	model.MethodHead:    true,
	model.MethodOptions: true,
}

// isPrivateIP checks if a given IP address is private.
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalMulticast() || ip.IsLinkLocalUnicast() {
		return true
	}
	ip4 := ip.To4()
	if ip4 != nil {
		return ip4[0] == 10 ||
			(ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31) ||
			(ip4[0] == 192 && ip4[1] == 168)
	}
	// fc00::/7 unique local addresses
	return ip.IsPrivate()
}

// HTTPTransport performs requests with net/http. Cookies are kept in a jar
// and attached according to the request's credentials mode.
type HTTPTransport struct {
	withCookies    *http.Client
	withoutCookies *http.Client
	baseURL        *url.URL
	timeout        time.Duration
	maxBodySize    int64
	allowPrivate   bool
}

func NewHTTPTransport(cfg config.TransportConfig) (*HTTPTransport, error) {
	var baseURL *url.URL
	if cfg.BaseURL != "" {
		parsed, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse base URL: %v", ErrInvalidInput, err)
		}
		baseURL = parsed
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	// Create a custom transport with optimized settings
	transport := &http.Transport{
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	t := &HTTPTransport{
		baseURL:      baseURL,
		timeout:      cfg.RequestTimeout,
		maxBodySize:  cfg.MaxResponseBodySize,
		allowPrivate: cfg.AllowPrivateTargets,
	}
	t.withCookies = &http.Client{Transport: transport, Jar: jar, CheckRedirect: t.checkRedirect}
	t.withoutCookies = &http.Client{Transport: transport, CheckRedirect: t.checkRedirect}
	if t.timeout <= 0 {
		t.timeout = defaultRequestTimeout
	}
	if t.maxBodySize <= 0 {
		t.maxBodySize = maxResponseBodySize
	}
	return t, nil
}

func (t *HTTPTransport) Do(ctx context.Context, rawURL string, d Descriptor) (Response, error) {
	method := model.Method(strings.ToUpper(string(d.Method)))
	if method == "" {
		method = model.MethodGet
	}
	if !allowedMethods[method] {
		return nil, fmt.Errorf("%w: invalid or unsupported HTTP method: %s", ErrInvalidInput, method)
	}

	target, err := t.resolve(rawURL)
	if err != nil {
		return nil, err
	}
	if err := t.checkHost(ctx, target.Hostname()); err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var bodyReader io.Reader
	if d.Body != nil {
		bodyReader = bytes.NewReader(d.Body.Content)
	}

	httpRequest, err := http.NewRequestWithContext(reqCtx, string(method), target.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	for key, value := range d.Headers {
		httpRequest.Header.Set(key, value)
	}
	if d.Body != nil && d.Body.ContentType != "" {
		httpRequest.Header.Set(codec.HeaderContentType, d.Body.ContentType)
	}

	httpResponse, err := t.clientFor(d.Credentials, target).Do(httpRequest)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %v", ErrRequestTimeout, err)
		}
		return nil, err
	}
	defer httpResponse.Body.Close()

	// the body is buffered while reqCtx is alive
	limitedReader := &io.LimitedReader{R: httpResponse.Body, N: t.maxBodySize + 1}
	bodyBytes, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(bodyBytes)) > t.maxBodySize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, t.maxBodySize)
	}

	return &bufferedResponse{
		status: httpResponse.StatusCode,
		header: httpResponse.Header,
		body:   bodyBytes,
	}, nil
}

func (t *HTTPTransport) resolve(rawURL string) (*url.URL, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse URL: %v", ErrInvalidInput, err)
	}
	if t.baseURL != nil {
		parsedURL = t.baseURL.ResolveReference(parsedURL)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: invalid URL scheme: %q. Only 'http' and 'https' are allowed", ErrInvalidInput, parsedURL.Scheme)
	}
	return parsedURL, nil
}

// checkHost rejects hosts resolving to loopback, link-local or private
// networks unless private targets are allowed.
func (t *HTTPTransport) checkHost(ctx context.Context, host string) error {
	if t.allowPrivate {
		return nil
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: could not resolve hostname: %v", ErrInvalidInput, err)
	}
	for _, addr := range addrs {
		if isPrivateIP(addr.IP) {
			return fmt.Errorf("%w: requests to private IP addresses are not allowed", ErrInvalidInput)
		}
	}
	return nil
}

// checkRedirect applies the host check to every redirect hop.
func (t *HTTPTransport) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	return t.checkHost(req.Context(), req.URL.Hostname())
}

// clientFor picks the client matching the credentials mode. Same-origin is
// the default and only sends cookies to the base URL's host.
func (t *HTTPTransport) clientFor(mode model.Credentials, target *url.URL) *http.Client {
	switch mode {
	case model.CredentialsInclude:
		return t.withCookies
	case model.CredentialsOmit:
		return t.withoutCookies
	}
	if t.baseURL != nil && strings.EqualFold(t.baseURL.Host, target.Host) && t.baseURL.Scheme == target.Scheme {
		return t.withCookies
	}
	return t.withoutCookies
}

type bufferedResponse struct {
	status int
	header http.Header
	body   []byte
}

func (r *bufferedResponse) StatusCode() int { return r.status }

func (r *bufferedResponse) Header(name string) string { return r.header.Get(name) }

func (r *bufferedResponse) Body() ([]byte, error) { return r.body, nil }
