package petfriends

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/afero"
)

const defaultTimeout = 30 * time.Second

// Option configures a Client.
type Option func(*options)

type options struct {
	timeout     time.Duration
	transport   http.RoundTripper
	resty       *resty.Client
	restyLogger resty.Logger
	userAgent   string
	fs          afero.Fs
	log         Logger
}

// WithTimeout bounds each round trip. Zero disables the client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithTransport replaces the underlying round tripper. It is still wrapped for tracing.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithRestyClient sends requests through c. The client is not modified: requests carry
// absolute URLs, so c's base URL is ignored and its timeout, transport and headers apply.
// WithTimeout, WithTransport, WithRestyLogger and WithUserAgent have no effect with it.
func WithRestyClient(c *resty.Client) Option {
	return func(o *options) {
		o.resty = c
	}
}

// WithRestyLogger routes resty's own warnings (e.g. malformed responses) to l.
func WithRestyLogger(l resty.Logger) Option {
	return func(o *options) {
		o.restyLogger = l
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithFs sets the filesystem photos are read from.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithLogger sets the structured logger used for per-call diagnostics.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
