package portal

import (
	"net/http"
	"time"

	"github.com/okian/toplanma/pkg/logger"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultExpiryRetries  = 3
	defaultNetworkRetries = 3
	defaultBackoffInitial = 500 * time.Millisecond
	defaultBackoffMax     = 10 * time.Second
)

type settings struct {
	httpClient     *http.Client
	timeout        time.Duration
	expiryRetries  int
	networkRetries uint
	backoffInitial time.Duration
	backoffMax     time.Duration
	logger         logger.Logger
}

func defaultSettings() settings {
	return settings{
		timeout:        defaultTimeout,
		expiryRetries:  defaultExpiryRetries,
		networkRetries: defaultNetworkRetries,
		backoffInitial: defaultBackoffInitial,
		backoffMax:     defaultBackoffMax,
	}
}

// Option configures a Client and the session behind it.
type Option func(*settings)

// WithHTTPClient replaces the HTTP client. A cookie jar is attached when the
// client has none.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithExpiryRetries caps how many times one call refreshes the token and retries.
func WithExpiryRetries(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.expiryRetries = n
		}
	}
}

// WithNetworkRetries caps attempts of one request on network failures and 5xx.
func WithNetworkRetries(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.networkRetries = uint(n)
		}
	}
}

// WithBackoff shapes the exponential backoff between network attempts.
func WithBackoff(initial, maxInterval time.Duration) Option {
	return func(s *settings) {
		if initial > 0 {
			s.backoffInitial = initial
		}
		if maxInterval >= s.backoffInitial {
			s.backoffMax = maxInterval
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
