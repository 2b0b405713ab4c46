package portal

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/okian/toplanma/pkg/logger"
	"github.com/okian/toplanma/pkg/metrics"
)

// Token is the anti-forgery value the portal embeds in its query page.
type Token string

// Session holds the cookie-bearing HTTP client and the current token.
// It is safe for concurrent use. At most one token fetch is in flight; callers
// that observe the same expired token share the single refresh it triggers.
type Session struct {
	transport *transport
	pageURL   string
	logger    logger.Logger

	mu    sync.Mutex
	token Token
}

func newSession(t *transport, pageURL string, log logger.Logger) *Session {
	return &Session{transport: t, pageURL: pageURL, logger: log}
}

// Acquire fetches a fresh token unconditionally and makes it current.
func (s *Session) Acquire(ctx context.Context) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchLocked(ctx)
}

// Current returns the current token, acquiring one on first use.
func (s *Session) Current(ctx context.Context) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		return s.token, nil
	}
	return s.fetchLocked(ctx)
}

// Refresh replaces stale with a new token. If another caller already replaced
// it, the newer token is returned without contacting the portal.
func (s *Session) Refresh(ctx context.Context, stale Token) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && s.token != stale {
		return s.token, nil
	}
	return s.fetchLocked(ctx)
}

// Invalidate drops the current token so the next call acquires a new one.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

func (s *Session) fetchLocked(ctx context.Context) (Token, error) {
	res, err := s.transport.do(ctx, "token", http.MethodGet, s.pageURL, headersToken, nil)
	if err != nil {
		metrics.RecordTokenAcquisition("error")
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	token, err := ExtractToken(res.body)
	if err != nil {
		metrics.RecordTokenAcquisition("missing")
		return "", err
	}

	s.token = token
	metrics.RecordTokenAcquisition("ok")
	s.logger.Debug(ctx, "portal token acquired")
	return token, nil
}
