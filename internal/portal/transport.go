package portal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/okian/toplanma/pkg/logger"
	"github.com/okian/toplanma/pkg/metrics"
)

// maxBodyBytes bounds what is read from a single portal response.
const maxBodyBytes = 32 << 20

type response struct {
	status      int
	contentType string
	body        []byte
}

// transport performs single portal requests with network retries.
type transport struct {
	client  *http.Client
	headers map[headerKind]http.Header
	retries uint
	initial time.Duration
	max     time.Duration
	logger  logger.Logger
}

func (t *transport) do(ctx context.Context, op, method, target string, kind headerKind, form url.Values) (*response, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.initial
	b.MaxInterval = t.max

	attempt := func() (*response, error) {
		start := time.Now()
		res, err := t.once(ctx, method, target, kind, form)
		ms := float64(time.Since(start).Milliseconds())
		switch {
		case err != nil:
			metrics.RecordPortalRequest(op, "network_error", ms)
			return nil, err
		case res.status >= http.StatusInternalServerError:
			metrics.RecordPortalRequest(op, "server_error", ms)
			return nil, fmt.Errorf("status %d", res.status)
		case res.status >= http.StatusBadRequest:
			metrics.RecordPortalRequest(op, "client_error", ms)
			return nil, backoff.Permanent(fmt.Errorf("status %d", res.status))
		}
		metrics.RecordPortalRequest(op, "ok", ms)
		return res, nil
	}

	notify := func(err error, delay time.Duration) {
		metrics.RecordNetworkRetry(op)
		t.logger.Warn(ctx, "portal request failed, retrying",
			logger.String("operation", op),
			logger.Duration("delay", delay),
			logger.Error(err))
	}

	res, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(t.retries),
		backoff.WithNotify(notify))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrTransientService, op, err)
	}
	return res, nil
}

func (t *transport) once(ctx context.Context, method, target string, kind headerKind, form url.Values) (*response, error) {
	var body io.Reader
	if form != nil {
		body = bytes.NewBufferString(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header = t.headers[kind].Clone()

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}
