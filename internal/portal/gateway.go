package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"github.com/okian/toplanma/pkg/logger"
	"github.com/okian/toplanma/pkg/metrics"
)

// Operation is one kind of data call the query tool supports.
type Operation struct {
	// Name labels logs and metrics.
	Name string
	// Selector is the islem form value.
	Selector string

	query string
	kind  headerKind
}

// Data operations of the query tool.
var (
	OpDistricts     = Operation{Name: "districts", Selector: "ilceKodu", query: "submit", kind: headersData}
	OpNeighborhoods = Operation{Name: "neighborhoods", Selector: "mahalleKodu", query: "submit", kind: headersData}
	OpStreets       = Operation{Name: "streets", Selector: "sokakKodu", query: "submit", kind: headersData}
	OpPointQuery    = Operation{Name: "point_query", Selector: "getAlanlarForNokta", query: "harita=goster&submit", kind: headersPoint}
)

// Gateway issues authenticated calls and hides token expiry from callers.
type Gateway struct {
	session       *Session
	transport     *transport
	pageURL       string
	path          string
	expiryRetries int
	logger        logger.Logger
}

// Call posts op with params and returns the JSON body. An answer that is not
// JSON means the token expired: the token is refreshed and the call retried,
// at most expiryRetries times, before ErrTransientService is returned.
func (g *Gateway) Call(ctx context.Context, op Operation, params url.Values) (json.RawMessage, error) {
	token, err := g.session.Current(ctx)
	if err != nil {
		return nil, err
	}

	for refreshes := 0; ; refreshes++ {
		form := url.Values{}
		for k, v := range params {
			form[k] = v
		}
		form.Set("token", string(token))
		form.Set("ajax", "1")
		form.Set("pn", g.path)
		form.Set("islem", op.Selector)

		res, err := g.transport.do(ctx, op.Name, http.MethodPost, g.pageURL+"?"+op.query, op.kind, form)
		if err != nil {
			return nil, err
		}
		if body, ok := jsonBody(res); ok {
			return body, nil
		}

		if refreshes >= g.expiryRetries {
			return nil, fmt.Errorf("%w: %s: token rejected after %d refreshes", ErrTransientService, op.Name, refreshes)
		}
		metrics.RecordTokenExpiryRetry(op.Name)
		g.logger.Debug(ctx, "token expired, refreshing",
			logger.String("operation", op.Name),
			logger.Int("attempt", refreshes+1))

		if token, err = g.session.Refresh(ctx, token); err != nil {
			return nil, err
		}
	}
}

// Page submits the map form for one neighborhood and returns the HTML. The
// landing page in place of a result means the token expired; it is handled
// like an expired Call, with the same refresh budget.
func (g *Gateway) Page(ctx context.Context, params url.Values) ([]byte, error) {
	const op = "map_page"

	token, err := g.session.Current(ctx)
	if err != nil {
		return nil, err
	}

	for refreshes := 0; ; refreshes++ {
		form := url.Values{}
		for k, v := range params {
			form[k] = v
		}
		form.Set("token", string(token))
		form.Set("btn", "Sorgula")

		res, err := g.transport.do(ctx, op, http.MethodPost, g.pageURL+"?submit", headersMap, form)
		if err != nil {
			return nil, err
		}
		if !expiredPage(res.body) {
			return res.body, nil
		}

		if refreshes >= g.expiryRetries {
			return nil, fmt.Errorf("%w: %s: token rejected after %d refreshes", ErrTransientService, op, refreshes)
		}
		metrics.RecordTokenExpiryRetry(op)
		g.logger.Debug(ctx, "token expired, refreshing",
			logger.String("operation", op),
			logger.Int("attempt", refreshes+1))

		if token, err = g.session.Refresh(ctx, token); err != nil {
			return nil, err
		}
	}
}

func jsonBody(res *response) (json.RawMessage, bool) {
	mediaType, _, err := mime.ParseMediaType(res.contentType)
	if err != nil || mediaType != "application/json" {
		return nil, false
	}
	body := bytes.TrimSpace(res.body)
	if len(body) == 0 || !json.Valid(body) {
		return nil, false
	}
	return json.RawMessage(body), true
}
