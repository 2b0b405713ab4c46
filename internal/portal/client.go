// Package portal talks to the turkiye.gov.tr gathering-area query tool: the
// session token, the hierarchy listings, the neighborhood map page and the
// point query.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/toplanma/internal/domain/model"
	"github.com/okian/toplanma/pkg/logger"
	"github.com/paulmach/orb"
	"golang.org/x/net/publicsuffix"
)

// Client is the typed surface over the gateway.
type Client struct {
	session *Session
	gateway *Gateway
	logger  logger.Logger
}

// New builds a client for the query tool at baseURL+pagePath.
func New(baseURL, pagePath string, opts ...Option) (*Client, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logger.Named("portal")
	}

	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	if !strings.HasPrefix(pagePath, "/") {
		pagePath = "/" + pagePath
	}
	origin := base.Scheme + "://" + base.Host
	pageURL := origin + pagePath

	httpClient := s.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: s.timeout}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}

	t := &transport{
		client:  httpClient,
		headers: headerSets(origin, pageURL),
		retries: s.networkRetries,
		initial: s.backoffInitial,
		max:     s.backoffMax,
		logger:  s.logger,
	}
	session := newSession(t, pageURL, s.logger)

	return &Client{
		session: session,
		gateway: &Gateway{
			session:       session,
			transport:     t,
			pageURL:       pageURL,
			path:          pagePath,
			expiryRetries: s.expiryRetries,
			logger:        s.logger,
		},
		logger: s.logger,
	}, nil
}

// Session exposes the token holder shared by all calls of this client.
func (c *Client) Session() *Session { return c.session }

// Gateway exposes the authenticated call layer.
func (c *Client) Gateway() *Gateway { return c.gateway }

// Districts lists the districts of a province.
func (c *Client) Districts(ctx context.Context, provinceCode int) ([]model.Unit, error) {
	return c.units(ctx, OpDistricts, url.Values{
		"ilKodu": {strconv.Itoa(provinceCode)},
	})
}

// Neighborhoods lists the neighborhoods of a district.
func (c *Client) Neighborhoods(ctx context.Context, provinceCode int, districtID model.ID) ([]model.Unit, error) {
	return c.units(ctx, OpNeighborhoods, url.Values{
		"ilKodu":   {strconv.Itoa(provinceCode)},
		"ilceKodu": {districtID.String()},
	})
}

// Streets lists the streets of a neighborhood.
func (c *Client) Streets(ctx context.Context, provinceCode int, districtID, neighborhoodID model.ID) ([]model.Unit, error) {
	return c.units(ctx, OpStreets, url.Values{
		"ilKodu":      {strconv.Itoa(provinceCode)},
		"ilceKodu":    {districtID.String()},
		"mahalleKodu": {neighborhoodID.String()},
		"sokakKodu":   {neighborhoodID.String()},
	})
}

// MapAreas returns the polygons the map page draws for a neighborhood.
func (c *Client) MapAreas(ctx context.Context, provinceCode int, districtID, neighborhoodID model.ID) ([]MapArea, error) {
	page, err := c.gateway.Page(ctx, url.Values{
		"ilKodu":      {strconv.Itoa(provinceCode)},
		"ilceKodu":    {districtID.String()},
		"mahalleKodu": {neighborhoodID.String()},
		"sokakKodu":   {""},
	})
	if err != nil {
		return nil, err
	}
	return ExtractGatheringAreas(page)
}

// PointAreas returns the gathering areas near a coordinate (X is longitude).
func (c *Client) PointAreas(ctx context.Context, p orb.Point) ([]model.GatheringArea, error) {
	body, err := c.gateway.Call(ctx, OpPointQuery, url.Values{
		"lat": {strconv.FormatFloat(p.Lat(), 'f', -1, 64)},
		"lng": {strconv.FormatFloat(p.Lon(), 'f', -1, 64)},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Features []model.Feature `json:"features"`
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, OpPointQuery.Name, err)
	}

	areas := make([]model.GatheringArea, 0, len(payload.Features))
	for _, f := range payload.Features {
		area, err := f.GatheringArea()
		if err != nil {
			c.logger.Debug(ctx, "skipping feature without id", logger.Any("properties", f.Properties))
			continue
		}
		areas = append(areas, area)
	}
	return areas, nil
}

func (c *Client) units(ctx context.Context, op Operation, params url.Values) ([]model.Unit, error) {
	body, err := c.gateway.Call(ctx, op, params)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data struct {
			DataArr []model.Unit `json:"dataArr"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, op.Name, err)
	}
	return payload.Data.DataArr, nil
}
