// Package portaltest provides an in-process stand-in for the gathering-area
// query tool, for use with net/http/httptest.
package portaltest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/okian/toplanma/internal/domain/model"
	"github.com/paulmach/orb"
)

// DefaultPath is the page path the fake serves.
const DefaultPath = "/afet-ve-acil-durum-yonetimi-acil-toplanma-alani-sorgulama"

const landingPage = `<!DOCTYPE html><html><body data-token="%s"><form></form></body></html>`

// Portal is a programmable fake. Populate the maps before serving; counters
// can be read at any time.
type Portal struct {
	Path string

	// Districts is keyed by province code.
	Districts map[int][]model.Unit
	// Neighborhoods is keyed by Key(province, district).
	Neighborhoods map[string][]model.Unit
	// Streets is keyed by Key(province, district, neighborhood).
	Streets map[string][]model.Unit
	// Maps holds the raw toplanmaAlanlari value per Key(province, district,
	// neighborhood). Missing keys render a page without the assignment.
	Maps map[string]string
	// Points holds point-query features per coordinate.
	Points map[orb.Point][]map[string]any

	mu         sync.Mutex
	issued     int
	token      string
	omitToken  bool
	alwaysHTML bool
	failures   map[string]int
	calls      map[string]int
}

// New returns an empty fake serving DefaultPath.
func New() *Portal {
	return &Portal{
		Path:          DefaultPath,
		Districts:     map[int][]model.Unit{},
		Neighborhoods: map[string][]model.Unit{},
		Streets:       map[string][]model.Unit{},
		Maps:          map[string]string{},
		Points:        map[orb.Point][]map[string]any{},
		failures:      map[string]int{},
		calls:         map[string]int{},
	}
}

// Key joins hierarchy identifiers the way the fake's maps are keyed.
func Key(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, "/")
}

// Polygon renders a toplanmaAlanlari value holding one polygon with ring.
func Polygon(ring orb.Ring) string {
	coords := make([][2]float64, len(ring))
	for i, p := range ring {
		coords[i] = [2]float64(p)
	}
	b, _ := json.Marshal([]map[string]any{{
		"geometry":   map[string]any{"type": "Polygon", "coordinates": [][][2]float64{coords}},
		"properties": map[string]any{},
	}})
	return string(b)
}

// ExpireToken makes the current token stale, as the portal does on its own.
func (p *Portal) ExpireToken() {
	p.mu.Lock()
	p.token = ""
	p.mu.Unlock()
}

// AlwaysExpired makes every data call and map query answer with the landing
// page regardless of token.
func (p *Portal) AlwaysExpired(v bool) {
	p.mu.Lock()
	p.alwaysHTML = v
	p.mu.Unlock()
}

// OmitToken serves the landing page without a data-token attribute.
func (p *Portal) OmitToken(v bool) {
	p.mu.Lock()
	p.omitToken = v
	p.mu.Unlock()
}

// FailNext answers the next n requests of kind with 503. Kinds are "token",
// "map", or a data selector such as "ilceKodu".
func (p *Portal) FailNext(kind string, n int) {
	p.mu.Lock()
	p.failures[kind] = n
	p.mu.Unlock()
}

// TokensIssued reports how many landing pages carried a fresh token.
func (p *Portal) TokensIssued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.issued
}

// Calls reports how many requests of kind were received, failed ones included.
func (p *Portal) Calls(kind string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[kind]
}

// ServeHTTP implements http.Handler.
func (p *Portal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != p.Path {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		p.serveLanding(w)
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		switch {
		case r.PostForm.Get("islem") != "":
			p.serveData(w, r)
		case r.PostForm.Get("btn") != "":
			p.serveMap(w, r)
		default:
			http.Error(w, "unknown form", http.StatusBadRequest)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// hit counts a request and reports whether it should fail.
func (p *Portal) hit(kind string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[kind]++
	if p.failures[kind] > 0 {
		p.failures[kind]--
		return true
	}
	return false
}

func (p *Portal) serveLanding(w http.ResponseWriter) {
	if p.hit("token") {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	p.mu.Lock()
	omit := p.omitToken
	if !omit {
		p.issued++
		p.token = "tok-" + strconv.Itoa(p.issued)
	}
	token := p.token
	p.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if omit {
		_, _ = fmt.Fprint(w, `<!DOCTYPE html><html><body><form></form></body></html>`)
		return
	}
	_, _ = fmt.Fprintf(w, landingPage, token)
}

func (p *Portal) serveData(w http.ResponseWriter, r *http.Request) {
	form := r.PostForm
	selector := form.Get("islem")
	if p.hit(selector) {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	p.mu.Lock()
	valid := !p.alwaysHTML && p.token != "" && form.Get("token") == p.token
	p.mu.Unlock()
	if !valid {
		// An expired session is answered with the landing page, not an error code.
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, landingPage, "expired")
		return
	}

	var payload any
	switch selector {
	case "ilceKodu":
		code, _ := strconv.Atoi(form.Get("ilKodu"))
		payload = dataArr(p.Districts[code])
	case "mahalleKodu":
		payload = dataArr(p.Neighborhoods[Key(form.Get("ilKodu"), form.Get("ilceKodu"))])
	case "sokakKodu":
		payload = dataArr(p.Streets[Key(form.Get("ilKodu"), form.Get("ilceKodu"), form.Get("mahalleKodu"))])
	case "getAlanlarForNokta":
		lat, _ := strconv.ParseFloat(form.Get("lat"), 64)
		lng, _ := strconv.ParseFloat(form.Get("lng"), 64)
		features := []map[string]any{}
		for _, props := range p.Points[orb.Point{lng, lat}] {
			features = append(features, map[string]any{"type": "Feature", "properties": props})
		}
		payload = map[string]any{"type": "FeatureCollection", "features": features}
	default:
		http.Error(w, "unknown selector", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(payload)
}

func (p *Portal) serveMap(w http.ResponseWriter, r *http.Request) {
	if p.hit("map") {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	form := r.PostForm
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	p.mu.Lock()
	valid := !p.alwaysHTML && p.token != "" && form.Get("token") == p.token
	p.mu.Unlock()
	if !valid {
		_, _ = fmt.Fprintf(w, landingPage, "expired")
		return
	}

	_, _ = fmt.Fprint(w, "<html><body><script>\n")
	if raw, ok := p.Maps[Key(form.Get("ilKodu"), form.Get("ilceKodu"), form.Get("mahalleKodu"))]; ok {
		_, _ = fmt.Fprintf(w, "var toplanmaAlanlari = %s;\n", raw)
	}
	_, _ = fmt.Fprint(w, "</script></body></html>")
}

func dataArr(units []model.Unit) map[string]any {
	if units == nil {
		units = []model.Unit{}
	}
	return map[string]any{"data": map[string]any{"dataArr": units}}
}
