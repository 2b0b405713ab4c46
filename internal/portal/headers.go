package portal

import (
	"net/http"
)

const (
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Safari/537.36"
	acceptLanguage = "en-US,en;q=0.9,tr-TR;q=0.8,tr;q=0.7"
	secChUa        = `"Not_A Brand";v="99", "Google Chrome";v="109", "Chromium";v="109"`
	formType       = "application/x-www-form-urlencoded; charset=UTF-8"
)

type headerKind int

const (
	headersToken headerKind = iota
	headersData
	headersPoint
	headersMap
)

// headerSets mimics the browser requests the query tool makes, one set per
// request kind. Host and Connection are left to net/http.
func headerSets(origin, pageURL string) map[headerKind]http.Header {
	common := func() http.Header {
		h := http.Header{}
		h.Set("User-Agent", userAgent)
		h.Set("Accept-Language", acceptLanguage)
		h.Set("Sec-Ch-Ua", secChUa)
		h.Set("Sec-Ch-Ua-Mobile", "?0")
		h.Set("Sec-Ch-Ua-Platform", `"macOS"`)
		h.Set("Dnt", "1")
		return h
	}

	token := common()
	token.Set("Cache-Control", "max-age=0")
	token.Set("Upgrade-Insecure-Requests", "1")
	token.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	token.Set("Sec-Fetch-Site", "none")
	token.Set("Sec-Fetch-Mode", "navigate")
	token.Set("Sec-Fetch-User", "?1")
	token.Set("Sec-Fetch-Dest", "document")

	data := common()
	data.Set("Pragma", "no-cache")
	data.Set("Cache-Control", "no-cache")
	data.Set("Content-Type", formType)
	data.Set("Accept", "*/*")
	data.Set("Origin", origin)
	data.Set("Referer", pageURL)
	data.Set("Sec-Fetch-Site", "same-origin")
	data.Set("Sec-Fetch-Mode", "cors")
	data.Set("Sec-Fetch-Dest", "empty")

	point := common()
	point.Set("Content-Type", formType)
	point.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	point.Set("X-Requested-With", "XMLHttpRequest")
	point.Set("Origin", origin)
	point.Set("Referer", pageURL+"?harita=goster")
	point.Set("Sec-Fetch-Site", "same-origin")
	point.Set("Sec-Fetch-Mode", "cors")
	point.Set("Sec-Fetch-Dest", "empty")

	page := common()
	page.Set("Cache-Control", "max-age=0")
	page.Set("Content-Type", "application/x-www-form-urlencoded")
	page.Set("Upgrade-Insecure-Requests", "1")
	page.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	page.Set("Origin", origin)
	page.Set("Referer", pageURL)
	page.Set("Sec-Fetch-Site", "same-origin")
	page.Set("Sec-Fetch-Mode", "navigate")
	page.Set("Sec-Fetch-User", "?1")
	page.Set("Sec-Fetch-Dest", "document")

	return map[headerKind]http.Header{
		headersToken: token,
		headersData:  data,
		headersPoint: point,
		headersMap:   page,
	}
}
