package registrar

import (
	"encoding/xml"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// envelope is the union of every api3.xml response shape we consume. The root
// element name varies by command (Results, Response, SearchResponse,
// RegisterResponse, ListDomainInfoResponse, ...), so it is captured in XMLName
// and the known children are decoded into typed fields.
type envelope struct {
	XMLName xml.Name
	Error   string `xml:"Error"`

	ResponseHeader           *header `xml:"ResponseHeader"`
	RegisterHeader           *header `xml:"RegisterHeader"`
	SetForwardingHeader      *header `xml:"SetForwardingHeader"`
	SetEmailForwardingHeader *header `xml:"SetEmailForwardingHeader"`
	ListDomainInfoHeader     *header `xml:"ListDomainInfoHeader"`

	// <Results><SearchResponse>...
	SearchResponse *searchResponse `xml:"SearchResponse"`
	// <SearchResponse> as the root element
	SearchHeader  *searchHeader  `xml:"SearchHeader"`
	SearchResults *searchResults `xml:"SearchResults"`

	ListDomainInfoContent *domainInfoContainer `xml:"ListDomainInfoContent"`
	DomainInfoList        *domainInfoList      `xml:"DomainInfoList"`
	DomainInfo            []domainInfo         `xml:"DomainInfo"`
}

type header struct {
	SuccessCode  string `xml:"SuccessCode"`
	ResponseCode string `xml:"ResponseCode"`
	Status       string `xml:"Status"`
	Error        string `xml:"Error"`
}

type searchResponse struct {
	Error         string         `xml:"Error"`
	SearchHeader  *searchHeader  `xml:"SearchHeader"`
	SearchResults *searchResults `xml:"SearchResults"`
}

type searchResults struct {
	SearchResult *searchHeader `xml:"SearchResult"`
}

type searchHeader struct {
	SuccessCode string `xml:"SuccessCode"`
	DomainName  string `xml:"DomainName"`
	Available   string `xml:"Available"`
	Price       string `xml:"Price"`
	Currency    string `xml:"Currency"`
	Error       string `xml:"Error"`
}

type domainInfoContainer struct {
	DomainInfoList *domainInfoList `xml:"DomainInfoList"`
	DomainInfo     []domainInfo    `xml:"DomainInfo"`
}

type domainInfoList struct {
	DomainInfo []domainInfo `xml:"DomainInfo"`
}

type domainInfo struct {
	Name               string       `xml:"Name"`
	DomainName         string       `xml:"DomainName"`
	Expiration         string       `xml:"Expiration"`
	ExpirationDate     string       `xml:"ExpirationDate"`
	Status             string       `xml:"Status"`
	RegistrationStatus string       `xml:"RegistrationStatus"`
	Domain             *domainEntry `xml:"Domain"`
}

type domainEntry struct {
	Name       string `xml:"Name"`
	Expiration string `xml:"Expiration"`
	Status     string `xml:"Status"`
}

func (h *header) failure() (string, bool) {
	if h == nil {
		return "", false
	}
	if h.Error != "" {
		return h.Error, true
	}
	if h.SuccessCode == "-1" || h.ResponseCode == "-1" || strings.EqualFold(h.Status, "error") {
		return "", true
	}
	return "", false
}

// apiError reports the registrar-side error carried by the envelope, if any.
func (e *envelope) apiError() (string, bool) {
	if e.Error != "" {
		return e.Error, true
	}
	if e.SearchResponse != nil && e.SearchResponse.Error != "" {
		return e.SearchResponse.Error, true
	}
	for _, h := range []*header{
		e.ResponseHeader, e.RegisterHeader, e.SetForwardingHeader,
		e.SetEmailForwardingHeader, e.ListDomainInfoHeader,
	} {
		if msg, failed := h.failure(); failed {
			if msg == "" {
				msg = "Dynadot API error"
			}
			return msg, true
		}
	}
	return "", false
}

// searchHeader picks the search result out of the three layouts the API uses.
func (e *envelope) searchHeader(log *slog.Logger) *searchHeader {
	switch {
	case e.SearchResponse != nil && e.SearchResponse.SearchHeader != nil:
		return e.SearchResponse.SearchHeader
	case e.SearchResponse != nil && e.SearchResponse.SearchResults != nil && e.SearchResponse.SearchResults.SearchResult != nil:
		log.Debug("search result decoded from Results/SearchResponse/SearchResults")
		return e.SearchResponse.SearchResults.SearchResult
	case e.SearchResults != nil && e.SearchResults.SearchResult != nil:
		log.Debug("search result decoded from SearchResponse/SearchResults")
		return e.SearchResults.SearchResult
	case e.SearchHeader != nil:
		log.Debug("search result decoded from SearchResponse/SearchHeader")
		return e.SearchHeader
	}
	return nil
}

func (e *envelope) domainInfos(log *slog.Logger) []domainInfo {
	switch {
	case e.ListDomainInfoContent != nil && e.ListDomainInfoContent.DomainInfoList != nil:
		return e.ListDomainInfoContent.DomainInfoList.DomainInfo
	case e.DomainInfoList != nil:
		log.Debug("domain list decoded from ListDomainInfoResponse/DomainInfoList")
		return e.DomainInfoList.DomainInfo
	case e.ListDomainInfoContent != nil && len(e.ListDomainInfoContent.DomainInfo) > 0:
		log.Debug("domain list decoded from ListDomainInfoContent/DomainInfo")
		return e.ListDomainInfoContent.DomainInfo
	case len(e.DomainInfo) > 0:
		log.Debug("domain list decoded from ListDomainInfoResponse/DomainInfo")
		return e.DomainInfo
	}
	log.Info("list_domain response carried no domains", "root", e.XMLName.Local)
	return nil
}

func toSearchResult(h *searchHeader, requested string) SearchResult {
	res := SearchResult{
		Domain:    requested,
		Available: strings.EqualFold(strings.TrimSpace(h.Available), "yes"),
		Currency:  "USD",
	}
	if h.DomainName != "" {
		res.Domain = h.DomainName
	}
	if price, currency, ok := parsePrice(h.Price); ok {
		res.Price = &price
		if currency != "" {
			res.Currency = currency
		}
	}
	if h.Currency != "" {
		res.Currency = h.Currency
	}
	return res
}

// parsePrice accepts "8.99" and "8.99 in USD".
func parsePrice(raw string) (float64, string, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, "", false
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", ""), 64)
	if err != nil {
		return 0, "", false
	}
	currency := ""
	if len(fields) >= 3 && strings.EqualFold(fields[1], "in") {
		currency = fields[2]
	}
	return price, currency, true
}

func toDomainInfo(d domainInfo) DomainInfo {
	var nested domainEntry
	if d.Domain != nil {
		nested = *d.Domain
	}
	info := DomainInfo{
		Domain:     firstNonEmpty(d.Name, nested.Name, d.DomainName),
		Expiration: formatExpiration(firstNonEmpty(d.Expiration, nested.Expiration, d.ExpirationDate)),
		Status:     firstNonEmpty(d.Status, nested.Status, d.RegistrationStatus, "active"),
	}
	return info
}

// formatExpiration renders unix-millisecond or date timestamps as YYYY-MM-DD.
func formatExpiration(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC().Format(time.DateOnly)
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly, "2006/01/02", time.DateTime} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.DateOnly)
		}
	}
	return raw
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
