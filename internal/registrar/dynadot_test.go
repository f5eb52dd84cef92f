package registrar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainacq/internal/metrics"
)

type fakeAPI struct {
	mu      sync.Mutex
	queries []url.Values
	body    string
	status  int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.queries = append(f.queries, r.URL.Query())
	f.mu.Unlock()
	if f.status != 0 {
		w.WriteHeader(f.status)
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(f.body))
}

func (f *fakeAPI) last() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func newTestClient(t *testing.T, api *fakeAPI, opts ...Option) *Dynadot {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewDynadot("test-key", srv.URL, opts...)
}

func TestDynadot_SearchDomain(t *testing.T) {
	t.Run("nested search header", func(t *testing.T) {
		api := &fakeAPI{body: `<Results><SearchResponse><SearchHeader>
			<SuccessCode>0</SuccessCode><DomainName>schule-abc.de</DomainName>
			<Available>yes</Available><Price>8.99 in EUR</Price>
		</SearchHeader></SearchResponse></Results>`}
		c := newTestClient(t, api)

		res, err := c.SearchDomain(context.Background(), "schule-abc.de")
		require.NoError(t, err)
		assert.True(t, res.Available)
		assert.Equal(t, "schule-abc.de", res.Domain)
		require.NotNil(t, res.Price)
		assert.InDelta(t, 8.99, *res.Price, 0.0001)
		assert.Equal(t, "EUR", res.Currency)

		q := api.last()
		assert.Equal(t, "search", q.Get("command"))
		assert.Equal(t, "schule-abc.de", q.Get("domain0"))
		assert.Equal(t, "test-key", q.Get("key"))
	})

	t.Run("search results layout", func(t *testing.T) {
		api := &fakeAPI{body: `<SearchResponse><SearchResults><SearchResult>
			<DomainName>abcd.de</DomainName><Available>no</Available>
		</SearchResult></SearchResults></SearchResponse>`}
		c := newTestClient(t, api)

		res, err := c.SearchDomain(context.Background(), "abcd.de")
		require.NoError(t, err)
		assert.False(t, res.Available)
		assert.Nil(t, res.Price)
		assert.Equal(t, "USD", res.Currency)
	})

	t.Run("root search header", func(t *testing.T) {
		api := &fakeAPI{body: `<SearchResponse><SearchHeader>
			<DomainName>abcd-schule.de</DomainName><Available>yes</Available><Price>12.5</Price>
		</SearchHeader></SearchResponse>`}
		c := newTestClient(t, api)

		res, err := c.SearchDomain(context.Background(), "abcd-schule.de")
		require.NoError(t, err)
		assert.True(t, res.Available)
		require.NotNil(t, res.Price)
		assert.InDelta(t, 12.5, *res.Price, 0.0001)
	})

	t.Run("api error is returned as registrar error", func(t *testing.T) {
		api := &fakeAPI{body: `<Response><ResponseHeader>
			<ResponseCode>-1</ResponseCode><Error>invalid key</Error>
		</ResponseHeader></Response>`}
		c := newTestClient(t, api)

		_, err := c.SearchDomain(context.Background(), "abcd.de")
		var regErr *Error
		require.ErrorAs(t, err, &regErr)
		assert.True(t, regErr.API)
		assert.Equal(t, "invalid key", regErr.Error())
	})

	t.Run("unrecognized body is an error", func(t *testing.T) {
		api := &fakeAPI{body: `<Results><Unexpected>garbage</Unexpected></Results>`}
		c := newTestClient(t, api)

		res, err := c.SearchDomain(context.Background(), "abcd.de")
		var regErr *Error
		require.ErrorAs(t, err, &regErr)
		assert.False(t, regErr.API)
		assert.Equal(t, "search", regErr.Command)
		assert.ErrorIs(t, err, errInvalidResponse)
		assert.False(t, res.Available)
	})
}

func TestDynadot_RegisterDomain(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		api := &fakeAPI{body: `<RegisterResponse><RegisterHeader>
			<SuccessCode>0</SuccessCode><Status>success</Status>
		</RegisterHeader></RegisterResponse>`}
		c := newTestClient(t, api)

		res, err := c.RegisterDomain(context.Background(), "abcd-schule.de", 0)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Contains(t, res.Message, "abcd-schule.de")

		q := api.last()
		assert.Equal(t, "register", q.Get("command"))
		assert.Equal(t, "1", q.Get("duration"))
	})

	t.Run("registrar refusal is an unsuccessful result", func(t *testing.T) {
		api := &fakeAPI{body: `<RegisterResponse><RegisterHeader>
			<SuccessCode>-1</SuccessCode><Status>error</Status><Error>not enough account balance</Error>
		</RegisterHeader></RegisterResponse>`}
		c := newTestClient(t, api)

		res, err := c.RegisterDomain(context.Background(), "abcd-schule.de", 1)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "not enough account balance", res.Message)
	})

	t.Run("http failure is an error", func(t *testing.T) {
		api := &fakeAPI{status: http.StatusBadGateway, body: "bad gateway"}
		c := newTestClient(t, api)

		_, err := c.RegisterDomain(context.Background(), "abcd-schule.de", 1)
		var regErr *Error
		require.ErrorAs(t, err, &regErr)
		assert.False(t, regErr.API)
	})
}

func TestDynadot_SetEmailForward(t *testing.T) {
	api := &fakeAPI{body: `<SetEmailForwardingResponse><SetEmailForwardingHeader>
		<SuccessCode>0</SuccessCode><Status>success</Status>
	</SetEmailForwardingHeader></SetEmailForwardingResponse>`}
	c := newTestClient(t, api)

	res, err := c.SetEmailForward(context.Background(), "abcd-schule.de", []EmailForward{
		{Username: "sekretariat", ForwardTo: "office@example.org"},
		{Username: "info", ForwardTo: "info@example.org"},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)

	q := api.last()
	assert.Equal(t, "set_email_forward", q.Get("command"))
	assert.Equal(t, "forward", q.Get("forward_type"))
	assert.Equal(t, "sekretariat", q.Get("username0"))
	assert.Equal(t, "office@example.org", q.Get("exist_email0"))
	assert.Equal(t, "info", q.Get("username1"))
	assert.Equal(t, "info@example.org", q.Get("exist_email1"))
}

func TestDynadot_SetURLForwarding(t *testing.T) {
	api := &fakeAPI{body: `<SetForwardingResponse><SetForwardingHeader>
		<SuccessCode>0</SuccessCode><Status>success</Status>
	</SetForwardingHeader></SetForwardingResponse>`}
	c := newTestClient(t, api)

	res, err := c.SetURLForwarding(context.Background(), "abcd-schule.de", "abcd.de", true)
	require.NoError(t, err)
	assert.True(t, res.Success)

	q := api.last()
	assert.Equal(t, "set_forwarding", q.Get("command"))
	assert.Equal(t, "https://abcd.de", q.Get("forward_url"))
	assert.Equal(t, "no", q.Get("is_temp"))
}

func TestDynadot_ListDomains(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []DomainInfo
	}{
		{
			name: "content list with nested domain",
			body: `<ListDomainInfoResponse>
				<ListDomainInfoHeader><SuccessCode>0</SuccessCode><Status>success</Status></ListDomainInfoHeader>
				<ListDomainInfoContent><DomainInfoList>
					<DomainInfo><Domain><Name>abcd-schule.de</Name><Expiration>1700000000000</Expiration></Domain></DomainInfo>
					<DomainInfo><Domain><Name>efgh.de</Name><Status>locked</Status></Domain></DomainInfo>
				</DomainInfoList></ListDomainInfoContent>
			</ListDomainInfoResponse>`,
			want: []DomainInfo{
				{Domain: "abcd-schule.de", Expiration: "2023-11-14", Status: "active"},
				{Domain: "efgh.de", Status: "locked"},
			},
		},
		{
			name: "flat domain info",
			body: `<ListDomainInfoResponse>
				<DomainInfo><DomainName>ijkl.de</DomainName><ExpirationDate>2026-03-01</ExpirationDate><RegistrationStatus>pending</RegistrationStatus></DomainInfo>
			</ListDomainInfoResponse>`,
			want: []DomainInfo{
				{Domain: "ijkl.de", Expiration: "2026-03-01", Status: "pending"},
			},
		},
		{
			name: "no domains",
			body: `<ListDomainInfoResponse><ListDomainInfoHeader><SuccessCode>0</SuccessCode></ListDomainInfoHeader></ListDomainInfoResponse>`,
			want: []DomainInfo{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeAPI{body: tt.body})
			got, err := c.ListDomains(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDynadot_MissingAPIKey(t *testing.T) {
	api := &fakeAPI{body: `<Results/>`}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c := NewDynadot("", srv.URL)

	_, err := c.SearchDomain(context.Background(), "abcd.de")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errNoAPIKey))
	assert.Empty(t, api.queries)
}

func TestDynadot_RecordsDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	api := &fakeAPI{body: `<RegisterResponse><RegisterHeader><SuccessCode>0</SuccessCode></RegisterHeader></RegisterResponse>`}
	c := newTestClient(t, api, WithMetrics(m), WithRateLimit(0))

	_, err := c.RegisterDomain(context.Background(), "abcd-schule.de", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, testutil.CollectAndCount(m.RegistrarDuration))
}

func TestFormatExpiration(t *testing.T) {
	assert.Equal(t, "", formatExpiration(""))
	assert.Equal(t, "2023-11-14", formatExpiration("1700000000000"))
	assert.Equal(t, "2025-01-31", formatExpiration("2025-01-31T10:00:00Z"))
	assert.Equal(t, "next year", formatExpiration("next year"))
}
