package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	e "github.com/gartstein/companyrisk/internal/company/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testAPIKey = "test-key"

func newTestClient(t *testing.T, srv *httptest.Server, pageSize int) *Client {
	t.Helper()
	c := NewClient(Config{
		BaseURL:     srv.URL,
		DocumentURL: srv.URL,
		APIKey:      testAPIKey,
		PageSize:    pageSize,
		MaxRetries:  2,
	}, zaptest.NewLogger(t))
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != testAPIKey || pass != "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func TestClient_CompanyProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/company/11004735", requireAuth(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		fmt.Fprint(w, `{
			"company_name": "ACME LTD",
			"company_status": "active",
			"has_charges": "not-a-bool",
			"sic_codes": ["62020"],
			"registered_office_address": {"address_line_1": "1 High Street", "postal_code": "AB1 2CD"}
		}`)
	}))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	profile, err := newTestClient(t, srv, 0).CompanyProfile(context.Background(), "11004735")
	require.NoError(t, err)

	assert.Equal(t, "ACME LTD", profile.CompanyName.Or(""))
	assert.Equal(t, []string{"62020"}, profile.SICCodes.Or(nil))
	assert.Nil(t, profile.HasCharges.Ptr(), "mistyped field decodes as absent")
	addr, ok := profile.RegisteredOfficeAddress.Get()
	require.True(t, ok)
	assert.Equal(t, "AB1 2CD", addr.PostalCode.Or(""))
}

func TestClient_Officers_Paginates(t *testing.T) {
	names := []string{"SMITH, John", "JONES, Ann", "DOE, Jane"}
	var starts []string
	mux := http.NewServeMux()
	mux.HandleFunc("/company/11004735/officers", requireAuth(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		starts = append(starts, q.Get("start_index"))
		assert.Equal(t, "2", q.Get("items_per_page"))

		start, _ := strconv.Atoi(q.Get("start_index"))
		end := min(start+2, len(names))
		items := ""
		for i, n := range names[start:end] {
			if i > 0 {
				items += ","
			}
			items += fmt.Sprintf(`{"name": %q, "officer_role": "director"}`, n)
		}
		fmt.Fprintf(w, `{"total_results": 3, "active_count": 2, "resigned_count": 1, "items": [%s]}`, items)
	}))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	list, err := newTestClient(t, srv, 2).Officers(context.Background(), "11004735")
	require.NoError(t, err)

	require.Len(t, list.Items, 3)
	assert.Equal(t, "DOE, Jane", list.Items[2].Name.Or(""))
	assert.Equal(t, 3, list.TotalResults.Or(0))
	assert.Equal(t, 1, list.ResignedCount.Or(0))
	assert.Equal(t, []string{"0", "2"}, starts)
}

func TestClient_PSCs_StopsOnEmptyPage(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/company/11004735/persons-with-significant-control", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		// total claims more than the API ever returns
		fmt.Fprint(w, `{"total_results": 10, "items": []}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	list, err := newTestClient(t, srv, 2).PSCs(context.Background(), "11004735")
	require.NoError(t, err)
	assert.Empty(t, list.Items)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_FilingHistory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/company/11004735/filing-history", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"total_count": 1, "items": [{"transaction_id": "MzA1", "type": "CS01",
			"links": {"document_metadata": "https://doc.example/document/abc123"}}]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	history, err := newTestClient(t, srv, 0).FilingHistory(context.Background(), "11004735")
	require.NoError(t, err)
	require.Len(t, history.Items, 1)
	links, ok := history.Items[0].Links.Get()
	require.True(t, ok)
	assert.Equal(t, "https://doc.example/document/abc123", links.DocumentMetadata.Or(""))
}

func TestClient_Documents(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/document/abc123", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"pages": 3, "resources": {"application/pdf": {"content_length": 1024}}}`)
	})
	mux.HandleFunc("/document/abc123/content", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/pdf", r.Header.Get("Accept"))
		fmt.Fprint(w, "%PDF-1.4")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := newTestClient(t, srv, 0)

	meta, err := c.DocumentMetadata(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, 3, meta.Pages.Or(0))
	resources, _ := meta.Resources.Get()
	assert.Equal(t, int64(1024), resources["application/pdf"].ContentLength.Or(0))

	content, err := c.DocumentContent(context.Background(), "abc123", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(content))
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   error
		wantCalls int32
	}{
		{"not found", http.StatusNotFound, "", e.ErrNotFound, 1},
		{"rate limited exhausts retries", http.StatusTooManyRequests, "", e.ErrRegistryUnavailable, 3},
		{"server error exhausts retries", http.StatusBadGateway, "", e.ErrRegistryUnavailable, 3},
		{"unauthorized is permanent", http.StatusUnauthorized, "", e.ErrRegistryUnavailable, 1},
		{"malformed body", http.StatusOK, "{", e.ErrRegistryUnavailable, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv, 0).CompanyProfile(context.Background(), "11004735")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestClient_RetryThenSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"company_name": "ACME LTD"}`)
	}))
	defer srv.Close()

	profile, err := newTestClient(t, srv, 0).CompanyProfile(context.Background(), "11004735")
	require.NoError(t, err)
	assert.Equal(t, "ACME LTD", profile.CompanyName.Or(""))
}
