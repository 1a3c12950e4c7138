// Package registry fetches company records from the Companies House
// public API and assembles them into the models record graph.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	e "github.com/gartstein/companyrisk/internal/company/errors"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL     = "https://api.company-information.service.gov.uk"
	DefaultDocumentURL = "https://frontend-doc-api.company-information.service.gov.uk"

	defaultPageSize   = 100
	defaultMaxRetries = 4
	maxPages          = 50
)

// Config configures the API client.
type Config struct {
	BaseURL     string
	DocumentURL string
	APIKey      string
	PageSize    int
	MaxRetries  uint64
	HTTPClient  *http.Client
}

// Client is a Companies House REST client authenticating with an API key
// over HTTP basic auth.
type Client struct {
	baseURL     string
	documentURL string
	apiKey      string
	pageSize    int
	maxRetries  uint64
	http        *http.Client
	logger      *zap.Logger

	newBackOff func() backoff.BackOff
}

// NewClient constructs a Client. Zero config values select defaults.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	c := &Client{
		baseURL:     cfg.BaseURL,
		documentURL: cfg.DocumentURL,
		apiKey:      cfg.APIKey,
		pageSize:    cfg.PageSize,
		maxRetries:  cfg.MaxRetries,
		http:        cfg.HTTPClient,
		logger:      logger.Named("registry_client"),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.documentURL == "" {
		c.documentURL = DefaultDocumentURL
	}
	if c.pageSize <= 0 {
		c.pageSize = defaultPageSize
	}
	if c.maxRetries == 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.newBackOff == nil {
		c.newBackOff = func() backoff.BackOff { return backoff.NewExponentialBackOff() }
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	return c
}

// CompanyProfile fetches /company/{number}.
func (c *Client) CompanyProfile(ctx context.Context, number string) (*CompanyProfile, error) {
	var out CompanyProfile
	if err := c.getJSON(ctx, c.companyURL(number, ""), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Officers fetches every page of /company/{number}/officers.
func (c *Client) Officers(ctx context.Context, number string) (*OfficerList, error) {
	var (
		all  OfficerList
		seen bool
	)
	err := c.paginate(ctx, c.companyURL(number, "/officers"), func(body []byte) (int, int, error) {
		var page OfficerList
		if err := json.Unmarshal(body, &page); err != nil {
			return 0, 0, err
		}
		if !seen {
			all, seen = page, true
		} else {
			all.Items = append(all.Items, page.Items...)
		}
		return len(page.Items), page.TotalResults.Or(0), nil
	})
	if err != nil {
		return nil, err
	}
	return &all, nil
}

// PSCs fetches every page of /company/{number}/persons-with-significant-control.
func (c *Client) PSCs(ctx context.Context, number string) (*PSCList, error) {
	var (
		all  PSCList
		seen bool
	)
	err := c.paginate(ctx, c.companyURL(number, "/persons-with-significant-control"), func(body []byte) (int, int, error) {
		var page PSCList
		if err := json.Unmarshal(body, &page); err != nil {
			return 0, 0, err
		}
		if !seen {
			all, seen = page, true
		} else {
			all.Items = append(all.Items, page.Items...)
		}
		return len(page.Items), page.TotalResults.Or(0), nil
	})
	if err != nil {
		return nil, err
	}
	return &all, nil
}

// FilingHistory fetches every page of /company/{number}/filing-history.
func (c *Client) FilingHistory(ctx context.Context, number string) (*FilingHistory, error) {
	var (
		all  FilingHistory
		seen bool
	)
	err := c.paginate(ctx, c.companyURL(number, "/filing-history"), func(body []byte) (int, int, error) {
		var page FilingHistory
		if err := json.Unmarshal(body, &page); err != nil {
			return 0, 0, err
		}
		if !seen {
			all, seen = page, true
		} else {
			all.Items = append(all.Items, page.Items...)
		}
		return len(page.Items), page.TotalCount.Or(0), nil
	})
	if err != nil {
		return nil, err
	}
	return &all, nil
}

// DocumentMetadata fetches /document/{id}.
func (c *Client) DocumentMetadata(ctx context.Context, documentID string) (*DocumentMetadata, error) {
	var out DocumentMetadata
	if err := c.getJSON(ctx, c.documentURL+"/document/"+url.PathEscape(documentID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DocumentContent downloads /document/{id}/content in the requested format.
func (c *Client) DocumentContent(ctx context.Context, documentID, contentType string) ([]byte, error) {
	u := c.documentURL + "/document/" + url.PathEscape(documentID) + "/content"
	return c.get(ctx, u, contentType)
}

func (c *Client) companyURL(number, suffix string) string {
	return c.baseURL + "/company/" + url.PathEscape(number) + suffix
}

// paginate walks a list endpoint with items_per_page/start_index until the
// reported total is reached. handle returns the item count of the page and
// the total reported by the API.
func (c *Client) paginate(ctx context.Context, base string, handle func(body []byte) (n, total int, err error)) error {
	start := 0
	for page := 0; page < maxPages; page++ {
		u, err := url.Parse(base)
		if err != nil {
			return err
		}
		q := u.Query()
		q.Set("items_per_page", strconv.Itoa(c.pageSize))
		q.Set("start_index", strconv.Itoa(start))
		u.RawQuery = q.Encode()

		body, err := c.get(ctx, u.String(), "application/json")
		if err != nil {
			return err
		}
		n, total, err := handle(body)
		if err != nil {
			return fmt.Errorf("%w: decode %s: %v", e.ErrRegistryUnavailable, base, err)
		}
		start += n
		if n == 0 || start >= total {
			return nil
		}
	}
	c.logger.Warn("Page limit reached, list truncated", zap.String("url", base))
	return nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	body, err := c.get(ctx, u, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", e.ErrRegistryUnavailable, u, err)
	}
	return nil
}

// get performs an authenticated GET, retrying rate limiting and server
// errors with capped exponential backoff. 404 maps to ErrNotFound; every
// other failure wraps ErrRegistryUnavailable.
func (c *Client) get(ctx context.Context, u, accept string) ([]byte, error) {
	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.SetBasicAuth(c.apiKey, "")
		req.Header.Set("Accept", accept)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("%w: %s", e.ErrNotFound, u))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("registry returned %s", resp.Status)
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return backoff.Permanent(fmt.Errorf("registry returned %s", resp.Status))
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("Registry request failed, retrying",
			zap.Error(err),
			zap.String("url", u),
			zap.Duration("wait", wait),
		)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		if isNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", e.ErrRegistryUnavailable, err)
	}
	return body, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, e.ErrNotFound)
}
