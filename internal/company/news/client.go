// Package news implements the news search collaborator used by the
// news-mentions check: a Google News RSS client and a Redis cache in
// front of it.
package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	e "github.com/gartstein/companyrisk/internal/company/errors"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL    = "https://news.google.com/rss/search"
	defaultMaxRetries = 3
)

// Config configures the RSS client.
type Config struct {
	BaseURL    string
	Language   string
	Region     string
	MaxRetries uint64
	HTTPClient *http.Client
}

// Client queries the Google News RSS search feed.
type Client struct {
	baseURL    string
	language   string
	region     string
	maxRetries uint64
	http       *http.Client
	logger     *zap.Logger

	newBackOff func() backoff.BackOff
}

// NewClient constructs a Client. Zero config values select defaults.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	c := &Client{
		baseURL:    cfg.BaseURL,
		language:   cfg.Language,
		region:     cfg.Region,
		maxRetries: cfg.MaxRetries,
		http:       cfg.HTTPClient,
		logger:     logger.Named("news_client"),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.language == "" {
		c.language = "en-GB"
	}
	if c.region == "" {
		c.region = "GB"
	}
	if c.maxRetries == 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.newBackOff == nil {
		c.newBackOff = func() backoff.BackOff { return backoff.NewExponentialBackOff() }
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 20 * time.Second}
	}
	return c
}

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title string `xml:"title"`
		} `xml:"item"`
	} `xml:"channel"`
}

// Search returns the headlines matching query published within the last
// windowYears years, in feed order. Transport failures and non-success
// responses wrap ErrSearchUnavailable.
func (c *Client) Search(ctx context.Context, query string, windowYears int) ([]string, error) {
	u, err := c.searchURL(query, windowYears)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrSearchUnavailable, err)
	}

	var feed rssFeed
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("news search returned %s", resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("news search returned %s", resp.Status))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		feed = rssFeed{}
		if err := xml.Unmarshal(body, &feed); err != nil {
			return backoff.Permanent(fmt.Errorf("decode feed: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("News search failed, retrying",
			zap.Error(err),
			zap.Duration("wait", wait),
		)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrSearchUnavailable, err)
	}

	headlines := make([]string, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		if t := strings.TrimSpace(item.Title); t != "" {
			headlines = append(headlines, t)
		}
	}
	return headlines, nil
}

func (c *Client) searchURL(query string, windowYears int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if windowYears > 0 {
		query = fmt.Sprintf("%s when:%dy", query, windowYears)
	}
	q.Set("q", query)
	q.Set("hl", c.language)
	q.Set("gl", c.region)
	q.Set("ceid", c.region+":"+strings.SplitN(c.language, "-", 2)[0])
	u.RawQuery = q.Encode()
	return u.String(), nil
}
