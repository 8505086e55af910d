// Package remote fetches the top albums chart from the upstream endpoint.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/amiyamandal-dev/topalbums/internal/config"
	"github.com/amiyamandal-dev/topalbums/internal/domain"
	"github.com/amiyamandal-dev/topalbums/internal/metrics"
	"github.com/amiyamandal-dev/topalbums/internal/validator"
	"github.com/amiyamandal-dev/topalbums/pkg/logger"
)

// Client performs the chart request and decodes the response
type Client struct {
	http        *http.Client
	url         string
	maxBodySize int64
	userAgent   string
	validator   *validator.Validator
	cleaner     *textCleaner
	metrics     metrics.Recorder
	logger      *logger.Logger
}

// NewClient creates a new chart client
func NewClient(cfg config.FetchConfig, rec metrics.Recorder, log *logger.Logger) *Client {
	if rec == nil {
		rec = metrics.Nop{}
	}

	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		url:         cfg.URL(),
		maxBodySize: cfg.MaxBodyBytes,
		userAgent:   cfg.UserAgent,
		validator:   validator.New(),
		cleaner:     newTextCleaner(),
		metrics:     rec,
		logger:      log.WithComponent("remote-client"),
	}
}

// URL returns the chart URL the client requests
func (c *Client) URL() string {
	return c.url
}

// FetchFeed retrieves and decodes the current chart. Every failure is a
// *domain.FetchError.
func (c *Client) FetchFeed(ctx context.Context) (*domain.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		fe := domain.NewFetchError(domain.KindUnknownError, err)
		fe.Message = domain.MsgUnknownURL
		return nil, fe
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.RecordFetchLatency(time.Since(start))
	if err != nil {
		fe := classifyTransportError(err)
		c.logger.Warn("Chart request failed", "url", c.url, "kind", string(fe.Kind), "error", err)
		return nil, fe
	}
	defer resp.Body.Close()

	c.metrics.RecordHTTPStatus(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		c.logger.Warn("Unexpected chart response status", "url", c.url, "status", resp.StatusCode)
		return nil, domain.NewFetchError(domain.KindUnknownError,
			fmt.Errorf("unexpected status %d", resp.StatusCode)).WithCode(resp.StatusCode)
	}

	body, err := c.readBody(resp.Body)
	if err != nil {
		var fe *domain.FetchError
		if !errors.As(err, &fe) {
			fe = classifyTransportError(err)
		}
		c.logger.Warn("Failed to read chart response", "url", c.url, "kind", string(fe.Kind), "error", err)
		return nil, fe
	}

	if len(body) == 0 {
		c.logger.Warn("Empty chart response", "url", c.url)
		return nil, domain.NewFetchError(domain.KindUnknownError, errors.New("empty response body"))
	}

	feed, err := c.decode(body)
	if err != nil {
		c.logger.Warn("Failed to decode chart response", "url", c.url, "error", err)
		return nil, domain.NewFetchError(domain.KindDecodeError, err)
	}

	c.logger.Debug("Fetched chart", "url", c.url, "albums", len(feed.Albums), "bytes", len(body))

	return feed, nil
}

// readBody reads at most maxBodySize bytes. Larger bodies are rejected
// rather than truncated into invalid JSON.
func (c *Client) readBody(r io.Reader) ([]byte, error) {
	if c.maxBodySize <= 0 {
		return io.ReadAll(r)
	}

	body, err := io.ReadAll(io.LimitReader(r, c.maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, domain.NewFetchError(domain.KindDecodeError,
			fmt.Errorf("response body exceeds %d bytes", c.maxBodySize))
	}
	return body, nil
}

func (c *Client) decode(body []byte) (*domain.Feed, error) {
	var payload albumsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid chart JSON: %w", err)
	}

	if err := c.validator.Validate(&payload); err != nil {
		return nil, err
	}

	return payload.Feed.toDomain(c.cleaner), nil
}
