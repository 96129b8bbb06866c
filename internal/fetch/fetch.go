// Package fetch downloads the reference page and selects its content node.
package fetch

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/pkg/errors"

	"github.com/yourorg/botapigen/internal/document"
)

const (
	DefaultURL       = "https://core.telegram.org/bots/api"
	DefaultContentID = "dev_page_content"
	defaultTimeout   = 60 * time.Second
	userAgent        = "botapigen"
)

// Client downloads one page, retrying transport errors, 429 and 5xx responses.
type Client struct {
	URL        string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

var sleepFn = time.Sleep

// Fetch returns the page body.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	client := c.HTTPClient
	if client == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	url := c.URL
	if url == "" {
		url = DefaultURL
	}
	maxRetries := c.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 && c.Logger != nil {
			c.Logger.Debug("retrying download", "url", url, "attempt", attempt, "error", lastErr)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.Wrap(err, "build request")
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Wrap(ctx.Err(), "download")
			}
			lastErr = errors.Wrapf(err, "get %s", url)
			if attempt < maxRetries {
				sleepFn(backoff(attempt))
				continue
			}
			return nil, lastErr
		}
		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = errors.Wrapf(err, "read %s", url)
			if attempt < maxRetries {
				sleepFn(backoff(attempt))
				continue
			}
			return nil, lastErr
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = errors.Errorf("get %s: status %d", url, resp.StatusCode)
			if attempt < maxRetries {
				wait := backoff(attempt)
				if resp.StatusCode == http.StatusTooManyRequests {
					if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
						if secs, err := strconv.Atoi(ra); err == nil {
							wait = time.Duration(secs) * time.Second
						}
					}
				}
				sleepFn(wait)
				continue
			}
			return nil, lastErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, errors.Errorf("get %s: status %d", url, resp.StatusCode)
		}
		if c.Logger != nil {
			c.Logger.Debug("downloaded", "url", url, "bytes", len(data))
		}
		return data, nil
	}
	if lastErr == nil {
		lastErr = errors.New("download failed")
	}
	return nil, lastErr
}

// Content returns the inner HTML of the element with the given id.
func Content(page []byte, id string) (string, error) {
	root, err := document.Parse(bytes.NewReader(page))
	if err != nil {
		return "", err
	}
	n, err := document.FindByID(root, id)
	if err != nil {
		return "", err
	}
	return document.InnerHTML(n), nil
}

// Markdown converts an HTML fragment to markdown for previewing.
func Markdown(fragment string) (string, error) {
	out, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		return "", errors.Wrap(err, "convert to markdown")
	}
	return out, nil
}

func backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return time.Second << attempt
}
