package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"time"

	"github.com/handiism/trackflyer/internal/model"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "trackflyer"

var errStreamAbandoned = errors.New("stream abandoned by consumer")

// Client wraps HTTP operations used by the resolver and the download stream.
//
//	client := NewClient(60*time.Second, 200*time.Millisecond)
//	html, err := client.GetString(ctx, pageURL)
//
//	for res := range client.Open(ctx, streamURL) {
//	    // progress, then one error or success
//	}
type Client struct {
	httpClient       *http.Client
	userAgent        string
	progressInterval time.Duration
}

// NewClient creates a Client. progressInterval is the minimum spacing between
// progress results of one stream; zero reports every chunk.
func NewClient(timeout, progressInterval time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent:        defaultUserAgent,
		progressInterval: progressInterval,
	}
}

// ProgressWriter wraps a writer to track download progress.
//
// OnUpdate is called after each Write with (written, total). Returning false
// aborts the copy: the next Write fails.
type ProgressWriter struct {
	Writer   io.Writer
	Total    int64
	Written  int64
	OnUpdate func(written, total int64) bool
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil && !pw.OnUpdate(pw.Written, pw.Total) {
		return n, errStreamAbandoned
	}
	return n, err
}

// Get performs a GET request and returns the response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// GetString performs a GET request and returns the response body as a string.
func (c *Client) GetString(ctx context.Context, url string) (string, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Open streams url into memory. The returned sequence is lazy: the request is
// made when iteration starts. It yields progress ratios in [0, 1] (only when the
// server sends Content-Length), then exactly one error or success. Breaking out
// of the range aborts the transfer.
func (c *Client) Open(ctx context.Context, url string) iter.Seq[model.DownloadResult] {
	return func(yield func(model.DownloadResult) bool) {
		resp, err := c.do(ctx, url)
		if err != nil {
			yield(model.ErrorResult(err))
			return
		}
		defer resp.Body.Close()

		var buf bytes.Buffer
		if resp.ContentLength > 0 {
			buf.Grow(int(resp.ContentLength))
		}

		throttle := c.newThrottle()
		pw := &ProgressWriter{
			Writer: &buf,
			Total:  resp.ContentLength,
			OnUpdate: func(written, total int64) bool {
				if total <= 0 {
					return true
				}
				more := true
				throttle.Do(func() {
					more = yield(model.ProgressResult(float64(written) / float64(total)))
				})
				return more
			},
		}

		if _, err := io.Copy(pw, resp.Body); err != nil {
			if errors.Is(err, errStreamAbandoned) {
				return
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			yield(model.ErrorResult(err))
			return
		}

		yield(model.SuccessResult(buf.Bytes()))
	}
}

func (c *Client) newThrottle() *rate.Sometimes {
	if c.progressInterval <= 0 {
		return &rate.Sometimes{Every: 1}
	}
	return &rate.Sometimes{Interval: c.progressInterval}
}

func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return resp, nil
}
