package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"strom_dashboard/internal/ingest"
	"strom_dashboard/internal/model"
)

const livePath = "/strom.json"

// Client reads documents from the HTTP backend that serves
// /history/{YYYY-MM-DD}.json and /strom.json.
type Client struct {
	http *resty.Client
}

// NewClient creates a client for baseURL. Requests are made once; there is
// no retry policy.
func NewClient(baseURL string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "strom-dashboard/1.0").
		SetRetryCount(0)
	return &Client{http: rc}
}

// NewClientWithHTTP wraps an existing http.Client, e.g. httptest's.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	rc := resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	return &Client{http: rc}
}

// DayPath returns the backend path of a day document.
func DayPath(day string) string {
	return "/history/" + day + ".json"
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get(path)
	if err != nil {
		return nil, &FetchError{Doc: path, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &FetchError{
			Doc:        path,
			StatusCode: resp.StatusCode(),
			Err:        errors.New(strings.TrimSpace(resp.Status())),
		}
	}
	return resp.Body(), nil
}

func (c *Client) FetchDay(ctx context.Context, day string) (model.DaySeries, error) {
	if !ValidDay(day) {
		return nil, &FetchError{Doc: day, Err: fmt.Errorf("invalid day %q, want YYYY-MM-DD", day)}
	}
	path := DayPath(day)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	series, err := ingest.ParseDay(body)
	if err != nil {
		return nil, &FetchError{Doc: path, StatusCode: http.StatusOK, Err: err}
	}
	return series, nil
}

func (c *Client) FetchLive(ctx context.Context) (model.LiveStatus, error) {
	body, err := c.get(ctx, livePath)
	if err != nil {
		return model.LiveStatus{}, err
	}
	live, err := ingest.ParseLive(body)
	if err != nil {
		return model.LiveStatus{}, &FetchError{Doc: livePath, StatusCode: http.StatusOK, Err: err}
	}
	return live, nil
}
