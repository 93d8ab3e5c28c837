package qstash

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var ErrPublish = errors.New("qstash publish failed")

type Config struct {
	URL     string        `split_words:"true" default:"https://qstash.upstash.io"`
	Token   string        `split_words:"true"`
	Timeout time.Duration `split_words:"true" default:"10s"`
	Retries int           `split_words:"true" default:"3"`

	// Destination is the default target for callers; Publish always takes
	// one explicitly.
	Destination string `split_words:"true"`
}

// Client publishes JSON payloads to a destination URL through QStash, which
// takes care of delivery retries.
type Client struct {
	http    *resty.Client
	retries int
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("qstash url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("qstash token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json")

	return &Client{http: client, retries: cfg.Retries}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

type publishResponse struct {
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
}

// Publish hands payload to QStash for delivery to destination and returns the
// message id QStash assigned.
func (c *Client) Publish(ctx context.Context, destination string, payload any) (string, error) {
	destination = strings.TrimSpace(destination)
	if _, err := url.ParseRequestURI(destination); err != nil {
		return "", fmt.Errorf("%w: invalid destination %q: %v", ErrPublish, destination, err)
	}

	var out publishResponse
	req := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&out).
		SetError(&out)
	if c.retries > 0 {
		req.SetHeader("Upstash-Retries", fmt.Sprint(c.retries))
	}

	resp, err := req.Post("/v2/publish/" + destination)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPublish, err)
	}
	if resp.IsError() {
		msg := out.Error
		if msg == "" {
			msg = resp.Status()
		}
		return "", fmt.Errorf("%w: %s", ErrPublish, msg)
	}
	if out.MessageID == "" {
		return "", fmt.Errorf("%w: response without message id", ErrPublish)
	}
	return out.MessageID, nil
}
