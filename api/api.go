package api

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// Client owns the HTTP client shared by every remote call of one launcher
// instance.
type Client struct {
	http        *resty.Client
	attempts    int
	retryDelay  time.Duration
	manifestUrl string
}

type Option func(*Client)

func WithAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

func WithManifestUrl(url string) Option {
	return func(c *Client) {
		c.manifestUrl = url
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http:        resty.New().SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)),
		attempts:    3,
		retryDelay:  500 * time.Millisecond,
		manifestUrl: "https://launchermeta.mojang.com/mc/game/version_manifest.json",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Version struct {
	Version string
	Stable  bool
	Url     string
}
