package utils

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultHTTPTimeout = 30 * time.Second

type HTTPClientOption func(*http.Client)

func WithTimeout(timeout time.Duration) HTTPClientOption {
	return func(c *http.Client) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

func NewHTTPClient(opts ...HTTPClientOption) *http.Client {
	client := &http.Client{
		Timeout: defaultHTTPTimeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// NewRestyClient 基于 httpClient 创建 resty 客户端，重试由调用方的 RetryPolicy 负责
func NewRestyClient(httpClient *http.Client, baseURL string) *resty.Client {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	return resty.NewWithClient(httpClient).
		SetBaseURL(baseURL).
		SetRetryCount(0).
		SetHeader("User-Agent", "clinical-trials-agent/1.0")
}
