package fmp

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/volscan/pkg/config"
	"github.com/wonny/volscan/pkg/httputil"
	"github.com/wonny/volscan/pkg/logger"
	"github.com/wonny/volscan/pkg/redis"
)

// Client handles communication with the Financial Modeling Prep API
// ⭐ SSOT: FMP API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	exchange   string

	cache    *redis.Cache
	cacheTTL time.Duration
}

// NewClient creates a new FMP client
func NewClient(httpClient *httputil.Client, cfg config.FMPConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.Component("fmp"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		exchange:   cfg.Exchange,
	}
}

// WithCache shares fetched snapshots between channels firing close together
func (c *Client) WithCache(cache *redis.Cache, ttl time.Duration) *Client {
	c.cache = cache
	c.cacheTTL = ttl
	return c
}

// endpoint builds {base}/{path}?{params}&apikey=...
func (c *Client) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)
	return fmt.Sprintf("%s/%s?%s", c.baseURL, strings.TrimLeft(path, "/"), params.Encode())
}

// quoteResponse is one element of the symbol list endpoint
type quoteResponse struct {
	Symbol    string   `json:"symbol"`
	Name      *string  `json:"name"`
	Price     *float64 `json:"price"`
	Volume    *float64 `json:"volume"`
	AvgVolume *float64 `json:"avgVolume"`
	Timestamp int64    `json:"timestamp"` // unix seconds
}

// splitResponse is one element of the split calendar endpoint
type splitResponse struct {
	Date        string  `json:"date"`
	Symbol      string  `json:"symbol"`
	Numerator   float64 `json:"numerator"`
	Denominator float64 `json:"denominator"`
}
