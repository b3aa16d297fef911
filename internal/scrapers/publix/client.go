// Package publix talks to the publix storefront search and store
// locator APIs. it owns pagination, pacing and retry, and converts
// raw search records into catalog products for the validator.
package publix

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"

	"golang.org/x/time/rate"

	"sodatrack-backend/lib/restyutil"
)

var tracer = otel.Tracer("scrapers/publix")

type Config struct {
	BaseUrl    string
	LocatorUrl string
	// search category, "soda" unless overridden
	Category string
	PageSize int
	// delay between stores, applied by the caller. the per-page
	// jitter within one store is separate.
	RequestDelay time.Duration
	Timeout      time.Duration

	MaxRetries         int
	RetryInitialDelay  time.Duration
	RetryMaxDelay      time.Duration
	RetryBackoffFactor float64

	// jittered sleep bounds between successive pages of one store
	PageDelayMin time.Duration
	PageDelayMax time.Duration

	// route requests through the cloudflare bypass transport
	BypassBotCheck bool
	// when set, request/response dumps for every call land here
	DebugOutputDir string
}

func (c Config) withDefaults() Config {
	if c.BaseUrl == "" {
		c.BaseUrl = "https://services.publix.com/api"
	}
	if c.LocatorUrl == "" {
		c.LocatorUrl = c.BaseUrl + "/v1/storelocation"
	}
	if c.Category == "" {
		c.Category = "soda"
	}
	if c.PageSize <= 0 {
		c.PageSize = 100
	}
	if c.RequestDelay <= 0 {
		c.RequestDelay = time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Second * 30
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryInitialDelay <= 0 {
		c.RetryInitialDelay = time.Second
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = time.Minute
	}
	if c.RetryBackoffFactor <= 1 {
		c.RetryBackoffFactor = 2
	}
	if c.PageDelayMin <= 0 {
		c.PageDelayMin = time.Second
	}
	if c.PageDelayMax <= c.PageDelayMin {
		c.PageDelayMax = c.PageDelayMin * 2
	}
	return c
}

type Client struct {
	http *resty.Client
	cfg  Config
}

func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	baseUrl, err := url.Parse(cfg.BaseUrl)
	if err != nil {
		return nil, err
	}
	locatorUrl, err := url.Parse(cfg.LocatorUrl)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(cfg.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if cfg.BypassBotCheck {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname(), locatorUrl.Hostname()))
	httpClient.SetTimeout(cfg.Timeout)

	// 2 requests max per second
	// max burst >= 2 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(2, 2)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	var output restyutil.InstrumentOutput
	if cfg.DebugOutputDir != "" {
		output = restyutil.NewFilesystemOutput(cfg.DebugOutputDir)
	}
	restyutil.InstrumentClient(httpClient, tracer, output)

	return &Client{http: httpClient, cfg: cfg}, nil
}

// RequestDelay is the configured pause the caller should insert
// between stores.
func (c *Client) RequestDelay() time.Duration {
	return c.cfg.RequestDelay
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
