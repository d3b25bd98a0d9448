package igold

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"igold-backend/lib/telemetry"
)

var tracer = otel.Tracer("lib/scrapers/igold")

const DefaultBaseUrl = "https://igold.bg"

type Config struct {
	BaseUrl   string        `json:"baseUrl"`
	UserAgent string        `json:"userAgent"`
	Timeout   time.Duration `json:"timeout"`
	// bounds of the random politeness delay before every request.
	// Leaving both zero applies the default range; a negative DelayMin
	// disables the delay.
	DelayMin      time.Duration `json:"delayMin"`
	DelayMax      time.Duration `json:"delayMax"`
	RetryAttempts int           `json:"retryAttempts"`
	RetryBackoff  float64       `json:"retryBackoff"`
}

func DefaultConfig() Config {
	return Config{
		BaseUrl:       DefaultBaseUrl,
		UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		Timeout:       time.Second * 30,
		DelayMin:      time.Second * 1,
		DelayMax:      time.Second * 3,
		RetryAttempts: 3,
		RetryBackoff:  2,
	}
}

// Client fetches igold.bg pages with a politeness delay before every
// request and retries transient failures with exponential backoff.
type Client struct {
	http   *resty.Client
	config Config
	failed []FailedURL
}

func NewClient(config Config) *Client {
	defaults := DefaultConfig()
	if config.BaseUrl == "" {
		config.BaseUrl = defaults.BaseUrl
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.RetryAttempts < 1 {
		config.RetryAttempts = defaults.RetryAttempts
	}
	if config.RetryBackoff < 1 {
		config.RetryBackoff = defaults.RetryBackoff
	}
	// an entirely unset range gets the default delay; a negative
	// DelayMin disables the delay outright
	if config.DelayMin == 0 && config.DelayMax == 0 {
		config.DelayMin = defaults.DelayMin
		config.DelayMax = defaults.DelayMax
	}
	if config.DelayMax < config.DelayMin {
		config.DelayMax = config.DelayMin
	}

	client := resty.New()
	client.SetBaseURL(config.BaseUrl)
	client.SetHeader("user-agent", config.UserAgent)
	client.SetTimeout(config.Timeout)

	telemetry.InstrumentResty(client, "lib/scrapers/igold")

	return &Client{
		http:   client,
		config: config,
	}
}

// Failed reports every url that exhausted its retries or hit a
// non-retryable client error since the client was created.
func (c *Client) Failed() []FailedURL {
	return c.failed
}

func (c *Client) recordFailure(url string, err error) {
	c.failed = append(c.failed, FailedURL{
		Url:    url,
		Reason: err.Error(),
		Time:   time.Now(),
	})
}

// Fetch gets a single page. link may be site-relative. Timeouts,
// connection errors, 5xx and 429 are retried up to RetryAttempts times
// with RetryBackoff^attempt seconds between tries; any other 4xx fails
// immediately.
func (c *Client) Fetch(ctx context.Context, link string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Fetch", trace.WithAttributes(
		attribute.String("url", link),
	))
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= c.config.RetryAttempts; attempt++ {
		if err := c.politenessDelay(ctx); err != nil {
			return nil, err
		}

		res, err := c.http.R().SetContext(ctx).Get(link)
		if err != nil {
			lastErr = &NetworkError{Url: link, Err: err}
		} else {
			status := res.StatusCode()
			switch {
			case status >= 200 && status < 300:
				return res.Body(), nil
			case status == 429 || status >= 500:
				lastErr = &NetworkError{Url: link, Status: status}
			default:
				clientErr := &ClientError{Url: link, Status: status}
				span.RecordError(clientErr)
				span.SetStatus(codes.Error, clientErr.Error())
				c.recordFailure(link, clientErr)
				return nil, clientErr
			}
		}

		if attempt < c.config.RetryAttempts {
			backoff := time.Duration(
				math.Pow(c.config.RetryBackoff, float64(attempt)) * float64(time.Second),
			)
			slog.WarnContext(ctx, "retrying fetch",
				"url", link, "attempt", attempt, "backoff", backoff, "err", lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	err := fmt.Errorf("%d attempts: %w", c.config.RetryAttempts, lastErr)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.recordFailure(link, lastErr)
	return nil, err
}

// FetchDocument fetches a page and parses it into a goquery document.
func (c *Client) FetchDocument(ctx context.Context, link string) (*goquery.Document, error) {
	body, err := c.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	node, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", link, err)
	}
	return goquery.NewDocumentFromNode(node), nil
}

// politenessDelay sleeps a uniformly random duration in
// [DelayMin, DelayMax] so crawls never hammer the site.
func (c *Client) politenessDelay(ctx context.Context) error {
	if c.config.DelayMin < 0 {
		return nil
	}
	minMs := int(c.config.DelayMin / time.Millisecond)
	maxMs := int(c.config.DelayMax / time.Millisecond)

	ms := minMs
	if maxMs > minMs {
		n, err := random.IntRange(minMs, maxMs+1)
		if err == nil {
			ms = n
		}
	}
	if ms <= 0 {
		return nil
	}

	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
