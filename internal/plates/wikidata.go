package plates

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	DefaultEndpoint       = "https://query.wikidata.org/sparql"
	DefaultRequestTimeout = 45 * time.Second
	defaultMaxRetries     = 3
	defaultRetryWait      = 2 * time.Second
	maxRateLimitWait      = time.Minute

	userAgent = "sift-bibliojobs/1.0 (data cleaning tool)"

	// German administrative entities carrying a vehicle registration code.
	sparqlQuery = `
SELECT ?item ?itemLabel ?licencePlate WHERE {
  ?item wdt:P395 ?licencePlate .
  ?item wdt:P17 wd:Q183 .
  ?item wdt:P31/wdt:P279* wd:Q56061 .
  SERVICE wikibase:label { bd:serviceParam wikibase:language "de,en" . }
}`
)

var plateCodeRe = regexp.MustCompile(`^[A-Z]{1,3}$`)

type ClientOptions struct {
	Endpoint   string
	Timeout    time.Duration
	MaxRetries int
	RetryWait  time.Duration
}

// Client fetches the plate-code→place mapping from the Wikidata SPARQL
// endpoint, with retry, exponential backoff, and Retry-After handling.
type Client struct {
	http   *resty.Client
	opts   ClientOptions
	logger zerolog.Logger
}

func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	if strings.TrimSpace(opts.Endpoint) == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRequestTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = defaultRetryWait
	}

	http := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/sparql-results+json").
		SetHeader("User-Agent", userAgent)

	return &Client{http: http, opts: opts, logger: logger}
}

// Fetch returns the full plate mapping. Every transport failure across all
// attempts collapses into ErrLookupUnavailable so callers can fall back to a
// stale cache.
func (c *Client) Fetch(ctx context.Context) (map[string]string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 1 {
			wait := c.opts.RetryWait << (attempt - 2)
			c.logger.Info().
				Dur("wait", wait).
				Int("attempt", attempt).
				Msg("retrying wikidata plate query")
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("query", sparqlQuery).
			Get(c.opts.Endpoint)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode() == 429 {
			wait := retryAfterWait(resp.Header().Get("Retry-After"), c.opts.RetryWait)
			c.logger.Warn().Dur("wait", wait).Msg("rate limited by wikidata")
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}
		if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			lastErr = fmt.Errorf("wikidata status %d", resp.StatusCode())
			continue
		}

		mapping := parseSPARQLBindings(resp.Body())
		c.logger.Info().Int("plates", len(mapping)).Msg("loaded plate mapping from wikidata")
		return mapping, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrLookupUnavailable, lastErr)
}

func parseSPARQLBindings(body []byte) map[string]string {
	mapping := map[string]string{}
	gjson.GetBytes(body, "results.bindings").ForEach(func(_, binding gjson.Result) bool {
		code := binding.Get("licencePlate.value").String()
		place := binding.Get("itemLabel.value").String()
		if place != "" && plateCodeRe.MatchString(code) {
			mapping[code] = place
		}
		return true
	})
	return mapping
}

func retryAfterWait(header string, fallback time.Duration) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds <= 0 {
		return fallback
	}
	wait := time.Duration(seconds) * time.Second
	if wait > maxRateLimitWait {
		return maxRateLimitWait
	}
	return wait
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
