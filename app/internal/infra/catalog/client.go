package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	domproduct "example.com/rocketshoes/app/internal/domain/product"
)

const (
	defaultTimeout         = 5 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerCooldown = 30 * time.Second
	maxBodyBytes           = 1 << 20

	tokenService = "cart"
	tokenScope   = "catalog:read"
)

// TokenSource signs requests to the catalog API.
type TokenSource interface {
	GenerateToken(service, scope string) (string, error)
}

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// StatusError reports a non-2xx answer from the catalog API.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog GET %s: unexpected status %d", e.Path, e.Code)
}

func isNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Client reads products and stock from the catalog API. Concurrent identical
// requests share one round trip; nothing is cached between calls. A single
// cart store serializes its own lookups, so sharing only happens when several
// stores or other callers use the same Client.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	group   singleflight.Group
	tokens  TokenSource
	logger  *log.Entry
}

func NewClient(cfg Config, tokens TokenSource, logger *log.Entry) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("catalog client: base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaultBreakerFailures
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = defaultBreakerCooldown
	}
	if logger == nil {
		logger = log.WithField("component", "catalog_client")
	}

	c := &Client{
		baseURL: base,
		timeout: cfg.Timeout,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens: tokens,
		logger: logger,
	}

	failures := cfg.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "catalog",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// a 404 is an answer, and a cancelled request says nothing about
		// the catalog's health
		IsSuccessful: func(err error) bool {
			return err == nil || isNotFound(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(log.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("catalog circuit breaker changed state")
		},
	})

	return c, nil
}

func (c *Client) GetStock(ctx context.Context, productID int64) (domproduct.Stock, error) {
	var stock domproduct.Stock
	if err := c.getJSON(ctx, "/stock/"+strconv.FormatInt(productID, 10), &stock); err != nil {
		if isNotFound(err) {
			return domproduct.Stock{}, fmt.Errorf("%w: %w", domproduct.ErrStockNotFound, err)
		}
		return domproduct.Stock{}, err
	}
	if stock.Amount < 0 {
		return domproduct.Stock{}, fmt.Errorf("stock %d: %w", productID, domproduct.ErrInvalidStock)
	}
	return stock, nil
}

func (c *Client) GetProduct(ctx context.Context, productID int64) (domproduct.Product, error) {
	var product domproduct.Product
	if err := c.getJSON(ctx, "/products/"+strconv.FormatInt(productID, 10), &product); err != nil {
		if isNotFound(err) {
			return domproduct.Product{}, fmt.Errorf("%w: %w", domproduct.ErrProductNotFound, err)
		}
		return domproduct.Product{}, err
	}
	return product, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	data, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("catalog GET %s: decode: %w", path, err)
	}
	return nil
}

// Get fetches path relative to the catalog base URL and returns the body.
// The returned slice may be shared with concurrent callers and must not be
// modified.
//
// The shared round trip is detached from the caller's cancellation and bounded
// by the client timeout instead: a caller that gives up returns ctx.Err()
// without failing the other waiters or counting against the breaker.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := c.group.DoChan(path, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.breaker.Execute(func() ([]byte, error) {
			return c.fetch(fetchCtx, path)
		})
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.logger.WithField("path", path).Debug("catalog request shared with concurrent caller")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog GET %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		token, err := c.tokens.GenerateToken(tokenService, tokenScope)
		if err != nil {
			return nil, fmt.Errorf("catalog GET %s: sign request: %w", path, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{Path: path, Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("catalog GET %s: read body: %w", path, err)
	}
	return data, nil
}
