// Package webclient wraps a Colly collector behind a minimal GET interface
// shared by the listing, document, and measure crawlers. Non-2xx statuses are
// surfaced via the response status code; errors mean transport failure.
package webclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/atsdata/ats-crawler/internal/ratelimit"
)

// Config captures the transport knobs for outbound requests. The
// connect/read split bounds every call: ConnectTimeout covers dialing,
// ReadTimeout covers waiting on response headers and the overall request.
type Config struct {
	UserAgent      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// Response is the result of a single GET.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the response carried a 2xx status.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client issues bounded-timeout GETs through a shared base collector,
// cloning it per request.
type Client struct {
	base    *colly.Collector
	limiter *ratelimit.Limiter
	logger  *zap.Logger
}

// New constructs a Client. The limiter is consulted before every request.
func New(cfg Config, limiter *ratelimit.Limiter, logger *zap.Logger) *Client {
	base := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.Async(true),
	)
	base.AllowURLRevisit = true
	base.ParseHTTPErrorResponse = true
	// The doc database publishes no robots policy; skipping the probe keeps
	// one outbound request per Get.
	base.IgnoreRobotsTxt = true
	base.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.ConnectTimeout + cfg.ReadTimeout)

	return &Client{
		base:    base,
		limiter: limiter,
		logger:  logger,
	}
}

// Get fetches rawURL. A non-2xx status is not an error; transport failures
// (including timeouts, distinguishable via IsTimeout) are.
func (c *Client) Get(ctx context.Context, rawURL string) (Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, rawURL); err != nil {
			return Response{}, err
		}
	}

	c.logger.Debug("GET", zap.String("url", rawURL))

	collector := c.base.Clone()
	resultCh := make(chan result, 1)
	var once sync.Once
	send := func(res result) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		send(result{resp: Response{
			StatusCode: r.StatusCode,
			Body:       append([]byte{}, r.Body...),
		}})
	})
	collector.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown collector error")
		}
		send(result{err: err})
	})

	if err := collector.Visit(rawURL); err != nil {
		return Response{}, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}
		return res.resp, res.err
	default:
		return Response{}, errors.New("fetch produced no result")
	}
}

type result struct {
	resp Response
	err  error
}

// IsTimeout reports whether err represents a network timeout, which the
// document fetcher treats as "not found" rather than a failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
