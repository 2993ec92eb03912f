package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// WebhookClient posts action payloads to arbitrary HTTP endpoints. Calls are
// bounded by a per-call timeout and throttled by a process-wide limiter so a
// burst of firings cannot flood a target.
type WebhookClient struct {
	client  *fasthttp.Client
	limiter *rate.Limiter
	timeout time.Duration
}

func NewWebhookClient(timeout time.Duration, ratePerSecond float64) *WebhookClient {
	if ratePerSecond <= 0 {
		ratePerSecond = 5
	}
	return &WebhookClient{
		client: &fasthttp.Client{
			MaxConnsPerHost:     64,
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), int(ratePerSecond)+1),
		timeout: timeout,
	}
}

// Post sends body as JSON to url and reports non-2xx responses as errors.
func (w *WebhookClient) Post(ctx context.Context, url string, body []byte) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := w.client.DoTimeout(req, resp, w.timeout); err != nil {
		return fmt.Errorf("webhook call failed: %w", err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return fmt.Errorf("webhook returned status %d", status)
	}
	return nil
}
