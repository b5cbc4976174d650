package files

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ciyex-org/ciyex-platform-sdk/config"
)

const defaultTimeout = 30 * time.Second

// TransportConfig owns timeouts and the optional bounded retry policy.
// RetryMax of zero sends every request exactly once.
type TransportConfig struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Logger       *slog.Logger
}

func TransportConfigFrom(cfg config.Transport) TransportConfig {
	return TransportConfig{
		Timeout:      cfg.Timeout,
		RetryMax:     cfg.RetryMax,
		RetryWaitMin: cfg.RetryWaitMin,
		RetryWaitMax: cfg.RetryWaitMax,
	}
}

type noRetryKey struct{}

// NewHTTPClient builds a pooled *http.Client. GET and HEAD requests are
// retried on connection errors, 429 and 5xx responses; every other method is
// sent exactly once. Once retries are exhausted the last response is returned
// as-is so callers see the gateway's status.
func NewHTTPClient(cfg TransportConfig) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		rc.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		rc.RetryWaitMax = cfg.RetryWaitMax
	}
	rc.CheckRetry = safeMethodsOnly(retryablehttp.DefaultRetryPolicy)
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	rc.Logger = nil
	if cfg.Logger != nil {
		rc.Logger = cfg.Logger
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rc.HTTPClient.Timeout = timeout

	return &http.Client{
		Transport: markUnsafe{next: &retryablehttp.RoundTripper{Client: rc}},
	}
}

// markUnsafe tags requests whose method must not be repeated. The response
// is nil on connection errors, so the retry policy reads the tag from the
// request context instead of the response.
type markUnsafe struct {
	next http.RoundTripper
}

func (t markUnsafe) RoundTrip(req *http.Request) (*http.Response, error) {
	switch req.Method {
	case http.MethodGet, http.MethodHead:
	default:
		req = req.WithContext(context.WithValue(req.Context(), noRetryKey{}, true))
	}
	return t.next.RoundTrip(req)
}

func safeMethodsOnly(next retryablehttp.CheckRetry) retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if noRetry, _ := ctx.Value(noRetryKey{}).(bool); noRetry {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			return false, nil
		}
		return next(ctx, resp, err)
	}
}
