package intake

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/rl1809/hoodie-drop/internal/core/domain"
	"github.com/rl1809/hoodie-drop/internal/port"
)

const DefaultTimeout = 10 * time.Second

// Client posts encoded orders to the intake form. The remote reply is drained
// and discarded: the form answers 200 with an HTML page whether or not it
// stored anything, so its status says nothing about acceptance.
type Client struct {
	endpoint   string
	encoder    *Encoder
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(endpoint string, keys FieldKeys, timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		endpoint: endpoint,
		encoder:  NewEncoder(keys),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Send(ctx context.Context, draft domain.OrderDraft) (port.Sent, error) {
	values := c.encoder.Encode(draft)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return port.Sent{}, &port.TransportError{Endpoint: c.endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	dispatchedAt := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return port.Sent{}, &port.TransportError{Endpoint: c.endpoint, Err: err}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.logger.Debug("intake post dispatched",
		zap.String("endpoint", c.endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Int("fields", len(values)))

	return port.Sent{
		Endpoint:     c.endpoint,
		DispatchedAt: dispatchedAt,
		FieldCount:   len(values),
	}, nil
}
