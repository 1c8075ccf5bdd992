// Package publisher hands a validated workflow document to the execution engine.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/otelhelper"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	publishPath           = "/publish"
	defaultTimeout        = 30 * time.Second
	defaultFailureTrip    = 5
	defaultOpenStateDelay = 30 * time.Second
	maxErrorBodyBytes     = 4096
)

// Request is the body sent to the engine.
type Request struct {
	Workflow *models.WorkflowDocument `json:"workflow"`
}

// Response is the engine's answer.
type Response struct {
	Success    bool   `json:"success"`
	WorkflowID string `json:"workflowId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Receipt identifies a workflow accepted by the engine.
type Receipt struct {
	WorkflowID string `json:"workflowId"`
}

// Client publishes documents over HTTP. Calls are not retried; after a run
// of consecutive transport failures the breaker fails fast until it half-opens.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*Receipt]
	tracer  trace.Tracer
	logger  *slog.Logger
}

// Option customises a Client.
type Option func(*config)

type config struct {
	httpClient     *http.Client
	tracer         trace.Tracer
	failureTrip    uint32
	openStateDelay time.Duration
}

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *config) {
		c.tracer = tracer
	}
}

// WithBreaker sets how many consecutive failures open the breaker and how long
// it stays open.
func WithBreaker(consecutiveFailures uint32, openFor time.Duration) Option {
	return func(c *config) {
		c.failureTrip = consecutiveFailures
		c.openStateDelay = openFor
	}
}

// New creates a Client for the engine at baseURL.
func New(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	cfg := config{
		failureTrip:    defaultFailureTrip,
		openStateDelay: defaultOpenStateDelay,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		}
	}

	if cfg.tracer == nil {
		cfg.tracer = otelhelper.Tracer("builder.publisher")
	}

	logger = logger.With("module", "publisher")

	breaker := gobreaker.NewCircuitBreaker[*Receipt](gobreaker.Settings{
		Name:        "engine-publish",
		MaxRequests: 1,
		Timeout:     cfg.openStateDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.failureTrip
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrPublishRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Engine circuit breaker changed state", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    cfg.httpClient,
		breaker: breaker,
		tracer:  cfg.tracer,
		logger:  logger,
	}
}

// Publish sends doc to the engine and returns the workflow id it assigned.
func (c *Client) Publish(ctx context.Context, doc *models.WorkflowDocument) (*Receipt, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "publisher.publish",
		attribute.String(otelhelper.EngineURLKey, c.baseURL),
		attribute.Int(otelhelper.NodeCountKey, len(doc.Nodes)),
		attribute.Int(otelhelper.EdgeCountKey, len(doc.Edges)),
		attribute.String(otelhelper.BreakerNameKey, c.breaker.Name()),
	)
	defer span.End()

	receipt, err := c.breaker.Execute(func() (*Receipt, error) {
		return c.send(ctx, doc)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
		}

		otelhelper.SetError(span, err)
		c.logger.ErrorContext(ctx, "Failed to publish workflow", "error", err)

		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.WorkflowIDKey, receipt.WorkflowID))
	c.logger.InfoContext(ctx, "Workflow published", "workflow_id", receipt.WorkflowID)

	return receipt, nil
}

func (c *Client) send(ctx context.Context, doc *models.WorkflowDocument) (*Receipt, error) {
	body, err := json.Marshal(Request{Workflow: doc})
	if err != nil {
		return nil, fmt.Errorf("failed to encode publish request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+publishPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build publish request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrEngineUnavailable, err)
	}

	var answer Response

	decodeErr := json.Unmarshal(raw, &answer)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := answer.Error
		if decodeErr != nil || message == "" {
			message = truncate(strings.TrimSpace(string(raw)), maxErrorBodyBytes)
		}

		return nil, &EngineError{StatusCode: resp.StatusCode, Message: message, Err: ErrPublishRejected}
	}

	if decodeErr != nil {
		return nil, &EngineError{StatusCode: resp.StatusCode, Message: "malformed response: " + decodeErr.Error(), Err: ErrPublishRejected}
	}

	if !answer.Success || answer.WorkflowID == "" {
		message := answer.Error
		if message == "" && answer.Success {
			message = "engine did not return a workflow id"
		}

		return nil, &EngineError{StatusCode: resp.StatusCode, Message: message, Err: ErrPublishRejected}
	}

	return &Receipt{WorkflowID: answer.WorkflowID}, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	return s[:limit]
}
