package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
)

const (
	streamPath            = "/stream"
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 30 * time.Second
	maxLineBytes          = 1 << 20
)

// SSESource reads a text/event-stream endpoint of the engine and reconnects
// with exponential backoff when the connection drops.
type SSESource struct {
	url            string
	client         *http.Client
	logger         *slog.Logger
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

var _ Source = (*SSESource)(nil)

// SSEOption customises an SSESource.
type SSEOption func(*SSESource)

// WithSSEClient sets the HTTP client. It must not have a request timeout.
func WithSSEClient(client *http.Client) SSEOption {
	return func(s *SSESource) {
		s.client = client
	}
}

// WithReconnectBackoff sets the first reconnect delay and its ceiling.
func WithReconnectBackoff(initial, ceiling time.Duration) SSEOption {
	return func(s *SSESource) {
		s.initialBackoff = initial
		s.maxBackoff = ceiling
	}
}

// NewSSESource streams from {engineURL}/stream.
func NewSSESource(engineURL string, logger *slog.Logger, opts ...SSEOption) *SSESource {
	s := &SSESource{
		url:            strings.TrimSuffix(engineURL, "/") + streamPath,
		client:         &http.Client{},
		logger:         logger.With("module", "sse_source"),
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *SSESource) Name() string { return "sse" }

func (s *SSESource) Close() error { return nil }

func (s *SSESource) Subscribe(ctx context.Context) (<-chan models.WorkflowEvent, error) {
	out := make(chan models.WorkflowEvent)

	go s.run(ctx, out)

	return out, nil
}

// newBackOff never gives up; the ceiling only bounds the delay.
func (s *SSESource) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialBackoff
	b.MaxInterval = s.maxBackoff
	b.MaxElapsedTime = 0
	b.Reset()

	return b
}

func (s *SSESource) run(ctx context.Context, out chan<- models.WorkflowEvent) {
	defer close(out)

	b := s.newBackOff()
	lastEventID := ""

	for {
		connected, err := s.stream(ctx, out, &lastEventID)
		if ctx.Err() != nil {
			return
		}

		if connected {
			b.Reset()
		}

		wait := b.NextBackOff()
		s.logger.WarnContext(ctx, "Event stream disconnected, reconnecting", "error", err, "retry_in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()

			return
		case <-timer.C:
		}
	}
}

// stream holds one connection open and reports whether it was established.
func (s *SSESource) stream(ctx context.Context, out chan<- models.WorkflowEvent, lastEventID *string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build stream request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	if *lastEventID != "" {
		req.Header.Set("Last-Event-ID", *lastEventID)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to connect to event stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("event stream returned status %d", resp.StatusCode)
	}

	s.logger.InfoContext(ctx, "Connected to event stream", "url", s.url)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var data []string

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if len(data) > 0 {
				if !s.dispatch(ctx, out, strings.Join(data, "\n")) {
					return true, ctx.Err()
				}

				data = data[:0]
			}

			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "data":
			data = append(data, value)
		case "id":
			*lastEventID = value
		}
	}

	if err := scanner.Err(); err != nil {
		return true, fmt.Errorf("event stream read failed: %w", err)
	}

	return true, errors.New("event stream closed by server")
}

func (s *SSESource) dispatch(ctx context.Context, out chan<- models.WorkflowEvent, payload string) bool {
	event, err := Decode([]byte(payload))
	if err != nil {
		s.logger.WarnContext(ctx, "Skipping malformed event", "error", err)

		return true
	}

	return deliver(ctx, out, event)
}
