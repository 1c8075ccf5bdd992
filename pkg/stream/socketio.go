package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultSocketIOEvent is the event name engine progress is emitted under.
const DefaultSocketIOEvent = "workflow-event"

// SocketIOSource listens for one named event on a Socket.IO namespace. The
// client manager handles reconnection.
type SocketIOSource struct {
	baseURL   string
	path      string
	namespace string
	event     string
	logger    *slog.Logger
}

var _ Source = (*SocketIOSource)(nil)

// NewSocketIOSource connects to rawURL; its path selects the Socket.IO endpoint.
func NewSocketIOSource(rawURL, namespace, event string, logger *slog.Logger) (*SocketIOSource, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse socket.io url: %w", err)
	}

	if namespace == "" {
		namespace = "/"
	}

	if event == "" {
		event = DefaultSocketIOEvent
	}

	return &SocketIOSource{
		baseURL:   fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host),
		path:      parsed.Path,
		namespace: namespace,
		event:     event,
		logger:    logger.With("module", "socketio_source", "url", rawURL, "namespace", namespace),
	}, nil
}

func (s *SocketIOSource) Name() string { return "socketio" }

func (s *SocketIOSource) Close() error { return nil }

func (s *SocketIOSource) Subscribe(ctx context.Context) (<-chan models.WorkflowEvent, error) {
	opts := socket.DefaultOptions()
	if s.path != "" {
		opts.SetPath(s.path)
	}

	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(s.baseURL, opts)
	io := manager.Socket(s.namespace, opts)

	out := make(chan models.WorkflowEvent)

	var (
		mu     sync.RWMutex
		closed bool
	)

	io.On(types.EventName("connect"), func(...any) {
		s.logger.InfoContext(ctx, "Connected to socket.io", "sid", io.Id())
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		s.logger.WarnContext(ctx, "Socket.io connection error", "error", fmt.Sprint(errs...))
	})

	io.On(types.EventName("disconnect"), func(reason ...any) {
		s.logger.WarnContext(ctx, "Socket.io disconnected", "reason", fmt.Sprint(reason...))
	})

	io.On(types.EventName(s.event), func(args ...any) {
		if len(args) == 0 {
			return
		}

		event, err := decodeSocketIOPayload(args[0])
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping malformed event", "error", err)

			return
		}

		mu.RLock()
		defer mu.RUnlock()

		if closed {
			return
		}

		deliver(ctx, out, event)
	})

	io.Connect()

	go func() {
		<-ctx.Done()

		io.Disconnect()

		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()

	return out, nil
}

// decodeSocketIOPayload accepts either a JSON string or an already decoded object.
func decodeSocketIOPayload(arg any) (models.WorkflowEvent, error) {
	switch payload := arg.(type) {
	case string:
		return Decode([]byte(payload))
	case []byte:
		return Decode(payload)
	default:
		raw, err := json.Marshal(payload)
		if err != nil {
			return models.WorkflowEvent{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
		}

		return Decode(raw)
	}
}
