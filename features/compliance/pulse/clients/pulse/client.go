// Package pulse is the Pulse client for the session compliance queue. It owns
// the queue's stream, event name and envelope so callers publish and consume
// typed Requests instead of raw stream entries.
package pulse

//go:generate cmg gen .

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"goa.design/clue/health"
	"goa.design/pulse/streaming"
	streamopts "goa.design/pulse/streaming/options"
)

const (
	// DefaultStreamName is the stream carrying compliance requests.
	DefaultStreamName = "sessions/compliance"
	// DefaultSinkName is the consumer group used by workers.
	DefaultSinkName = "session_compliance"
	// EventRecalc names compliance recalculation entries.
	EventRecalc = "recalc_session_compliance"

	clientName = "compliance-pulse"
)

type (
	// Options configures the compliance queue client.
	Options struct {
		// Redis backs the stream. Required.
		Redis *redis.Client
		// StreamName defaults to DefaultStreamName.
		StreamName string
		// StreamMaxLen bounds the number of entries kept. Zero uses Pulse
		// defaults.
		StreamMaxLen int
		// OperationTimeout bounds individual publish calls. Zero means no
		// timeout.
		OperationTimeout time.Duration
	}

	// Request asks for the compliance of one session to be recomputed.
	Request struct {
		// ID uniquely identifies the request so handlers can drop replays.
		ID string `json:"id"`
		// Type is always EventRecalc.
		Type string `json:"type"`
		// SessionID is the hex ObjectID or string id of the session.
		SessionID string `json:"session_id"`
		// RequestedAt records when the owning list was modified.
		RequestedAt time.Time `json:"requested_at"`
	}

	// Delivery is one entry read from the queue.
	Delivery struct {
		// EventID is the entry ID assigned by Redis.
		EventID string
		// Request is the decoded envelope, zero when Err is set.
		Request Request
		// Err reports an entry that could not be decoded.
		Err error

		event *streaming.Event
	}

	// Client publishes to and consumes from the compliance queue.
	Client interface {
		health.Pinger

		// Publish appends req to the queue and returns the entry ID.
		Publish(ctx context.Context, req Request) (string, error)
		// Subscribe joins the named consumer group. An empty name uses
		// DefaultSinkName.
		Subscribe(ctx context.Context, sink string, opts ...streamopts.Sink) (Subscription, error)
	}

	// Subscription reads deliveries for one consumer group.
	Subscription interface {
		// Deliveries is closed when the subscription stops.
		Deliveries() <-chan Delivery
		// Ack removes the delivery from the pending list.
		Ack(ctx context.Context, d Delivery) error
		// Close stops the subscription.
		Close(ctx context.Context)
	}
)

type client struct {
	redis   *redis.Client
	stream  *streaming.Stream
	timeout time.Duration
}

// New opens the compliance stream on opts.Redis.
func New(opts Options) (Client, error) {
	if opts.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	name := opts.StreamName
	if name == "" {
		name = DefaultStreamName
	}
	var sopts []streamopts.Stream
	if opts.StreamMaxLen > 0 {
		sopts = append(sopts, streamopts.WithStreamMaxLen(opts.StreamMaxLen))
	}
	str, err := streaming.NewStream(name, opts.Redis, sopts...)
	if err != nil {
		return nil, fmt.Errorf("create pulse stream %q: %w", name, err)
	}
	return &client{redis: opts.Redis, stream: str, timeout: opts.OperationTimeout}, nil
}

func (c *client) Name() string {
	return clientName
}

func (c *client) Ping(ctx context.Context) error {
	if c.redis == nil {
		return errors.New("redis client not configured")
	}
	return c.redis.Ping(ctx).Err()
}

func (c *client) Publish(ctx context.Context, req Request) (string, error) {
	payload, err := encodeRequest(req)
	if err != nil {
		return "", err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	id, err := c.stream.Add(ctx, EventRecalc, payload)
	if err != nil {
		return "", fmt.Errorf("pulse add: %w", err)
	}
	return id, nil
}

func (c *client) Subscribe(ctx context.Context, name string, opts ...streamopts.Sink) (Subscription, error) {
	if name == "" {
		name = DefaultSinkName
	}
	sink, err := c.stream.NewSink(ctx, name, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pulse sink %q: %w", name, err)
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &subscription{sink: sink, out: make(chan Delivery), cancel: cancel}
	go forward(ctx, sink.Subscribe(), s.out)
	return s, nil
}

type subscription struct {
	sink   *streaming.Sink
	out    chan Delivery
	cancel context.CancelFunc
}

func (s *subscription) Deliveries() <-chan Delivery {
	return s.out
}

func (s *subscription) Ack(ctx context.Context, d Delivery) error {
	if d.event == nil {
		return fmt.Errorf("delivery %q was not read from this subscription", d.EventID)
	}
	if err := s.sink.Ack(ctx, d.event); err != nil {
		return fmt.Errorf("pulse ack: %w", err)
	}
	return nil
}

func (s *subscription) Close(ctx context.Context) {
	s.cancel()
	s.sink.Close(ctx)
}

// forward decodes stream entries until in closes or ctx is done, then closes
// out.
func forward(ctx context.Context, in <-chan *streaming.Event, out chan<- Delivery) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- decodeEvent(evt):
			case <-ctx.Done():
				return
			}
		}
	}
}

func encodeRequest(req Request) ([]byte, error) {
	if req.Type == "" {
		req.Type = EventRecalc
	}
	if req.Type != EventRecalc {
		return nil, fmt.Errorf("unexpected request type %q", req.Type)
	}
	if req.SessionID == "" {
		return nil, errors.New("session id is required")
	}
	return json.Marshal(req)
}

func decodeEvent(evt *streaming.Event) Delivery {
	d := Delivery{EventID: evt.ID, event: evt}
	if evt.EventName != EventRecalc {
		d.Err = fmt.Errorf("unexpected event %q", evt.EventName)
		return d
	}
	var req Request
	if err := json.Unmarshal(evt.Payload, &req); err != nil {
		d.Err = fmt.Errorf("pulse decode payload: %w", err)
		return d
	}
	if req.Type != EventRecalc {
		d.Err = fmt.Errorf("unexpected request type %q", req.Type)
		return d
	}
	if req.SessionID == "" {
		d.Err = errors.New("request missing session id")
		return d
	}
	d.Request = req
	return d
}
