package pulse

import (
	"context"
	"errors"
	"fmt"

	"goa.design/clue/log"
	streamopts "goa.design/pulse/streaming/options"

	clientspulse "github.com/imaging-api/containerlists/features/compliance/pulse/clients/pulse"
)

type (
	// Handler recomputes the compliance of one session.
	Handler func(ctx context.Context, sessionID string) error

	// WorkerOptions configures a Worker.
	WorkerOptions struct {
		// Client reads the compliance queue. Required.
		Client clientspulse.Client
		// Handler processes each request. Required.
		Handler Handler
		// SinkName identifies the consumer group. Defaults to
		// clientspulse.DefaultSinkName.
		SinkName string
		// SinkOptions are passed through when the sink is created.
		SinkOptions []streamopts.Sink
	}

	// Worker drains the compliance queue.
	Worker struct {
		client   clientspulse.Client
		handler  Handler
		sink     string
		sinkOpts []streamopts.Sink
	}
)

// NewWorker builds a Worker.
func NewWorker(opts WorkerOptions) (*Worker, error) {
	if opts.Client == nil {
		return nil, errors.New("pulse client is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("handler is required")
	}
	sink := opts.SinkName
	if sink == "" {
		sink = clientspulse.DefaultSinkName
	}
	return &Worker{
		client:   opts.Client,
		handler:  opts.Handler,
		sink:     sink,
		sinkOpts: opts.SinkOptions,
	}, nil
}

// Run consumes requests until ctx is canceled or the subscription closes.
// Requests the handler fails on are left unacknowledged so Pulse redelivers
// them; undecodable entries are acknowledged and dropped. Run returns the
// first acknowledgement error.
func (w *Worker) Run(ctx context.Context) error {
	sub, err := w.client.Subscribe(ctx, w.sink, w.sinkOpts...)
	if err != nil {
		return err
	}
	defer sub.Close(context.Background())

	ch := sub.Deliveries()
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-ch:
			if !ok {
				return nil
			}
			if err := w.process(ctx, sub, d); err != nil {
				return err
			}
		}
	}
}

func (w *Worker) process(ctx context.Context, sub clientspulse.Subscription, d clientspulse.Delivery) error {
	if d.Err != nil {
		log.Error(ctx, d.Err,
			log.KV{K: "msg", V: "dropping undecodable compliance request"},
			log.KV{K: "event", V: d.EventID})
		if err := sub.Ack(ctx, d); err != nil {
			return fmt.Errorf("ack %s: %w", d.EventID, err)
		}
		return nil
	}
	if err := w.handler(ctx, d.Request.SessionID); err != nil {
		log.Error(ctx, err,
			log.KV{K: "msg", V: "session compliance recalculation failed"},
			log.KV{K: "session", V: d.Request.SessionID},
			log.KV{K: "request", V: d.Request.ID})
		return nil
	}
	if err := sub.Ack(ctx, d); err != nil {
		return fmt.Errorf("ack %s: %w", d.EventID, err)
	}
	log.Debug(ctx,
		log.KV{K: "msg", V: "session compliance recalculated"},
		log.KV{K: "session", V: d.Request.SessionID})
	return nil
}
