// Package pulse queues session compliance recalculations on goa.design/pulse
// streams. List accessors notify a Recalculator after removing files from a
// session or acquisition; a Worker drains the queue and invokes the handler
// that actually recomputes compliance against the project template.
package pulse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	clientspulse "github.com/imaging-api/containerlists/features/compliance/pulse/clients/pulse"
	"github.com/imaging-api/containerlists/runtime/list"
)

type (
	// RecalculatorOptions configures a Recalculator.
	RecalculatorOptions struct {
		// Client publishes to the compliance queue. Required.
		Client clientspulse.Client
		// Now defaults to UTC now.
		Now func() time.Time
		// NewID defaults to random UUIDs.
		NewID func() string
	}

	// Recalculator implements list.ComplianceRecalculator by queueing
	// requests.
	Recalculator struct {
		client clientspulse.Client
		now    func() time.Time
		newID  func() string
	}
)

// Compile-time check that Recalculator implements list.ComplianceRecalculator.
var _ list.ComplianceRecalculator = (*Recalculator)(nil)

// NewRecalculator builds a Recalculator.
func NewRecalculator(opts RecalculatorOptions) (*Recalculator, error) {
	if opts.Client == nil {
		return nil, errors.New("pulse client is required")
	}
	r := &Recalculator{
		client: opts.Client,
		now:    opts.Now,
		newID:  opts.NewID,
	}
	if r.now == nil {
		r.now = func() time.Time { return time.Now().UTC() }
	}
	if r.newID == nil {
		r.newID = uuid.NewString
	}
	return r, nil
}

// RecalcSessionCompliance queues a recalculation request for sessionID.
func (r *Recalculator) RecalcSessionCompliance(ctx context.Context, sessionID any) error {
	sid, err := sessionKey(sessionID)
	if err != nil {
		return err
	}
	_, err = r.client.Publish(ctx, clientspulse.Request{
		ID:          r.newID(),
		Type:        clientspulse.EventRecalc,
		SessionID:   sid,
		RequestedAt: r.now(),
	})
	return err
}

// sessionKey renders a session id the way it travels on the queue.
func sessionKey(id any) (string, error) {
	switch v := id.(type) {
	case primitive.ObjectID:
		if v.IsZero() {
			return "", errors.New("session id is required")
		}
		return v.Hex(), nil
	case string:
		if v == "" {
			return "", errors.New("session id is required")
		}
		return v, nil
	case nil:
		return "", errors.New("session id is required")
	default:
		return "", fmt.Errorf("unsupported session id type %T", id)
	}
}
