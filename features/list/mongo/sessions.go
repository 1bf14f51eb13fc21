package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	clientsmongo "github.com/imaging-api/containerlists/features/list/mongo/clients/mongo"
	"github.com/imaging-api/containerlists/runtime/list"
)

// SessionResolver looks up the session owning an acquisition.
type SessionResolver struct {
	client clientsmongo.Client
}

// Compile-time check that SessionResolver implements list.SessionResolver.
var _ list.SessionResolver = (*SessionResolver)(nil)

// NewSessionResolver returns a resolver reading the acquisitions collection.
func NewSessionResolver(client clientsmongo.Client) *SessionResolver {
	return &SessionResolver{client: client}
}

// SessionOf returns the session field of the acquisition. Missing
// acquisitions and acquisitions without a session yield list.ErrNotFound.
func (r *SessionResolver) SessionOf(ctx context.Context, acquisitionID any) (any, error) {
	if r.client == nil {
		return nil, errors.New("mongo client is required")
	}
	doc, err := r.client.FindOne(ctx, acquisColl, bson.M{"_id": acquisitionID}, bson.M{"session": 1})
	if err != nil {
		if errors.Is(err, list.ErrNotFound) {
			return nil, fmt.Errorf("acquisition %v: %w", acquisitionID, list.ErrNotFound)
		}
		return nil, err
	}
	sid, ok := doc["session"]
	if !ok || sid == nil {
		return nil, fmt.Errorf("acquisition %v has no session: %w", acquisitionID, list.ErrNotFound)
	}
	return sid, nil
}
