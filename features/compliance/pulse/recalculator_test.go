package pulse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	clientspulse "github.com/imaging-api/containerlists/features/compliance/pulse/clients/pulse"
	mockpulse "github.com/imaging-api/containerlists/features/compliance/pulse/clients/pulse/mocks"
)

func TestNewRecalculatorRequiresClient(t *testing.T) {
	_, err := NewRecalculator(RecalculatorOptions{})
	require.EqualError(t, err, "pulse client is required")
}

func TestRecalcPublishesRequest(t *testing.T) {
	cli := mockpulse.NewClient(t)
	sessID := primitive.NewObjectID()
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	cli.AddPublish(func(ctx context.Context, req clientspulse.Request) (string, error) {
		require.Equal(t, clientspulse.Request{
			ID:          "req-1",
			Type:        clientspulse.EventRecalc,
			SessionID:   sessID.Hex(),
			RequestedAt: at,
		}, req)
		return "1-0", nil
	})

	r, err := NewRecalculator(RecalculatorOptions{
		Client: cli,
		Now:    func() time.Time { return at },
		NewID:  func() string { return "req-1" },
	})
	require.NoError(t, err)
	require.NoError(t, r.RecalcSessionCompliance(context.Background(), sessID))
	require.False(t, cli.HasMore())
}

func TestRecalcAcceptsStringIDs(t *testing.T) {
	cli := mockpulse.NewClient(t)
	cli.AddPublish(func(ctx context.Context, req clientspulse.Request) (string, error) {
		require.Equal(t, "session-7", req.SessionID)
		require.NotEmpty(t, req.ID)
		require.False(t, req.RequestedAt.IsZero())
		return "2-0", nil
	})

	r, err := NewRecalculator(RecalculatorOptions{Client: cli})
	require.NoError(t, err)
	require.NoError(t, r.RecalcSessionCompliance(context.Background(), "session-7"))
}

func TestRecalcRejectsBadSessionIDs(t *testing.T) {
	r, err := NewRecalculator(RecalculatorOptions{Client: mockpulse.NewClient(t)})
	require.NoError(t, err)

	require.EqualError(t, r.RecalcSessionCompliance(context.Background(), nil), "session id is required")
	require.EqualError(t, r.RecalcSessionCompliance(context.Background(), ""), "session id is required")
	require.EqualError(t, r.RecalcSessionCompliance(context.Background(), primitive.NilObjectID), "session id is required")
	require.EqualError(t, r.RecalcSessionCompliance(context.Background(), 42), "unsupported session id type int")
}

func TestRecalcPropagatesPublishErrors(t *testing.T) {
	cli := mockpulse.NewClient(t)
	cli.AddPublish(func(context.Context, clientspulse.Request) (string, error) {
		return "", errors.New("redis down")
	})

	r, err := NewRecalculator(RecalculatorOptions{Client: cli})
	require.NoError(t, err)
	require.EqualError(t, r.RecalcSessionCompliance(context.Background(), "s1"), "redis down")
}
