package auditctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActorRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	//nolint:staticcheck // a nil context must not panic
	ctx := WithActor(nil, Actor{UserID: "u-1", Role: "admin", IPAddress: "192.0.2.7"})
	actor, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "u-1", actor.UserID)
	require.Equal(t, "192.0.2.7", actor.IPAddress)
}
