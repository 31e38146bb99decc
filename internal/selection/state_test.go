package selection

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/events"
	"github.com/spec-kit/portal-gateway/internal/session"
)

func newTestState() (*State, session.Store, *events.Hub) {
	store := session.NewMemoryStore(0)
	hub := events.NewHub(nil)
	return NewState(store, hub), store, hub
}

func TestSetThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	state, _, _ := newTestState()

	sel, err := state.Get(ctx, "sid")
	require.NoError(t, err)
	require.True(t, sel.IsZero())

	require.NoError(t, state.Set(ctx, "sid", "Amazon XY21", ""))
	sel, err = state.Get(ctx, "sid")
	require.NoError(t, err)
	require.Equal(t, "Amazon XY21", sel.Label)
}

func TestSetKeepsDisplayNameWhenOmitted(t *testing.T) {
	ctx := context.Background()
	state, _, _ := newTestState()

	require.NoError(t, state.Set(ctx, "sid", "Amazon A", "Riley Smith"))
	require.NoError(t, state.Set(ctx, "sid", "Amazon B", ""))

	sel, err := state.Get(ctx, "sid")
	require.NoError(t, err)
	require.Equal(t, domain.Selection{Label: "Amazon B", DisplayName: "Riley Smith"}, sel)
}

func TestSubscribersInOtherTabsReceiveChanges(t *testing.T) {
	ctx := context.Background()
	state, _, _ := newTestState()
	require.NoError(t, state.Set(ctx, "sid", "Amazon A", "Riley Smith"))

	var mu sync.Mutex
	var tabB []Update
	unsubscribe := state.Subscribe("sid", func(u Update) {
		mu.Lock()
		defer mu.Unlock()
		tabB = append(tabB, u)
	})
	defer unsubscribe()

	// tab A switches account
	require.NoError(t, state.Set(ctx, "sid", "Amazon B", ""))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, tabB, 1)
	require.Equal(t, "Amazon B", tabB[0].Selection.Label)
	require.Equal(t, "Riley Smith", tabB[0].Selection.DisplayName)
}

func TestSubscribeCompletesPartialBroadcastFromStore(t *testing.T) {
	ctx := context.Background()
	state, store, hub := newTestState()
	require.NoError(t, store.Set(ctx, "sid", session.KeySelectedAccount, "Amazon Stored"))
	require.NoError(t, store.Set(ctx, "sid", session.KeyDisplayName, "Stored Name"))

	var got Update
	defer state.Subscribe("sid", func(u Update) { got = u })()

	require.NoError(t, hub.Publish(ctx, events.Event{Type: events.EventSelectionChanged, SessionID: "sid"}))
	require.Equal(t, domain.Selection{Label: "Amazon Stored", DisplayName: "Stored Name"}, got.Selection)

	require.NoError(t, hub.Publish(ctx, events.Event{
		Type:      events.EventSelectionChanged,
		SessionID: "sid",
		Payload:   events.SelectionPayload{Label: "Amazon New"},
	}))
	require.Equal(t, domain.Selection{Label: "Amazon New", DisplayName: "Stored Name"}, got.Selection)
}

func TestUnsubscribedConsumersStopReceiving(t *testing.T) {
	ctx := context.Background()
	state, _, _ := newTestState()

	calls := 0
	unsubscribe := state.Subscribe("sid", func(Update) { calls++ })
	require.NoError(t, state.Set(ctx, "sid", "Amazon A", ""))
	unsubscribe()
	require.NoError(t, state.Set(ctx, "sid", "Amazon B", ""))

	require.Equal(t, 1, calls)
}

func TestEndNotifiesSubscribers(t *testing.T) {
	state, _, _ := newTestState()
	var got Update
	defer state.Subscribe("sid", func(u Update) { got = u })()

	require.NoError(t, state.End(context.Background(), "sid"))
	require.True(t, got.Ended)
}
