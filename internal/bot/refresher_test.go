package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshRepostsStaleLists(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sender := &fakeSender{}
	h := newTestHandler(t, store, sender, time.Hour)

	const groupID = int64(-100500)
	staleAt := time.Now().UTC().Add(-2 * time.Hour)
	listID := seedRoutedList(store, 111, groupID, staleAt)

	require.NoError(t, h.RefreshStaleLists(ctx))

	// Old message deleted (best effort), fresh copy posted to the same group.
	deletes := sender.deletes()
	require.Len(t, deletes, 1)
	assert.Equal(t, groupID, deletes[0].ChatID)
	assert.Equal(t, 42, deletes[0].MessageID)

	posted, ok := sender.lastMessageTo(groupID)
	require.True(t, ok)
	assert.Contains(t, posted.Text, "@alice - 10.00 ❌")

	// The list keeps its identity but points at the new message.
	l, err := store.List(ctx, listID)
	require.NoError(t, err)
	require.NotNil(t, l.Message)
	assert.NotEqual(t, 42, l.Message.MessageID)
	assert.Equal(t, groupID, l.Message.ChatID)

	// A repost is not an edit: last_updated stays put.
	assert.True(t, l.LastUpdated.Equal(staleAt))
}

func TestRefreshSkipsFreshLists(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sender := &fakeSender{}
	h := newTestHandler(t, store, sender, time.Hour)

	seedRoutedList(store, 111, -1, time.Now().UTC())

	require.NoError(t, h.RefreshStaleLists(ctx))

	assert.Empty(t, sender.deletes())
	assert.Empty(t, sender.sent)
}

func TestRefreshSkipsUnroutedLists(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sender := &fakeSender{}
	h := newTestHandler(t, store, sender, time.Hour)

	// Old but never routed to a group.
	listID := seedRoutedList(store, 111, -1, time.Now().UTC().Add(-48*time.Hour))
	store.lists[listID].GroupID = nil
	store.lists[listID].Message = nil

	require.NoError(t, h.RefreshStaleLists(ctx))

	assert.Empty(t, sender.deletes())
	assert.Empty(t, sender.sent)
}

func TestRefreshRecoversListWithClearedRef(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sender := &fakeSender{}
	h := newTestHandler(t, store, sender, time.Hour)

	const groupID = int64(-100500)
	// Routed to a group, but a previous repost failed and cleared the ref.
	listID := seedRoutedList(store, 111, groupID, time.Now().UTC().Add(-2*time.Hour))
	store.lists[listID].Message = nil

	require.NoError(t, h.RefreshStaleLists(ctx))

	// Nothing to delete, but a fresh copy lands in the destination group.
	assert.Empty(t, sender.deletes())
	posted, ok := sender.lastMessageTo(groupID)
	require.True(t, ok)
	assert.Contains(t, posted.Text, "@alice - 10.00 ❌")

	l, err := store.List(ctx, listID)
	require.NoError(t, err)
	require.NotNil(t, l.Message)
	assert.Equal(t, groupID, l.Message.ChatID)
}

func TestRefreshClearsLocationWhenRepostFails(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sender := &fakeSender{sendErr: errors.New("forbidden: bot was kicked")}
	h := newTestHandler(t, store, sender, time.Hour)

	listID := seedRoutedList(store, 111, -1, time.Now().UTC().Add(-2*time.Hour))

	require.NoError(t, h.RefreshStaleLists(ctx))

	// The old message is gone and nothing replaced it, so the recorded
	// location must be dropped rather than left pointing at a dead message.
	// The destination group stays, so the next tick retries the repost.
	l, err := store.List(ctx, listID)
	require.NoError(t, err)
	assert.Nil(t, l.Message)
	require.NotNil(t, l.GroupID)

	routed, err := store.RoutedLists(ctx)
	require.NoError(t, err)
	require.Len(t, routed, 1)
	assert.Equal(t, listID, routed[0].ID)
}
