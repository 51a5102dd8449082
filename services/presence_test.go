package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceJoinAndLookup(t *testing.T) {
	emitter := &fakeEmitter{}
	presence := NewPresenceRegistry(emitter)

	presence.Join("u1", "c1")

	connID, ok := presence.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, "c1", connID)

	online := emitter.byEvent(EventUserOnline)
	require.Len(t, online, 1)
	assert.Equal(t, "u1", online[0].Payload)

	_, ok = presence.Lookup("u2")
	assert.False(t, ok)
}

func TestPresenceLastConnectWins(t *testing.T) {
	emitter := &fakeEmitter{}
	presence := NewPresenceRegistry(emitter)

	presence.Join("u1", "c1")
	presence.Join("u1", "c2")

	connID, ok := presence.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, "c2", connID)

	// 旧连接断开不能把新连接顶下线
	presence.Remove("c1")
	connID, ok = presence.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, "c2", connID)
	assert.Empty(t, emitter.byEvent(EventUserOffline))
}

func TestPresenceRemoveBroadcastsOffline(t *testing.T) {
	emitter := &fakeEmitter{}
	presence := NewPresenceRegistry(emitter)

	presence.Join("u1", "c1")
	presence.Remove("c1")

	_, ok := presence.Lookup("u1")
	assert.False(t, ok)

	offline := emitter.byEvent(EventUserOffline)
	require.Len(t, offline, 1)
	assert.Equal(t, "u1", offline[0].Payload)

	// 重复移除不再广播
	presence.Remove("c1")
	assert.Len(t, emitter.byEvent(EventUserOffline), 1)
}

func TestPresenceOnlineUsers(t *testing.T) {
	emitter := &fakeEmitter{}
	presence := NewPresenceRegistry(emitter)

	presence.Join("u1", "c1")
	presence.Join("u2", "c2")

	assert.ElementsMatch(t, []string{"u1", "u2"}, presence.OnlineUsers())
}
