package realtime

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

type staticResolver struct {
	token     string
	principal *types.Principal
}

func (r *staticResolver) Resolve(ctx context.Context, token string) (*types.Principal, error) {
	if token != r.token {
		return nil, types.NewUnauthorizedError("invalid token")
	}
	return r.principal, nil
}

func dialTestHandler(t *testing.T) (*websocket.Conn, *Hub) {
	log := logger.New("error")
	hub := NewHub(log)
	handler := NewHandler(hub, &staticResolver{
		token:     "valid-token",
		principal: &types.Principal{UserID: "user-1", Role: types.RolePatient},
	}, log)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	return ws, hub
}

func TestHandshakeRejectsNonAuthFirstMessage(t *testing.T) {
	ws, hub := dialTestHandler(t)

	require.NoError(t, ws.WriteJSON(&Message{Type: TypeHeartbeat}))

	var reply Message
	require.NoError(t, ws.ReadJSON(&reply))
	assert.Equal(t, TypeAuthError, reply.Type)

	err := ws.ReadJSON(&reply)
	assert.Error(t, err)
	assert.False(t, hub.IsOnline("user-1"))
}

func TestHandshakeRejectsInvalidToken(t *testing.T) {
	ws, hub := dialTestHandler(t)

	require.NoError(t, ws.WriteJSON(&Message{Type: TypeAuth, Token: "forged"}))

	var reply Message
	require.NoError(t, ws.ReadJSON(&reply))
	assert.Equal(t, TypeAuthError, reply.Type)
	assert.False(t, hub.IsOnline("user-1"))
}

func TestHandshakeRegistersAndAcksHeartbeat(t *testing.T) {
	ws, hub := dialTestHandler(t)

	require.NoError(t, ws.WriteJSON(&Message{Type: TypeAuth, Token: "valid-token"}))

	var reply Message
	require.NoError(t, ws.ReadJSON(&reply))
	assert.Equal(t, TypeAuthSuccess, reply.Type)
	assert.Equal(t, "user-1", reply.UserID)
	assert.True(t, hub.IsOnline("user-1"))

	require.NoError(t, ws.WriteJSON(&Message{Type: TypeHeartbeat}))
	require.NoError(t, ws.ReadJSON(&reply))
	assert.Equal(t, TypeHeartbeatAck, reply.Type)
}

func TestAuthenticatedPeerReceivesHubPush(t *testing.T) {
	ws, hub := dialTestHandler(t)

	require.NoError(t, ws.WriteJSON(&Message{Type: TypeAuth, Token: "valid-token"}))

	var reply Message
	require.NoError(t, ws.ReadJSON(&reply))
	require.Equal(t, TypeAuthSuccess, reply.Type)

	delivered := hub.SendToUser("user-1", &Message{
		Type:    TypeNotification,
		Title:   "Appointment confirmed",
		Content: "See you at 09:30",
	})
	require.True(t, delivered)

	require.NoError(t, ws.ReadJSON(&reply))
	assert.Equal(t, TypeNotification, reply.Type)
	assert.Equal(t, "Appointment confirmed", reply.Title)
}
