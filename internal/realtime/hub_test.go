package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

func testConnection(userID string, role types.UserRole) *Connection {
	return newConnection(nil, userID, role, func(*Connection, *Message) {}, logger.New("error"))
}

func drain(conn *Connection) []*Message {
	msgs := []*Message{}
	for {
		select {
		case msg := <-conn.outbound:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func TestSendToUser(t *testing.T) {
	hub := NewHub(logger.New("error"))
	conn := testConnection("user-1", types.RolePatient)
	hub.Register(conn)

	assert.True(t, hub.SendToUser("user-1", &Message{Type: TypeNotification, Title: "hello"}))
	assert.False(t, hub.SendToUser("user-2", &Message{Type: TypeNotification}))

	msgs := drain(conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Title)
}

func TestBroadcastToRole(t *testing.T) {
	hub := NewHub(logger.New("error"))
	doctor := testConnection("doc-1", types.RoleDoctor)
	patient := testConnection("pat-1", types.RolePatient)
	hub.Register(doctor)
	hub.Register(patient)

	sent := hub.BroadcastToRole(types.RoleDoctor, &Message{Type: TypeSystemAnnouncement})
	assert.Equal(t, 1, sent)
	assert.Len(t, drain(doctor), 1)
	assert.Empty(t, drain(patient))
}

func TestBroadcastToAll(t *testing.T) {
	hub := NewHub(logger.New("error"))
	a := testConnection("a", types.RolePatient)
	b := testConnection("b", types.RoleDoctor)
	hub.Register(a)
	hub.Register(b)

	sent := hub.BroadcastToAll(&Message{Type: TypeSystemAnnouncement})
	assert.Equal(t, 2, sent)
	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
}

func TestRegisterSupersedesExistingConnection(t *testing.T) {
	hub := NewHub(logger.New("error"))
	old := testConnection("user-1", types.RolePatient)
	hub.Register(old)

	replacement := testConnection("user-1", types.RolePatient)
	hub.Register(replacement)

	select {
	case <-old.done:
	default:
		t.Fatal("superseded connection was not closed")
	}

	assert.Equal(t, 1, hub.Count())
	assert.True(t, hub.SendToUser("user-1", &Message{Type: TypeNotification}))
	assert.Len(t, drain(replacement), 1)
	assert.Empty(t, drain(old))
}

func TestUnregisterSupersededConnectionKeepsReplacement(t *testing.T) {
	hub := NewHub(logger.New("error"))
	old := testConnection("user-1", types.RolePatient)
	hub.Register(old)
	replacement := testConnection("user-1", types.RolePatient)
	hub.Register(replacement)

	hub.Unregister(old)

	assert.True(t, hub.IsOnline("user-1"))
	assert.Equal(t, 1, hub.Count())
}

func TestUnregister(t *testing.T) {
	hub := NewHub(logger.New("error"))
	conn := testConnection("user-1", types.RolePatient)
	hub.Register(conn)
	require.True(t, hub.IsOnline("user-1"))

	hub.Unregister(conn)
	assert.False(t, hub.IsOnline("user-1"))
	assert.False(t, hub.SendToUser("user-1", &Message{Type: TypeNotification}))
}

func TestEnqueueDropsOldestWhenFull(t *testing.T) {
	conn := testConnection("user-1", types.RolePatient)

	for i := 0; i < outboundBuffer; i++ {
		conn.Enqueue(&Message{Type: TypeNotification, ID: "old"})
	}
	conn.Enqueue(&Message{Type: TypeNotification, ID: "new"})

	msgs := drain(conn)
	require.Len(t, msgs, outboundBuffer)
	assert.Equal(t, "new", msgs[len(msgs)-1].ID)
}

func TestEnqueueConcurrentOnFullBufferNeverBlocks(t *testing.T) {
	conn := testConnection("user-1", types.RolePatient)

	for i := 0; i < outboundBuffer; i++ {
		conn.Enqueue(&Message{Type: TypeNotification})
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				conn.Enqueue(&Message{Type: TypeChatMessage})
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, len(drain(conn)), outboundBuffer)
}

func TestEnqueueAfterCloseIsNoop(t *testing.T) {
	conn := testConnection("user-1", types.RolePatient)
	conn.Close()

	conn.Enqueue(&Message{Type: TypeNotification})
	assert.Empty(t, drain(conn))
}
